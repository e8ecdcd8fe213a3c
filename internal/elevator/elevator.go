package elevator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/heislab/elevsim/internal/elevcmd"
	"github.com/heislab/elevsim/internal/elevconfig"
	"github.com/heislab/elevsim/internal/elevevent"
	"github.com/heislab/elevsim/internal/elevledger"
	"github.com/heislab/elevsim/internal/elevmetadata"
	"github.com/heislab/elevsim/internal/elevrider"
	"github.com/heislab/elevsim/internal/elevutils"
	"github.com/heislab/elevsim/internal/logger"

	"github.com/heislab/elevsim/internal/elevstate"

	"github.com/google/uuid"
	"github.com/xyproto/randomstring"
)

var Logger = logger.GetLogger()

const IDENTIFIER_DEFAULT_LEN = 10

var ErrNotRunning = errors.New("elevator not running")
var ErrNoProgress = errors.New("pass made no progress")

type Elevator struct {
	MetaData *elevmetadata.ElevMetaData //this contains all elevator constant metadata
	Ledger   *elevledger.Ledger
	State    *elevstate.ElevatorState

	sink           elevevent.Sink
	commandChannel chan elevcmd.ElevatorCommand

	initialised bool //set to true if initialised via NewElevator Function

	mtx     sync.Mutex
	running bool

	//used for graceful shutdown
	waitGroup *sync.WaitGroup
	cancel    context.CancelFunc
}

func NewElevator(cfg elevconfig.Config, identifier string, sinks ...elevevent.Sink) (*Elevator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if identifier == "" {
		identifier = randomstring.EnglishFrequencyString(IDENTIFIER_DEFAULT_LEN) //this should be random enough
		Logger.Warn().Msgf("No elevator identifier provided, generated random identifier \"%v\"", identifier)
	}

	elevatorMetadata := &elevmetadata.ElevMetaData{
		SoftwareVersion: elevutils.GetGitHash(),
		Identifier:      identifier,
		Floors:          cfg.Floors,
		Capacity:        cfg.Capacity,
	}

	sink := elevevent.MultiSink(sinks...)
	ledger := elevledger.New(cfg.Floors, cfg.Capacity)
	commandChannel := make(chan elevcmd.ElevatorCommand, cfg.PassQueueSize)

	return &Elevator{
		MetaData:       elevatorMetadata,
		Ledger:         ledger,
		State:          elevstate.NewElevatorState(ledger, sink, cfg.FloorInterval, commandChannel),
		sink:           sink,
		commandChannel: commandChannel,
		initialised:    true,
	}, nil
}

func (e *Elevator) Start() {
	if !e.initialised {
		Logger.Error().Msg("Elevator not initialised")
		return
	}

	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.running {
		Logger.Error().Msg("Elevator already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	if err := e.State.Start(ctx, wg); err != nil {
		cancel()
		Logger.Error().Msgf("Error starting elevator: %v", err)
		return
	}

	e.waitGroup = wg
	e.cancel = cancel
	e.running = true
	Logger.Debug().Msgf("Started Elevator %s", e.MetaData.Identifier)
}

// Stop interrupts any pass in progress and waits for the worker to exit.
// Requests still in the ledger survive a restart.
func (e *Elevator) Stop() {
	if !e.initialised {
		Logger.Error().Msg("Elevator not initialised")
		return
	}

	e.mtx.Lock()
	defer e.mtx.Unlock()
	if !e.running {
		Logger.Error().Msg("Elevator not running, so cannot stop elevator")
		return
	}

	Logger.Debug().Msg("Stopping Elevator")
	e.cancel()
	e.waitGroup.Wait()

	Logger.Debug().Msg("Stopped Elevator")
	e.running = false
}

func (e *Elevator) Running() bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.running
}

// PressButton registers a call and triggers a pass. It never blocks on the
// worker and reports problems through the log only.
func (e *Elevator) PressButton(rider elevrider.Rider) {
	e.sink.Emit(elevevent.Wrap(elevevent.CallReceivedEvent{Rider: rider}))

	result, err := e.Ledger.Submit(rider)
	if err != nil {
		Logger.Error().Msgf("Call rejected: %v", err)
		return
	}
	Logger.Debug().Msgf("Call %v: %s", rider, result.String())
	if result == elevledger.Discarded {
		return
	}

	id := uuid.New().String()
	select {
	case e.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.RunPassCommand{ID: id}}:
	default:
		// a queued pass scans the live ledger and picks this call up
		Logger.Debug().Msgf("Pass queue full, coalesced pass %s", id)
	}
}

// WaitIdle blocks until every pass queued before the call has finished.
func (e *Elevator) WaitIdle(ctx context.Context) error {
	if !e.Running() {
		return ErrNotRunning
	}

	done := make(chan struct{})
	select {
	case e.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.SyncCommand{Done: done}}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain keeps running passes until no floor needs a stop. A pass can leave
// riders behind when the car is full, so a single WaitIdle is not enough.
// Drain gives up with ErrNoProgress when a whole pass leaves the ledger
// untouched, e.g. a rider heavier than the car's capacity.
func (e *Elevator) Drain(ctx context.Context) error {
	for {
		if err := e.WaitIdle(ctx); err != nil {
			return err
		}
		if !e.Ledger.AnyStopNeeded() {
			return nil
		}

		before, err := e.Snapshot()
		if err != nil {
			return err
		}
		select {
		case e.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.RunPassCommand{ID: uuid.New().String()}}:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := e.WaitIdle(ctx); err != nil {
			return err
		}

		after, err := e.Snapshot()
		if err != nil {
			return err
		}
		if reflect.DeepEqual(before, after) {
			return fmt.Errorf("%w: %s", ErrNoProgress, stuckFloors(after))
		}
	}
}

func stuckFloors(snapshot elevledger.Snapshot) string {
	var floors []string
	for _, floor := range snapshot.Floors {
		if floor.StopNeeded {
			floors = append(floors, fmt.Sprintf("floor %d waiting %d", floor.Number, len(floor.Pickup)))
		}
	}
	return strings.Join(floors, ", ")
}

func (e *Elevator) Snapshot() (elevledger.Snapshot, error) {
	return e.Ledger.Snapshot()
}
