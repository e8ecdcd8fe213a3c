package elevstate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/heislab/elevsim/internal/elevcmd"
	"github.com/heislab/elevsim/internal/elevconsts"
	"github.com/heislab/elevsim/internal/elevevent"
	"github.com/heislab/elevsim/internal/elevledger"
	"github.com/heislab/elevsim/internal/elevrider"
	"github.com/heislab/elevsim/internal/logger"
)

var Log = logger.GetLogger()

// ElevatorState is the movement engine. A single worker goroutine owns
// every movement; the ledger it shares with call submission does its own
// locking.
type ElevatorState struct {
	ledger        *elevledger.Ledger
	sink          elevevent.Sink
	floorInterval time.Duration

	//Internal Variables
	mtx            sync.Mutex
	behaviour      elevconsts.ElevatorBehaviour
	dirn           elevconsts.Dirn
	passesRun      int
	commandChannel <-chan elevcmd.ElevatorCommand
}

func NewElevatorState(ledger *elevledger.Ledger, sink elevevent.Sink, floorInterval time.Duration, commandChannel <-chan elevcmd.ElevatorCommand) *ElevatorState {
	if sink == nil {
		sink = elevevent.MultiSink()
	}
	return &ElevatorState{
		ledger:         ledger,
		sink:           sink,
		floorInterval:  floorInterval,
		behaviour:      elevconsts.Idle,
		dirn:           elevconsts.Stop,
		commandChannel: commandChannel,
	}
}

func (es *ElevatorState) Start(ctx context.Context, waitGroup *sync.WaitGroup) error {
	if es.ledger == nil {
		return errors.New("ElevatorState has no ledger")
	}
	if es.commandChannel == nil {
		return errors.New("ElevatorState has no command channel")
	}

	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		for {
			select {
			case <-ctx.Done():
				Log.Warn().Msgf("ElevatorState Go routine has been signaled to stop")
				return
			case command := <-es.commandChannel:
				switch cmd := command.Value.(type) {
				case elevcmd.RunPassCommand:
					es.runPass(ctx, cmd.ID)
				case elevcmd.SyncCommand:
					close(cmd.Done)
				default:
					Log.Error().Msgf("Unknown command %v", command.CommandType())
				}
			}
		}
	}()
	return nil
}

func (es *ElevatorState) Behaviour() elevconsts.ElevatorBehaviour {
	es.mtx.Lock()
	defer es.mtx.Unlock()
	return es.behaviour
}

func (es *ElevatorState) Dirn() elevconsts.Dirn {
	es.mtx.Lock()
	defer es.mtx.Unlock()
	return es.dirn
}

// PassesRun counts completed or interrupted passes.
func (es *ElevatorState) PassesRun() int {
	es.mtx.Lock()
	defer es.mtx.Unlock()
	return es.passesRun
}

func (es *ElevatorState) setBehaviour(behaviour elevconsts.ElevatorBehaviour, dirn elevconsts.Dirn) {
	es.mtx.Lock()
	defer es.mtx.Unlock()
	if es.behaviour != behaviour {
		Log.Trace().Msgf("Behaviour %s -> %s", es.behaviour.String(), behaviour.String())
	}
	es.behaviour = behaviour
	es.dirn = dirn
}

func (es *ElevatorState) emit(v any) {
	es.sink.Emit(elevevent.Wrap(v))
}

// moveTo drives the car floor by floor to target, opening the doors on
// every flagged floor it reaches, target included.
func (es *ElevatorState) moveTo(ctx context.Context, target int, dirn elevconsts.Dirn) error {
	current := es.ledger.CarFloor()
	if current == target {
		es.serveFloor(current, dirn)
		return nil
	}

	step := 1
	if target < current {
		step = -1
	}

	for current != target {
		es.setBehaviour(elevconsts.Moving, dirn)
		if err := es.pause(ctx); err != nil {
			return err
		}
		current += step
		es.ledger.SetCarFloor(current)
		es.emit(elevevent.CurrentFloorEvent{Floor: current + 1})

		if es.ledger.StopNeeded(current) {
			es.serveFloor(current, dirn)
		}
	}
	return nil
}

func (es *ElevatorState) pause(ctx context.Context) error {
	timer := time.NewTimer(es.floorInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (es *ElevatorState) serveFloor(f int, dirn elevconsts.Dirn) {
	es.setBehaviour(elevconsts.DoorsOpen, dirn)
	es.emit(elevevent.DoorsOpenedEvent{Floor: f + 1})

	service := es.ledger.ServeFloor(f)
	for _, rider := range service.Out {
		es.emit(elevevent.PersonOutEvent{Floor: f + 1, Rider: rider})
	}
	for _, rider := range service.In {
		es.emit(elevevent.PersonInEvent{Floor: f + 1, Rider: rider})
	}
	if service.Blocked {
		Log.Info().Msgf("Floor %d: car at %d/%d kg, riders left waiting", f+1, es.ledger.CarWeight(), es.ledger.Capacity())
	}

	es.emit(elevevent.DoorsClosedEvent{Floor: f + 1})
}

func (es *ElevatorState) Print() {
	snapshot, err := es.ledger.Snapshot()
	if err != nil {
		Log.Error().Msgf("Error taking ledger snapshot: %v", err)
		return
	}

	Log.Info().Msgf("  +---------------------------+")
	Log.Info().Msgf("  |floor  = %-2d                |", snapshot.CarFloor)
	Log.Info().Msgf("  |weight = %-4d/%-4d         |", snapshot.Weight, snapshot.Capacity)
	Log.Info().Msgf("  |behav  = %-18s|", es.Behaviour().String())
	Log.Info().Msgf("  |dirn   = %-18s|", es.Dirn().String())
	Log.Info().Msgf("  +---------------------------+")
	for f := len(snapshot.Floors) - 1; f >= 0; f-- {
		floor := snapshot.Floors[f]
		mark := "-"
		if floor.StopNeeded {
			mark = "#"
		}
		Log.Info().Msgf("  | %d %s in:[%s] out:[%s]", floor.Number, mark, riderList(floor.Pickup), riderList(floor.Dropoff))
	}
	Log.Info().Msgf("  +---------------------------+")
}

func riderList(riders []elevrider.Rider) string {
	parts := make([]string, len(riders))
	for i, r := range riders {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
