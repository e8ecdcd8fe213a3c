package elevstate

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/heislab/elevsim/internal/elevcmd"
	"github.com/heislab/elevsim/internal/elevconsts"
	"github.com/heislab/elevsim/internal/elevevent"
	"github.com/heislab/elevsim/internal/elevledger"
	"github.com/heislab/elevsim/internal/elevrider"
	"github.com/heislab/elevsim/internal/logger"

	"github.com/rs/zerolog"
)

const TEST_FLOOR_INTERVAL = time.Millisecond
const TEST_TIMEOUT = 5 * time.Second

type testElevator struct {
	ledger         *elevledger.Ledger
	state          *ElevatorState
	recorder       *elevevent.Recorder
	commandChannel chan elevcmd.ElevatorCommand
	overweight     chan int
}

func newTestElevator(t *testing.T, numFloors, capacity int, floorInterval time.Duration) (*testElevator, context.CancelFunc, *sync.WaitGroup) {
	t.Helper()
	_ = logger.GetLoggerConfigured(zerolog.Disabled)

	te := &testElevator{
		ledger:         elevledger.New(numFloors, capacity),
		recorder:       &elevevent.Recorder{},
		commandChannel: make(chan elevcmd.ElevatorCommand, 512),
		overweight:     make(chan int, 1),
	}
	weightCheck := elevevent.SinkFunc(func(elevevent.ElevatorEvent) {
		if w := te.ledger.CarWeight(); w > capacity {
			select {
			case te.overweight <- w:
			default:
			}
		}
	})
	te.state = NewElevatorState(te.ledger, elevevent.MultiSink(te.recorder, weightCheck), floorInterval, te.commandChannel)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	if err := te.state.Start(ctx, wg); err != nil {
		t.Fatalf("Expected error to be nil, got %v", err)
	}
	return te, cancel, wg
}

func (te *testElevator) submit(t *testing.T, rider elevrider.Rider) elevledger.SubmitResult {
	t.Helper()
	res, err := te.ledger.Submit(rider)
	if err != nil {
		t.Fatalf("Expected error to be nil for %v, got %v", rider, err)
	}
	return res
}

// runPasses queues n passes and blocks until all of them completed.
func (te *testElevator) runPasses(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		te.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.RunPassCommand{ID: fmt.Sprintf("test-%d", i)}}
	}
	te.sync(t)
}

func (te *testElevator) sync(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	te.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.SyncCommand{Done: done}}
	select {
	case <-done:
	case <-time.After(TEST_TIMEOUT):
		t.Fatalf("Timed out waiting for the worker")
	}
}

func (te *testElevator) checkWeight(t *testing.T) {
	t.Helper()
	select {
	case w := <-te.overweight:
		t.Errorf("Car weight %d exceeded capacity", w)
	default:
	}
}

func doorFloors(events []elevevent.ElevatorEvent) []int {
	var floors []int
	for _, event := range events {
		if ev, ok := event.Value.(elevevent.DoorsOpenedEvent); ok {
			floors = append(floors, ev.Floor)
		}
	}
	return floors
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartWithoutChannel(t *testing.T) {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
	state := NewElevatorState(elevledger.New(9, 300), nil, TEST_FLOOR_INTERVAL, nil)

	if err := state.Start(context.Background(), &sync.WaitGroup{}); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestIdlePassIsSilent(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	te.runPasses(t, 3)

	if events := te.recorder.Events(); len(events) != 0 {
		t.Errorf("Expected no events for idle passes, got %v", te.recorder.Messages())
	}
	if te.state.Behaviour() != elevconsts.Idle {
		t.Errorf("Expected behaviour %v, got %v", elevconsts.Idle, te.state.Behaviour())
	}
	if te.state.Dirn() != elevconsts.Stop {
		t.Errorf("Expected direction %v, got %v", elevconsts.Stop, te.state.Dirn())
	}
	if te.state.PassesRun() != 3 {
		t.Errorf("Expected 3 passes, got %d", te.state.PassesRun())
	}
}

func TestDirectLoadedRiderSkipsOrigin(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	te.ledger.SetCarFloor(1)
	if res := te.submit(t, elevrider.Rider{ID: "d", Weight: 50, From: 3, To: 5}); res != elevledger.DirectLoaded {
		t.Fatalf("Expected %v, got %v", elevledger.DirectLoaded, res)
	}

	te.runPasses(t, 1)

	expected := []string{
		"Current floor: 3",
		"Current floor: 4",
		"Current floor: 5",
		"Doors opened",
		"Person out: w=50 from=3 to=5",
		"Doors closed",
	}
	messages := te.recorder.Messages()
	if len(messages) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, messages)
	}
	for i := range expected {
		if messages[i] != expected[i] {
			t.Errorf("Event %d = %q, expected %q", i, messages[i], expected[i])
		}
	}
	if te.ledger.CarWeight() != 0 {
		t.Errorf("Expected empty car, got %d kg", te.ledger.CarWeight())
	}
}

func TestMultiStopUpwardLeg(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	te.submit(t, elevrider.Rider{ID: "a", Weight: 60, From: 3, To: 2})
	te.submit(t, elevrider.Rider{ID: "b", Weight: 60, From: 6, To: 5})

	te.runPasses(t, 1)

	// up: 3 then 6, down: 5 then 2
	floors := doorFloors(te.recorder.Events())
	if !equalInts(floors, []int{3, 6, 5, 2}) {
		t.Errorf("Expected doors at [3 6 5 2], got %v", floors)
	}
	if te.ledger.AnyStopNeeded() {
		t.Errorf("Expected every request to be served in one pass")
	}
	if te.ledger.CarFloor() != 1 {
		t.Errorf("Expected car to end at floor 2, got %d", te.ledger.CarFloor()+1)
	}
}

func TestIntermediateFloorServedOnTheWay(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	te.ledger.SetCarFloor(8)
	te.submit(t, elevrider.Rider{ID: "low", Weight: 60, From: 2, To: 1})
	te.submit(t, elevrider.Rider{ID: "mid", Weight: 60, From: 5, To: 3})

	te.runPasses(t, 1)

	floors := doorFloors(te.recorder.Events())
	if !equalInts(floors, []int{5, 3, 2, 1}) {
		t.Errorf("Expected doors at [5 3 2 1], got %v", floors)
	}
}

func TestRequestAtCarFloor(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	te.ledger.SetCarFloor(3)
	if res := te.submit(t, elevrider.Rider{ID: "here", Weight: 60, From: 4, To: 6}); res != elevledger.Queued {
		t.Fatalf("Expected %v, got %v", elevledger.Queued, res)
	}

	te.runPasses(t, 1)

	expected := []string{
		"Doors opened",
		"Person in: w=60 from=4 to=6",
		"Doors closed",
		"Current floor: 5",
		"Current floor: 6",
		"Doors opened",
		"Person out: w=60 from=4 to=6",
		"Doors closed",
	}
	messages := te.recorder.Messages()
	if len(messages) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, messages)
	}
	for i := range expected {
		if messages[i] != expected[i] {
			t.Errorf("Event %d = %q, expected %q", i, messages[i], expected[i])
		}
	}
}

func TestRiderBehindCarWaitsForDownwardLeg(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	te.ledger.SetCarFloor(4)
	te.submit(t, elevrider.Rider{ID: "up", Weight: 60, From: 2, To: 8})

	te.runPasses(t, 1)

	// picked up on the downward leg, the trip up waits for the next pass
	floors := doorFloors(te.recorder.Events())
	if !equalInts(floors, []int{2}) {
		t.Errorf("Expected doors only at [2] in first pass, got %v", floors)
	}
	if !te.ledger.StopNeeded(7) {
		t.Errorf("Expected floor 8 to still need a stop")
	}

	te.recorder.Reset()
	te.runPasses(t, 1)

	floors = doorFloors(te.recorder.Events())
	if !equalInts(floors, []int{8}) {
		t.Errorf("Expected doors at [8] in second pass, got %v", floors)
	}
	if te.ledger.CarWeight() != 0 {
		t.Errorf("Expected empty car, got %d kg", te.ledger.CarWeight())
	}
}

func TestCapacityBlockedRiderBoardsLater(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, TEST_FLOOR_INTERVAL)
	defer wg.Wait()
	defer cancel()

	aboard := elevrider.Rider{ID: "aboard", Weight: 150, From: 2, To: 8}
	if res := te.submit(t, aboard); res != elevledger.DirectLoaded {
		t.Fatalf("Expected %v, got %v", elevledger.DirectLoaded, res)
	}
	rider1 := elevrider.Rider{ID: "r1", Weight: 100, From: 5, To: 7}
	rider2 := elevrider.Rider{ID: "r2", Weight: 150, From: 5, To: 9}
	te.submit(t, rider1)
	te.submit(t, rider2)

	te.runPasses(t, 1)

	// up: 5 (r1 in, r2 blocked), 7, 8; down: back to 5 for r2
	floors := doorFloors(te.recorder.Events())
	if !equalInts(floors, []int{5, 7, 8, 5}) {
		t.Errorf("Expected doors at [5 7 8 5], got %v", floors)
	}

	var boarded []string
	for _, event := range te.recorder.Events() {
		if ev, ok := event.Value.(elevevent.PersonInEvent); ok {
			boarded = append(boarded, ev.Rider.ID)
		}
	}
	if len(boarded) != 2 || boarded[0] != "r1" || boarded[1] != "r2" {
		t.Errorf("Expected r1 then r2 to board, got %v", boarded)
	}
	if te.ledger.CarWeight() != rider2.Weight {
		t.Errorf("Expected %d kg aboard, got %d", rider2.Weight, te.ledger.CarWeight())
	}

	te.runPasses(t, 1)
	if te.ledger.AnyStopNeeded() || te.ledger.CarWeight() != 0 {
		t.Errorf("Expected r2 delivered on the next pass, weight %d", te.ledger.CarWeight())
	}
	te.checkWeight(t)
}

func TestInterruptedPassKeepsLedgerConsistent(t *testing.T) {
	te, cancel, wg := newTestElevator(t, 9, 300, time.Hour)

	rider := elevrider.Rider{ID: "far", Weight: 80, From: 9, To: 1}
	te.submit(t, rider)
	te.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.RunPassCommand{ID: "long"}}

	deadline := time.Now().Add(TEST_TIMEOUT)
	for te.state.Behaviour() != elevconsts.Moving && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if te.state.Dirn() != elevconsts.Up {
		t.Errorf("Expected direction %v while heading to floor 9, got %v", elevconsts.Up, te.state.Dirn())
	}

	cancel()
	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(TEST_TIMEOUT):
		t.Fatalf("Expected worker to stop while pausing between floors")
	}

	snap, err := te.ledger.Snapshot()
	if err != nil {
		t.Fatalf("Expected error to be nil, got %v", err)
	}
	if snap.Weight != 0 {
		t.Errorf("Expected weight 0, got %d", snap.Weight)
	}
	if pickup := snap.Floor(9).Pickup; len(pickup) != 1 || pickup[0] != rider {
		t.Errorf("Expected rider still waiting at floor 9, got %v", pickup)
	}
	if te.state.PassesRun() != 1 {
		t.Errorf("Expected interrupted pass to be counted, got %d", te.state.PassesRun())
	}
}

// Random traffic from several goroutines. Every rider must be delivered once,
// boarding before leaving, and the car must never be overloaded.
func TestRandomTrafficDelivery(t *testing.T) {
	numFloors, capacity := 9, 300
	te, cancel, wg := newTestElevator(t, numFloors, capacity, 0)
	defer wg.Wait()
	defer cancel()

	var mtx sync.Mutex
	results := map[string]elevledger.SubmitResult{}

	var producers sync.WaitGroup
	for p := 0; p < 4; p++ {
		producers.Add(1)
		go func(p int) {
			defer producers.Done()
			gen := elevrider.NewGenerator(numFloors, elevconsts.MIN_PERSON_WEIGHT, elevconsts.MAX_PERSON_WEIGHT, int64(p))
			for i := 0; i < 50; i++ {
				rider := gen.Next()
				rider.ID = fmt.Sprintf("p%d-%02d", p, i)
				res, err := te.ledger.Submit(rider)
				if err != nil {
					t.Errorf("Expected error to be nil, got %v", err)
				}
				mtx.Lock()
				results[rider.ID] = res
				mtx.Unlock()
				te.commandChannel <- elevcmd.ElevatorCommand{Value: elevcmd.RunPassCommand{ID: rider.ID}}
			}
		}(p)
	}
	producers.Wait()
	te.sync(t)

	for i := 0; i < 100 && te.ledger.AnyStopNeeded(); i++ {
		te.runPasses(t, 1)
	}
	if te.ledger.AnyStopNeeded() {
		t.Fatalf("Expected all requests served after extra passes")
	}
	if te.ledger.CarWeight() != 0 {
		t.Errorf("Expected empty car at the end, got %d kg", te.ledger.CarWeight())
	}
	te.checkWeight(t)

	ins := map[string]int{}
	outs := map[string]int{}
	inIndex := map[string]int{}
	outIndex := map[string]int{}
	for i, event := range te.recorder.Events() {
		switch ev := event.Value.(type) {
		case elevevent.PersonInEvent:
			ins[ev.Rider.ID]++
			inIndex[ev.Rider.ID] = i
			if ev.Floor != ev.Rider.From {
				t.Errorf("Rider %s boarded at floor %d, expected %d", ev.Rider.ID, ev.Floor, ev.Rider.From)
			}
		case elevevent.PersonOutEvent:
			outs[ev.Rider.ID]++
			outIndex[ev.Rider.ID] = i
			if ev.Floor != ev.Rider.To {
				t.Errorf("Rider %s left at floor %d, expected %d", ev.Rider.ID, ev.Floor, ev.Rider.To)
			}
		}
	}

	for id, res := range results {
		if outs[id] != 1 {
			t.Errorf("Rider %s left %d times, expected once", id, outs[id])
		}
		switch res {
		case elevledger.DirectLoaded:
			if ins[id] != 0 {
				t.Errorf("Direct-loaded rider %s has %d person in events", id, ins[id])
			}
		case elevledger.Queued:
			if ins[id] != 1 {
				t.Errorf("Rider %s boarded %d times, expected once", id, ins[id])
			} else if inIndex[id] >= outIndex[id] {
				t.Errorf("Rider %s left before boarding", id)
			}
		}
	}
}
