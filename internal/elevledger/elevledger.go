package elevledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/heislab/elevsim/internal/elevrider"
)

var ErrFloorOutOfRange = errors.New("floor out of range")

type SubmitResult int

const (
	Discarded SubmitResult = iota
	Queued
	DirectLoaded
)

func (sr SubmitResult) String() string {
	switch sr {
	case Discarded:
		return "Discarded"
	case Queued:
		return "Queued"
	case DirectLoaded:
		return "DirectLoaded"
	default:
		return "Undefined"
	}
}

type floor struct {
	pickup     []elevrider.Rider // waiting here, FIFO
	dropoff    []elevrider.Rider // aboard, leaving here, FIFO
	stopNeeded bool
}

// Ledger holds the pending requests of every floor together with the car.
// One mutex guards all of it; every method is a single atomic step.
type Ledger struct {
	mtx      sync.Mutex
	floors   []floor
	carFloor int // 0-based
	weight   int
	capacity int
}

func New(numFloors, capacity int) *Ledger {
	return &Ledger{
		floors:   make([]floor, numFloors),
		capacity: capacity,
	}
}

// Submit registers a call. The rider's weight is not range checked.
func (l *Ledger) Submit(r elevrider.Rider) (SubmitResult, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if !l.validFloor(r.From-1) || !l.validFloor(r.To-1) {
		return Discarded, fmt.Errorf("%w: rider %v in a %d floor building", ErrFloorOutOfRange, r, len(l.floors))
	}
	if !r.Dispatchable() {
		return Discarded, nil
	}

	// Literal adjacency check: the car must sit exactly one floor below
	// the origin (1-based car floor == From-1).
	if l.carFloor+1 == r.From-1 && l.weight+r.Weight <= l.capacity {
		l.weight += r.Weight
		dest := &l.floors[r.To-1]
		dest.dropoff = append(dest.dropoff, r)
		dest.stopNeeded = true
		return DirectLoaded, nil
	}

	origin := &l.floors[r.From-1]
	origin.pickup = append(origin.pickup, r)
	origin.stopNeeded = true
	return Queued, nil
}

// Service is the outcome of one doors-open cycle.
type Service struct {
	Out     []elevrider.Rider
	In      []elevrider.Rider
	Blocked bool // pickups left behind because of the weight limit
}

// ServeFloor unloads everybody travelling to f, then boards waiting riders
// in order until the next one would overload the car.
func (l *Ledger) ServeFloor(f int) Service {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	var s Service
	if !l.validFloor(f) {
		return s
	}
	fl := &l.floors[f]

	for len(fl.dropoff) > 0 {
		r := fl.dropoff[0]
		fl.dropoff = fl.dropoff[1:]
		l.weight -= r.Weight
		s.Out = append(s.Out, r)
	}
	fl.dropoff = nil

	for len(fl.pickup) > 0 && l.weight+fl.pickup[0].Weight <= l.capacity {
		r := fl.pickup[0]
		fl.pickup = fl.pickup[1:]
		l.weight += r.Weight
		dest := &l.floors[r.To-1]
		dest.dropoff = append(dest.dropoff, r)
		dest.stopNeeded = true
		s.In = append(s.In, r)
	}

	if len(fl.pickup) == 0 {
		fl.pickup = nil
		fl.stopNeeded = false
	} else {
		s.Blocked = true
	}
	return s
}

// NextStopUp returns the first floor at or above from (strictly above
// when inclusive is false) that needs a stop.
func (l *Ledger) NextStopUp(from int, inclusive bool) (int, bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	start := from
	if !inclusive {
		start++
	}
	for f := max(start, 0); f < len(l.floors); f++ {
		if l.floors[f].stopNeeded {
			return f, true
		}
	}
	return from, false
}

// NextStopDown is NextStopUp scanning towards floor 0.
func (l *Ledger) NextStopDown(from int, inclusive bool) (int, bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	start := from
	if !inclusive {
		start--
	}
	for f := min(start, len(l.floors)-1); f >= 0; f-- {
		if l.floors[f].stopNeeded {
			return f, true
		}
	}
	return from, false
}

func (l *Ledger) StopNeeded(f int) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.validFloor(f) && l.floors[f].stopNeeded
}

func (l *Ledger) AnyStopNeeded() bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	for f := range l.floors {
		if l.floors[f].stopNeeded {
			return true
		}
	}
	return false
}

func (l *Ledger) CarFloor() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.carFloor
}

func (l *Ledger) SetCarFloor(f int) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.validFloor(f) {
		l.carFloor = f
	}
}

func (l *Ledger) CarWeight() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.weight
}

func (l *Ledger) Capacity() int {
	return l.capacity
}

func (l *Ledger) NumFloors() int {
	return len(l.floors)
}

func (l *Ledger) validFloor(f int) bool {
	return f >= 0 && f < len(l.floors)
}
