package elevledger

import (
	"fmt"

	"github.com/heislab/elevsim/internal/elevrider"

	"github.com/tiendc/go-deepcopy"
)

type FloorSnapshot struct {
	Number     int // 1-based
	Pickup     []elevrider.Rider
	Dropoff    []elevrider.Rider
	StopNeeded bool
}

// Snapshot is a detached copy of the ledger, safe to keep and inspect.
type Snapshot struct {
	CarFloor int // 1-based
	Weight   int
	Capacity int
	Floors   []FloorSnapshot
}

func (s Snapshot) Floor(number int) FloorSnapshot {
	if number < 1 || number > len(s.Floors) {
		return FloorSnapshot{Number: number}
	}
	return s.Floors[number-1]
}

func (l *Ledger) Snapshot() (Snapshot, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	view := Snapshot{
		CarFloor: l.carFloor + 1,
		Weight:   l.weight,
		Capacity: l.capacity,
		Floors:   make([]FloorSnapshot, len(l.floors)),
	}
	for f := range l.floors {
		view.Floors[f] = FloorSnapshot{
			Number:     f + 1,
			Pickup:     l.floors[f].pickup,
			Dropoff:    l.floors[f].dropoff,
			StopNeeded: l.floors[f].stopNeeded,
		}
	}

	// view still aliases the queues, hand out a deep copy
	var out Snapshot
	if err := deepcopy.Copy(&out, &view); err != nil {
		return Snapshot{}, fmt.Errorf("error copying ledger snapshot: %w", err)
	}
	return out, nil
}
