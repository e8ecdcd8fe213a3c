package elevstate

import (
	"context"

	"github.com/heislab/elevsim/internal/elevconsts"
)

// runPass is one upward leg followed by one downward leg. Whatever is left
// behind the car afterwards waits for the next pass.
func (es *ElevatorState) runPass(ctx context.Context, id string) {
	Log.Debug().Msgf("Pass %s started at floor %d", id, es.ledger.CarFloor()+1)

	servedHere, err := es.runLeg(ctx, elevconsts.Up, false)
	if err == nil {
		_, err = es.runLeg(ctx, elevconsts.Down, servedHere)
	}
	if err != nil {
		Log.Warn().Msgf("Pass %s interrupted at floor %d: %v", id, es.ledger.CarFloor()+1, err)
	} else {
		Log.Debug().Msgf("Pass %s finished at floor %d", id, es.ledger.CarFloor()+1)
	}

	es.mtx.Lock()
	es.passesRun++
	es.mtx.Unlock()
	es.setBehaviour(elevconsts.Idle, elevconsts.Stop)
}

// runLeg keeps travelling in dirn while flagged floors lie ahead. The first
// scan includes the car's floor unless the doors were just cycled there;
// after every stop the scan starts strictly beyond the car.
func (es *ElevatorState) runLeg(ctx context.Context, dirn elevconsts.Dirn, servedHere bool) (bool, error) {
	scanning := elevconsts.ScanningUp
	if dirn == elevconsts.Down {
		scanning = elevconsts.ScanningDown
	}

	for {
		es.setBehaviour(scanning, dirn)
		target, found := es.nextStop(dirn, !servedHere)
		if !found {
			return servedHere, nil
		}
		if err := es.moveTo(ctx, target, dirn); err != nil {
			return false, err
		}
		servedHere = true
	}
}

func (es *ElevatorState) nextStop(dirn elevconsts.Dirn, inclusive bool) (int, bool) {
	from := es.ledger.CarFloor()
	switch dirn {
	case elevconsts.Up:
		return es.ledger.NextStopUp(from, inclusive)
	case elevconsts.Down:
		return es.ledger.NextStopDown(from, inclusive)
	}
	return from, false
}
