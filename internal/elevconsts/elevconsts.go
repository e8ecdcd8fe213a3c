package elevconsts

import "time"

// Defaults for a simulator instance. Everything here can be overridden
// through elevconfig before the elevator is constructed.
const (
	N_FLOORS          = 9
	MAX_WEIGHT        = 300 // kg
	MIN_PERSON_WEIGHT = 40  // kg
	MAX_PERSON_WEIGHT = 140 // kg
	FLOOR_INTERVAL    = 1000 * time.Millisecond
	SPAWN_INTERVAL    = 1500 * time.Millisecond
	PASS_QUEUE_SIZE   = 64
)

type Dirn int

func (d Dirn) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Stop:
		return "Stop"
	default:
		return "Undefined"
	}
}

const (
	Down Dirn = -1
	Stop Dirn = 0
	Up   Dirn = 1
)

type ElevatorBehaviour int

const (
	Idle ElevatorBehaviour = iota // 0
	ScanningUp
	Moving
	DoorsOpen
	ScanningDown
)

func (eb ElevatorBehaviour) String() string {
	switch eb {
	case Idle:
		return "EB_Idle"
	case ScanningUp:
		return "EB_ScanningUp"
	case Moving:
		return "EB_Moving"
	case DoorsOpen:
		return "EB_DoorsOpen"
	case ScanningDown:
		return "EB_ScanningDown"
	default:
		return "EB_UNDEFINED"
	}
}
