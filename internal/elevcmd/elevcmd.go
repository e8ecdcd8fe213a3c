package elevcmd

type ElevatorCommand struct {
	//Golang doesnt support union types,
	//so we have to pass any of the below
	//structs
	Value any
}

// One upward leg followed by one downward leg.
type RunPassCommand struct {
	ID string
}

// Closes Done once every command queued before it has finished.
type SyncCommand struct {
	Done chan struct{}
}

func (e *ElevatorCommand) CommandType() string {
	switch e.Value.(type) {
	case RunPassCommand:
		return "RunPassCommand"
	case SyncCommand:
		return "SyncCommand"
	default:
		return "UnknownCommand"
	}
}
