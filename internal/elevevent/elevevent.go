package elevevent

import (
	"fmt"
	"sync"
	"time"

	"github.com/heislab/elevsim/internal/elevrider"
)

type ElevatorEvent struct {
	Time time.Time

	//Golang doesnt support union types,
	//so we have to pass any of the below
	//structs
	Value any
}

type CallReceivedEvent struct {
	Rider elevrider.Rider
}

type CurrentFloorEvent struct {
	Floor int // 1-based
}

type DoorsOpenedEvent struct {
	Floor int
}

type PersonOutEvent struct {
	Floor int
	Rider elevrider.Rider
}

type PersonInEvent struct {
	Floor int
	Rider elevrider.Rider
}

type DoorsClosedEvent struct {
	Floor int
}

// Wrap stamps v with the current time.
func Wrap(v any) ElevatorEvent {
	return ElevatorEvent{Time: time.Now(), Value: v}
}

func (e *ElevatorEvent) EventType() string {
	switch e.Value.(type) {
	case CallReceivedEvent:
		return "CallReceivedEvent"
	case CurrentFloorEvent:
		return "CurrentFloorEvent"
	case DoorsOpenedEvent:
		return "DoorsOpenedEvent"
	case PersonOutEvent:
		return "PersonOutEvent"
	case PersonInEvent:
		return "PersonInEvent"
	case DoorsClosedEvent:
		return "DoorsClosedEvent"
	default:
		return "UnknownEvent"
	}
}

// Message is the human readable log line for the event, without timestamp.
func (e *ElevatorEvent) Message() string {
	switch ev := e.Value.(type) {
	case CallReceivedEvent:
		return fmt.Sprintf("Person with weight %d called the elevator from floor %d to %d", ev.Rider.Weight, ev.Rider.From, ev.Rider.To)
	case CurrentFloorEvent:
		return fmt.Sprintf("Current floor: %d", ev.Floor)
	case DoorsOpenedEvent:
		return "Doors opened"
	case PersonOutEvent:
		return "Person out: " + ev.Rider.String()
	case PersonInEvent:
		return "Person in: " + ev.Rider.String()
	case DoorsClosedEvent:
		return "Doors closed"
	default:
		return fmt.Sprintf("Unknown event %v", ev)
	}
}

// Sink receives every event the elevator produces. Call-received events
// arrive on the submitting goroutine and movement events on the worker,
// so implementations must be safe for concurrent use.
type Sink interface {
	Emit(event ElevatorEvent)
}

type SinkFunc func(event ElevatorEvent)

func (f SinkFunc) Emit(event ElevatorEvent) { f(event) }

type multiSink []Sink

func (m multiSink) Emit(event ElevatorEvent) {
	for _, s := range m {
		s.Emit(event)
	}
}

// MultiSink fans an event out to every non-nil sink.
func MultiSink(sinks ...Sink) Sink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mtx    sync.Mutex
	events []ElevatorEvent
}

func (r *Recorder) Emit(event ElevatorEvent) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []ElevatorEvent {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	out := make([]ElevatorEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Messages() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i := range events {
		out[i] = events[i].Message()
	}
	return out
}

func (r *Recorder) Reset() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = nil
}
