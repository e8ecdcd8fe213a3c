package elevlog

import (
	"fmt"
	"io"
	"sync"

	"github.com/heislab/elevsim/internal/elevevent"

	"github.com/rs/zerolog"
)

// ISO local time, trailing zeros of the fraction are dropped.
const TIME_FORMAT = "15:04:05.999999999"

const eventTypeField = "event"

// Writer prints every event as "<ISO local time> <message>".
type Writer struct {
	mtx sync.Mutex
	log zerolog.Logger
}

func NewWriter(out io.Writer) *Writer {
	// The timestamp is written preformatted, so the global
	// zerolog.TimeFieldFormat never truncates it.
	output := zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         true,
		PartsOrder:      []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FieldsExclude:   []string{eventTypeField},
		FormatTimestamp: func(i interface{}) string { return fmt.Sprint(i) },
	}

	// Events are not diagnostics, they print at every diagnostic level.
	return &Writer{log: zerolog.New(output).Level(zerolog.TraceLevel)}
}

func (w *Writer) Emit(event elevevent.ElevatorEvent) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.log.Log().
		Str(zerolog.TimestampFieldName, event.Time.Local().Format(TIME_FORMAT)).
		Str(eventTypeField, event.EventType()).
		Msg(event.Message())
}
