// Package trace turns resumed simulation steps into output.
package trace

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/Quuxplusone/KnuthElevator/fsm"
)

func flag(b bool) byte {
	if b {
		return 'X'
	}
	return '0'
}

// Format renders a record as "time direction floor loading active idle task",
// e.g. "0529 N 4 X X 0 U5".
func Format(r fsm.Record) string {
	return fmt.Sprintf("%04d %c %d %c %c %c %s",
		int(r.Time), r.Direction.Letter(), r.Floor,
		flag(r.Loading), flag(r.RecentlyActive), flag(r.IdleOpen), r.Task)
}

// TextTracer writes one formatted line per resumed step. The first write
// error is kept and later lines are dropped.
type TextTracer struct {
	w   io.Writer
	err error
}

func NewTextTracer(w io.Writer) *TextTracer {
	return &TextTracer{w: w}
}

func (t *TextTracer) Resumed(r fsm.Record) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.w, Format(r))
}

func (t *TextTracer) Err() error {
	return t.err
}

// LogTracer sends each step to a zerolog logger at debug level.
type LogTracer struct {
	log *zerolog.Logger
}

func NewLogTracer(log *zerolog.Logger) *LogTracer {
	return &LogTracer{log: log}
}

func (t *LogTracer) Resumed(r fsm.Record) {
	t.log.Debug().
		Int("time", int(r.Time)).
		Str("direction", r.Direction.String()).
		Int("floor", r.Floor).
		Bool("loading", r.Loading).
		Bool("active", r.RecentlyActive).
		Bool("idleOpen", r.IdleOpen).
		Str("task", r.Task).
		Msg("Resumed")
}

// Recorder keeps every record in memory.
type Recorder struct {
	Records []fsm.Record
}

func (r *Recorder) Resumed(rec fsm.Record) {
	r.Records = append(r.Records, rec)
}

func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Records))
	for i, rec := range r.Records {
		lines[i] = Format(rec)
	}
	return lines
}

// Multi fans a record out to several observers in order.
type Multi []fsm.Observer

func (m Multi) Resumed(r fsm.Record) {
	for _, o := range m {
		o.Resumed(r)
	}
}
