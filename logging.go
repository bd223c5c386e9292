package coreloop

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// newDiscardLogger returns a logiface logger over the stumpy backend
// whose writer drops every event, used whenever a caller does not supply one via
// WithLogger. Log call sites stay valid and cheap (logiface skips
// building an event when the level isn't enabled) rather than needing a
// nil check at every call site.
func newDiscardLogger() *logiface.Logger[*stumpy.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](func(*stumpy.Event) error {
			return nil
		})),
	)
}

// NewJSONLogger returns a logiface logger over the stumpy backend,
// writing newline-delimited JSON events to w. Use it with WithLogger to
// observe scheduling, dispatch, and reactor activity.
func NewJSONLogger(w io.Writer) *logiface.Logger[*stumpy.Event] {
	return stumpy.L.New(stumpy.L.WithStumpy(), stumpy.L.WithWriter(stumpyWriter{w}))
}

// stumpyWriter adapts an io.Writer to logiface.WriterFunc semantics by
// writing each event's already-encoded bytes, followed by a newline.
type stumpyWriter struct{ w io.Writer }

func (s stumpyWriter) Write(e *stumpy.Event) error {
	if _, err := s.w.Write(e.Bytes()); err != nil {
		return err
	}
	_, err := s.w.Write([]byte("\n"))
	return err
}

// logSchedule records a normal/low-priority re-enqueue.
func logSchedule(l *logiface.Logger[*stumpy.Event], queue string, when uint64, delayMs int64) {
	l.Debug().
		Str(`queue`, queue).
		Int64(`when_ms`, int64(when)).
		Int64(`delay_ms`, delayMs).
		Log(`scheduled`)
}

// logDispatch records a selected entry about to run.
func logDispatch(l *logiface.Logger[*stumpy.Event], source string) {
	l.Debug().Str(`source`, source).Log(`dispatch`)
}

// logOverdue records an LPQ-overdue fairness override firing.
func logOverdue(l *logiface.Logger[*stumpy.Event], overdueMs, thresholdMs int64) {
	l.Info().
		Int64(`overdue_ms`, overdueMs).
		Int64(`threshold_ms`, thresholdMs).
		Log(`lpq overdue override`)
}

// logTaskError records a task's uncaught failure; per the error handling
// policy, this never propagates past the loop.
func logTaskError(l *logiface.Logger[*stumpy.Event], err error) {
	l.Err().Err(err).Log(`task error`)
}

// logReactorIO records an I/O registration/deregistration.
func logReactorIO(l *logiface.Logger[*stumpy.Event], op string, handle IOHandle) {
	l.Debug().Str(`op`, op).Int64(`handle`, int64(handle)).Log(`reactor io`)
}

// logReactorWaitError records a failing reactor.Wait; per spec.md §7 this
// is treated as an early return, not a fatal loop error, so selectEntry
// logs and retries rather than propagating it.
func logReactorWaitError(l *logiface.Logger[*stumpy.Event], err error) {
	l.Warning().Err(err).Log(`reactor wait failed`)
}
