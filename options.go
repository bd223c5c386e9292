package coreloop

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// loopOptions holds configuration resolved from a slice of LoopOption.
type loopOptions struct {
	maxOverdueMs int64
	hpqCapacity  int
	reactor      Reactor
	logger       *logiface.Logger[*stumpy.Event]
	clock        Clock
}

// LoopOption configures an EventLoop at construction time.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption by wrapping a closure, matching the
// functional-options shape used throughout this codebase.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithMaxOverdueMs sets the LPQ fairness threshold (spec.md §4.4 step 1b).
// A value of 0 disables the LPQ-overdue override entirely.
func WithMaxOverdueMs(ms int64) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.maxOverdueMs = ms
		return nil
	}}
}

// WithHPQCapacity pre-sizes the HPQ to at least n empty slots, equivalent
// to calling AllocateHPQ(n) immediately after construction.
func WithHPQCapacity(n int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.hpqCapacity = n
		return nil
	}}
}

// WithReactor overrides the default platform Reactor, e.g. with a test
// double or a Reactor backed by some other I/O multiplexer.
func WithReactor(r Reactor) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.reactor = r
		return nil
	}}
}

// WithLogger attaches a structured logger. When omitted, the loop logs to
// a discard-backed logger, so log call sites are always valid but cost
// nothing by default.
func WithLogger(logger *logiface.Logger[*stumpy.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithClock overrides the default SystemClock, primarily for deterministic
// tests that need to drive wraparound or timing precisely.
func WithClock(c Clock) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.clock = c
		return nil
	}}
}

// resolveLoopOptions applies a slice of LoopOption over the defaults.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		maxOverdueMs: 0,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
