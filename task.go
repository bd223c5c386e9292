package coreloop

import (
	"context"
	"fmt"
)

// Task is a resumable computation: the statically-typed stand-in for the
// source's generator-based coroutines. Each call to Resume either
// completes the task (done == true) or yields exactly one Directive
// telling the loop how to re-schedule it.
//
// The first Resume of a task's lifetime is called with in == nil ("advance
// from the start"). The loop resumes a task with the args stored in its
// queue entry, and it stores none for tasks, so every resume the loop
// makes passes nil; a caller driving a Task directly may pass any value.
type Task interface {
	Resume(in any) (d Directive, done bool, err error)
}

// Func is a plain callback: it runs to completion synchronously when
// dispatched and is never re-enqueued, matching spec.md's Callable entity.
type Func func(args any)

// TaskFunc adapts a single-shot function into a Task that completes (with
// no directive) on its first Resume. It exists for callers who want
// CreateTask-style registration for what is really a one-shot callback
// that still wants to run through the Task path (e.g. to observe the
// value delivered to Resume).
type TaskFunc func(in any) error

// Resume implements Task: a TaskFunc always completes on first resume.
func (f TaskFunc) Resume(in any) (Directive, bool, error) {
	return Directive{}, true, f(in)
}

// resumeStep is how Go hands an in-value to a goroutine-backed Task and
// gets back its next yield or completion.
type resumeStep struct {
	d    Directive
	done bool
	err  error
}

// goTask adapts an ordinary blocking Go function into a Task by running it
// on its own goroutine and synchronizing each suspension point through a
// pair of channels. This is the goroutine+channel bridge spec.md §9 calls
// for where a native stackless-coroutine primitive isn't available: the
// function body reads like straight-line Go, and calls Yield at each point
// it would otherwise have yielded a directive.
//
// The shape mirrors the teacher's Promisify: a task body runs on its own
// goroutine, and every handoff back to the loop goroutine goes through a
// channel rather than shared mutable state.
type goTask struct {
	resumeIn  chan any
	resumeOut chan resumeStep
	started   bool
}

// Yielder is handed to a Go-backed task body so it can suspend.
type Yielder interface {
	// Yield suspends the task with directive d and returns the value
	// delivered on the next Resume.
	Yield(d Directive) any
}

type yielderImpl struct {
	out chan<- resumeStep
	in  <-chan any
}

func (y *yielderImpl) Yield(d Directive) any {
	y.out <- resumeStep{d: d}
	return <-y.in
}

// Go starts fn on its own goroutine and returns a Task driving it. fn
// receives the initial resume value and a Yielder it uses to suspend.
// Panics inside fn are recovered and reported as a TaskError, matching
// spec.md §7's "report and drop" policy for uncaught task failures.
func Go(fn func(ctx context.Context, y Yielder, initial any) error) Task {
	return GoContext(context.Background(), fn)
}

// GoContext is Go with an explicit parent context, canceled when the task
// completes (normally, with an error, or by panic), before the completing
// Resume returns.
func GoContext(ctx context.Context, fn func(ctx context.Context, y Yielder, initial any) error) Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &goTask{
		resumeIn:  make(chan any),
		resumeOut: make(chan resumeStep),
	}
	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				cancel()
				t.resumeOut <- resumeStep{done: true, err: &TaskError{Cause: fmt.Errorf("%v", r)}}
			}
		}()
		initial := <-t.resumeIn
		y := &yielderImpl{out: t.resumeOut, in: t.resumeIn}
		err := fn(ctx, y, initial)
		cancel()
		t.resumeOut <- resumeStep{done: true, err: err}
	}()
	return t
}

// Resume implements Task.
func (t *goTask) Resume(in any) (Directive, bool, error) {
	t.resumeIn <- in
	step := <-t.resumeOut
	return step.d, step.done, step.err
}
