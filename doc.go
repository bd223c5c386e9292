// Package coreloop implements the core of a cooperative, single-threaded
// event loop for memory-constrained and embedded-class environments: a
// three-queue time/priority scheduler driving user-supplied resumable
// [Task] values forward by calling them back at appointed times.
//
// # Architecture
//
// An [EventLoop] owns three queues: a normal-priority timed queue (NQ) and
// a low-priority timed queue (LPQ), both fixed-capacity min-heaps ordered
// by a wraparound-aware [Clock], and a high-priority slot table (HPQ) of
// zero-or-more predicates evaluated on every selection pass while NQ is
// non-empty (with NQ empty, only LPQ and the reactor are consulted). [EventLoop.RunForever]
// repeatedly selects the next runnable entry - HPQ predicate, then
// LPQ-overdue fairness override, then NQ due, then LPQ due - dispatches
// it, and interprets the [Directive] it yields to decide how (or whether)
// to re-enqueue it.
//
// # Suspension directives
//
// A [Task] either completes on a given [Task.Resume] call, or yields one
// [Directive]: [SleepMs]/[Sleep] and [AfterMs]/[After] for timed
// re-enqueue, [When] for HPQ registration, [IORead]/[IOWrite] and their
// *Done counterparts for reactor I/O registration, [StopLoop] to terminate
// [EventLoop.RunForever], or [NestedTask] to schedule another task. [Go]
// adapts an ordinary blocking Go function into a [Task] by running it on
// its own goroutine and synchronizing each suspension point through a
// channel pair, for callers without a natural state machine to hand the
// loop directly.
//
// # Reactor boundary
//
// I/O readiness is the job of a [Reactor], not the loop itself. The
// default reactors use epoll on Linux and kqueue on Darwin; elsewhere a
// sleep-only reactor ([NewSleepOnlyReactor]) is used, which can wait but
// cannot service I/O registration. [WithReactor] replaces the default
// with any other [Reactor].
//
// # Allocation discipline
//
// NQ and LPQ are fixed-capacity; pushing past capacity fails with
// [QueueFull] rather than growing. The HPQ reuses empty slots before
// appending a new one. Together these mean a steady-state run, with a
// constant task population and no I/O registration churn, never
// allocates on the dispatch hot path after warmup.
//
// # Usage
//
//	loop, err := coreloop.NewWithCapacities(64, 16)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer loop.Close()
//
//	task := coreloop.Go(func(ctx context.Context, y coreloop.Yielder, _ any) error {
//		y.Yield(coreloop.SleepMs(10))
//		y.Yield(coreloop.StopLoop(42))
//		return nil
//	})
//
//	if err := loop.CreateTask(task); err != nil {
//		log.Fatal(err)
//	}
//	result, err := loop.RunForever()
package coreloop
