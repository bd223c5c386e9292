//go:build !linux && !darwin

package coreloop

// newDefaultReactor falls back to a sleep-only reactor on platforms
// without a native epoll/kqueue binding wired in (see DESIGN.md: no
// IOCP-capable dependency appears anywhere in the example pack this
// codebase draws from). schedule is accepted for interface symmetry with
// the epoll/kqueue constructors but unused, since this reactor never
// services I/O registration.
func newDefaultReactor(schedule func(Task) error) (Reactor, error) {
	_ = schedule
	return NewSleepOnlyReactor(), nil
}
