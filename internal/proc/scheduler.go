package proc

import "github.com/setl2-lang/setl2vm/internal/vmerr"

// DefaultOpcodeCountdown is the default number of opcodes between
// scheduler checkpoints (spec §4.8: "every n opcodes (default 200,
// tunable)").
const DefaultOpcodeCountdown = 200

// Scheduler owns the process ring and the cooperative-switch bookkeeping
// of spec §4.8.
type Scheduler struct {
	Root    *Process
	Current *Process

	// Countdown ticks down once per opcode (Tick); at zero, if
	// CriticalSection is zero, a switch is attempted (spec §4.8).
	Countdown     int
	OpcodeBudget  int
	CriticalSection int
}

// NewScheduler creates a scheduler whose only process is the given root.
func NewScheduler(root *Process, opcodeBudget int) *Scheduler {
	if opcodeBudget <= 0 {
		opcodeBudget = DefaultOpcodeCountdown
	}
	return &Scheduler{Root: root, Current: root, Countdown: opcodeBudget, OpcodeBudget: opcodeBudget}
}

// EnterCritical inhibits preemption, used around the closure-environment
// swap and object self-load/unload (spec §5: "Closure environment swaps
// and object self-load/unload run in a critical section").
func (s *Scheduler) EnterCritical() { s.CriticalSection++ }

// ExitCritical re-enables preemption once the matching critical section ends.
func (s *Scheduler) ExitCritical() { s.CriticalSection-- }

// Tick decrements the opcode countdown, reporting whether a switch should
// now be attempted (spec §4.8: "Before dispatch ... decrements a scheduler
// countdown and switches processes if it reaches zero").
func (s *Scheduler) Tick() bool {
	s.Countdown--
	if s.Countdown > 0 {
		return false
	}
	s.Countdown = s.OpcodeBudget
	return s.CriticalSection == 0
}

// PollWaiters re-evaluates every waiting/checking process's predicate,
// unblocking those that are now satisfied (spec §4.8 scheduling policy:
// "consulted via a blocking predicate ... if the predicate now returns a
// value, the process is unblocked").
func (s *Scheduler) PollWaiters() {
	p := s.Root
	for {
		if (p.Waiting || p.Checking) && p.Wait != nil {
			if v, ok := p.Wait(); ok {
				if p.WaitTarget != nil {
					*p.WaitTarget = v
				}
				p.Waiting = false
				p.Checking = false
				p.Wait = nil
				p.WaitTarget = nil
			}
		}
		p = p.next
		if p == s.Root {
			break
		}
	}
}

// SelectNext scans the ring starting after the current process for the
// next runnable one (spec §4.8 scheduling policy). It returns a deadlock
// error if none is runnable and the current process cannot itself
// continue.
func (s *Scheduler) SelectNext() (*Process, error) {
	s.PollWaiters()

	start := s.Current
	p := start.next
	for p != start {
		if p.Runnable() {
			return p, nil
		}
		p = p.next
	}
	if start.Runnable() {
		return start, nil
	}
	return nil, vmerr.Schedulerf("deadlock: no runnable process in the ring")
}

// Switch moves Current to next, returning the process being left so the
// caller (internal/vm) can perform the save/restore of spec §4.8's
// context-switch steps 1-4 around this call.
func (s *Scheduler) Switch(next *Process) *Process {
	prev := s.Current
	s.Current = next
	return prev
}
