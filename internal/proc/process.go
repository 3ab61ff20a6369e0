// Package proc implements the cooperative process scheduler of spec §4.8
// and §5: a ring of process records, FIFO per-process request queues,
// mailboxes, and wait/check blocking with deadlock detection. Exactly one
// process ever executes at a time; there are no goroutines or channels
// here, matching spec §5's "single-threaded cooperative multitasking" —
// deliberately unlike the teacher and its sibling examples, which all run
// real goroutine-based concurrency (see DESIGN.md).
package proc

import (
	"github.com/google/uuid"

	"github.com/setl2-lang/setl2vm/internal/value"
)

// Request is one enqueued call through a process object (spec §4.7 call
// step 2): the target procedure, a freshly allocated argument array (moved,
// not copied), and the mailbox to deliver the return value into, if the
// caller wanted one.
type Request struct {
	Proc    value.Specifier // FormProcedure
	Args    []value.Specifier
	Mailbox *Mailbox // nil if the caller discarded the return value
}

// WaitPredicate is the blocking predicate supplied by a wait/check
// built-in (spec §4.8: "consulted via a blocking predicate ... if the
// predicate now returns a value, the process is unblocked"). It returns a
// result specifier and whether the wait condition is now satisfied.
type WaitPredicate func() (value.Specifier, bool)

// Process is one ring record (spec §3 "Process record").
type Process struct {
	ID uuid.UUID

	next, prev *Process

	IsRoot bool

	Suspended bool
	Waiting   bool
	Checking  bool

	// Owner is the object this process is attached to (nil for root).
	// Declared as any for the same reason object.Object.Process is: proc
	// and object would otherwise import each other.
	Owner any

	requests []*Request

	// Wait is the pending blocking predicate while Waiting or Checking;
	// WaitTarget is where its eventual result specifier is installed
	// (spec §4.8 context switch step 6).
	Wait       WaitPredicate
	WaitTarget *value.Specifier

	// Saved interpreter state while this process is not the active one
	// (spec §4.8 context switch step 2). internal/vm owns the concrete
	// types; proc only needs to carry them across a switch.
	SavedPC      int
	SavedInst    any
	SavedClass   any
	ProgramStack []value.Specifier
	CallStack    []any
}

// NewRoot creates the singleton root process that starts out runnable
// (neither idle, waiting, nor suspended) holding the initial bytecode.
func NewRoot() *Process {
	p := &Process{ID: uuid.New(), IsRoot: true}
	p.next, p.prev = p, p
	return p
}

// Spawn creates a new process attached to owner and links it into the ring
// right after root, as idle (spec §4.9 initobj: "add it to the ring as
// idle").
func Spawn(root *Process, owner any) *Process {
	p := &Process{ID: uuid.New(), Owner: owner}
	insertAfter(root, p)
	return p
}

func insertAfter(at, p *Process) {
	p.next = at.next
	p.prev = at
	at.next.prev = p
	at.next = p
}

// Remove unlinks p from its ring. Used when a process terminates.
func (p *Process) Remove() {
	p.prev.next = p.next
	p.next.prev = p.prev
	p.next, p.prev = p, p
}

// Next returns the next process in ring order.
func (p *Process) Next() *Process { return p.next }

// Enqueue appends req to p's FIFO request queue (spec §5 "Ordering": calls
// from the same caller append strictly after earlier ones).
func (p *Process) Enqueue(req *Request) {
	p.requests = append(p.requests, req)
}

// PopRequest removes and returns the oldest pending request, if any.
func (p *Process) PopRequest() (*Request, bool) {
	if len(p.requests) == 0 {
		return nil, false
	}
	req := p.requests[0]
	p.requests = p.requests[1:]
	return req, true
}

// HasPendingRequest reports whether p has at least one queued request.
func (p *Process) HasPendingRequest() bool { return len(p.requests) > 0 }

// Idle reports whether p is a non-root process with no active call in
// progress (not waiting, not checking, empty saved call stack). The root
// process is never idle. Idle does not look at the request queue; Runnable
// combines the two (spec §4.8: "not suspended, not blocked on a wait, and
// (if idle) has at least one pending request").
func (p *Process) Idle() bool {
	return !p.IsRoot && !p.Waiting && !p.Checking && len(p.CallStack) == 0
}

// Runnable reports whether the scheduler may select p next.
func (p *Process) Runnable() bool {
	if p.Suspended || p.Waiting || p.Checking {
		return false
	}
	if p.Idle() {
		return p.HasPendingRequest()
	}
	return true
}
