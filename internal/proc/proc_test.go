package proc

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestSpawnAndRingOrder(t *testing.T) {
	root := NewRoot()
	a := Spawn(root, "owner-a")
	b := Spawn(root, "owner-b")

	// Spawn inserts right after root each time, so ring order is root, b, a.
	if root.Next() != b {
		t.Fatalf("expected b right after root")
	}
	if b.Next() != a {
		t.Fatalf("expected a after b")
	}
	if a.Next() != root {
		t.Fatalf("expected ring to close back to root")
	}
}

func TestFIFORequestOrdering(t *testing.T) {
	root := NewRoot()
	p := Spawn(root, nil)
	p.Enqueue(&Request{Args: []value.Specifier{value.ShortInt(1)}})
	p.Enqueue(&Request{Args: []value.Specifier{value.ShortInt(2)}})

	r1, ok := p.PopRequest()
	if !ok || r1.Args[0].ShortIntValue() != 1 {
		t.Fatalf("expected first request to carry 1")
	}
	r2, ok := p.PopRequest()
	if !ok || r2.Args[0].ShortIntValue() != 2 {
		t.Fatalf("expected second request to carry 2")
	}
	if _, ok := p.PopRequest(); ok {
		t.Fatalf("expected queue to be drained")
	}
}

func TestSchedulerSelectsNextRunnableSkippingSuspended(t *testing.T) {
	root := NewRoot()
	b := Spawn(root, nil)
	b.Enqueue(&Request{}) // make b runnable despite being idle
	a := Spawn(root, nil) // inserted right after root, so the ring is root, a, b
	a.Suspended = true

	sched := NewScheduler(root, 10)
	next, err := sched.SelectNext()
	if err != nil {
		t.Fatal(err)
	}
	if next != b {
		t.Fatalf("expected scheduler to skip suspended a and select b")
	}
}

func TestSchedulerDeadlockWhenNoneRunnable(t *testing.T) {
	root := NewRoot()
	root.Waiting = true
	a := Spawn(root, nil)
	a.Waiting = true

	sched := NewScheduler(root, 10)
	if _, err := sched.SelectNext(); err == nil {
		t.Fatalf("expected deadlock error when nothing is runnable")
	}
}

func TestTickFiresAtZeroOnlyOutsideCriticalSection(t *testing.T) {
	sched := NewScheduler(NewRoot(), 2)
	if sched.Tick() {
		t.Fatalf("expected no switch on first tick of a budget-2 scheduler")
	}
	if !sched.Tick() {
		t.Fatalf("expected switch on the second tick")
	}
	sched.EnterCritical()
	sched.Tick()
	if sched.Tick() {
		t.Fatalf("expected no switch while inside a critical section")
	}
}

func TestMailboxFIFO(t *testing.T) {
	mb := NewMailbox()
	mb.Deliver(value.ShortInt(1))
	mb.Deliver(value.ShortInt(2))
	v, ok := mb.Receive()
	if !ok || v.ShortIntValue() != 1 {
		t.Fatalf("expected first delivered value back")
	}
}
