package proc

import "github.com/setl2-lang/setl2vm/internal/value"

// Mailbox is a FIFO of specifiers (spec §3 "Mailbox"): used both as a
// process request carrier and as a first-class value returned from
// process-method calls.
type Mailbox struct {
	items []value.Specifier
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox { return &Mailbox{} }

// Deliver appends v to the mailbox, marking it on the mailbox's behalf.
func (m *Mailbox) Deliver(v value.Specifier) {
	v.Mark()
	m.items = append(m.items, v)
}

// Receive pops the oldest value, or reports empty.
func (m *Mailbox) Receive() (value.Specifier, bool) {
	if len(m.items) == 0 {
		return value.Omega, false
	}
	v := m.items[0]
	m.items = m.items[1:]
	return v, true
}

// Len reports how many values are queued.
func (m *Mailbox) Len() int { return len(m.items) }

// MailboxPayload wraps a *Mailbox as a value.Payload so it can travel as
// an ordinary FormMailbox specifier.
type MailboxPayload struct{ M *Mailbox }

func (p *MailboxPayload) Kind() value.Form { return value.FormMailbox }
func (p *MailboxPayload) Release() {
	for _, v := range p.M.items {
		v.Unmark()
	}
}
func (p *MailboxPayload) HashCode() uint32 { return uint32(len(p.M.items)) }
func (p *MailboxPayload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*MailboxPayload)
	return ok && o.M == p.M
}

// NewMailboxSpecifier wraps a fresh mailbox as a FormMailbox specifier,
// returned immediately to the caller of a process-method call (spec §4.7
// call step 2).
func NewMailboxSpecifier() value.Specifier {
	return value.FromHandle(value.FormMailbox, value.NewHandle(&MailboxPayload{M: NewMailbox()}))
}

// AsMailbox returns the underlying *Mailbox for a FormMailbox specifier.
func AsMailbox(s value.Specifier) *Mailbox { return s.Payload().(*MailboxPayload).M }
