// Package link implements the line-oriented remote channel: byte framing into
// lines, a single-slot handoff to the control loop, and bounded telemetry
// transmit over a serial port.
package link

// Slot is a single-slot handoff of completed lines from one producer
// goroutine to one consumer. Neither side ever blocks.
type Slot interface {
	// Offer hands over line and reports whether nothing was lost doing so.
	Offer(line string) bool
	// Poll takes the pending line, if any.
	Poll() (string, bool)
}

// Mailbox is a single-slot handoff for completed command lines between one
// producer goroutine and the control loop.
//
// Offer only succeeds while the slot is empty; Poll takes the pending line and
// empties the slot in one step.
type Mailbox struct {
	slot chan string
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan string, 1)}
}

// Offer publishes line if no line is pending. It never blocks.
func (m *Mailbox) Offer(line string) bool {
	select {
	case m.slot <- line:
		return true
	default:
		return false
	}
}

// Poll returns the pending line, if any, and clears the slot. It never blocks.
func (m *Mailbox) Poll() (string, bool) {
	select {
	case line := <-m.slot:
		return line, true
	default:
		return "", false
	}
}

// Latest is a single-slot handoff that keeps the newest line: Offer replaces
// a pending line instead of refusing it. It suits periodic reports, where only
// the most recent one matters.
type Latest struct {
	slot chan string
}

// NewLatest returns an empty slot.
func NewLatest() *Latest {
	return &Latest{slot: make(chan string, 1)}
}

// Offer stores line, discarding any pending one. It reports false when a
// pending line was discarded. Only one goroutine may call Offer.
func (l *Latest) Offer(line string) bool {
	replaced := false
	for {
		select {
		case l.slot <- line:
			return !replaced
		default:
		}
		select {
		case <-l.slot:
			replaced = true
		default:
		}
	}
}

// Poll returns the pending line, if any, and clears the slot. It never blocks.
func (l *Latest) Poll() (string, bool) {
	select {
	case line := <-l.slot:
		return line, true
	default:
		return "", false
	}
}
