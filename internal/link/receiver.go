package link

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
)

// MaxLineLength bounds the receive line buffer. Longer lines are discarded.
const MaxLineLength = 64

// Receiver frames incoming bytes into lines and hands each completed line to
// a Slot.
type Receiver struct {
	slot Slot

	buf      [MaxLineLength]byte
	pos      int
	overflow bool

	dropped atomic.Int64
}

// NewReceiver creates a receiver feeding slot.
func NewReceiver(slot Slot) *Receiver {
	return &Receiver{slot: slot}
}

// Dropped counts completed lines lost at the slot: refused by a Mailbox or
// superseded in a Latest. Safe to call from any goroutine.
func (r *Receiver) Dropped() int {
	return int(r.dropped.Load())
}

// Feed processes a chunk of received bytes.
func (r *Receiver) Feed(data []byte) {
	for _, c := range data {
		switch c {
		case '\n':
			if !r.overflow && r.pos > 0 {
				if !r.slot.Offer(string(r.buf[:r.pos])) {
					r.dropped.Add(1)
				}
			}
			r.pos = 0
			r.overflow = false
		case '\r':
			// CRLF senders
		default:
			if r.pos == len(r.buf) {
				r.overflow = true
				continue
			}
			r.buf[r.pos] = c
			r.pos++
		}
	}
}

// Run reads from src until ctx is cancelled or src fails. A read returning
// zero bytes (read timeout) just re-checks the context.
func (r *Receiver) Run(ctx context.Context, src io.Reader) error {
	buf := make([]byte, 32)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := src.Read(buf)
		if n > 0 {
			r.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			log.Printf("serial: read error: %v", err)
			return err
		}
	}
}
