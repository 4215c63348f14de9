package link

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxSingleSlot(t *testing.T) {
	mb := NewMailbox()

	_, ok := mb.Poll()
	assert.False(t, ok)

	assert.True(t, mb.Offer("SET:30"))
	assert.False(t, mb.Offer("SET:31"), "second offer must fail while a line is pending")

	line, ok := mb.Poll()
	require.True(t, ok)
	assert.Equal(t, "SET:30", line)

	_, ok = mb.Poll()
	assert.False(t, ok, "poll must clear the slot")

	assert.True(t, mb.Offer("SET:32"))
}

func TestLatestKeepsNewest(t *testing.T) {
	l := NewLatest()

	_, ok := l.Poll()
	assert.False(t, ok)

	assert.True(t, l.Offer("24.00;25.00"))
	assert.False(t, l.Offer("24.10;25.50"), "offer reports the replaced line")

	line, ok := l.Poll()
	require.True(t, ok)
	assert.Equal(t, "24.10;25.50", line)

	_, ok = l.Poll()
	assert.False(t, ok, "poll must clear the slot")
}

func TestReceiverIntoLatest(t *testing.T) {
	l := NewLatest()
	r := NewReceiver(l)

	r.Feed([]byte("25.00;25.00\n25.00;25.50\n"))

	line, ok := l.Poll()
	require.True(t, ok)
	assert.Equal(t, "25.00;25.50", line, "the newer report wins")
	assert.Equal(t, 1, r.Dropped())
}

func TestReceiverFraming(t *testing.T) {
	mb := NewMailbox()
	r := NewReceiver(mb)

	r.Feed([]byte("SE"))
	_, ok := mb.Poll()
	assert.False(t, ok, "partial line must not be published")

	r.Feed([]byte("T:30\r\n"))
	line, ok := mb.Poll()
	require.True(t, ok)
	assert.Equal(t, "SET:30", line)
}

func TestReceiverDropsWhilePending(t *testing.T) {
	mb := NewMailbox()
	r := NewReceiver(mb)

	r.Feed([]byte("SET:30\nSET:40\n"))

	line, ok := mb.Poll()
	require.True(t, ok)
	assert.Equal(t, "SET:30", line)
	assert.Equal(t, 1, r.Dropped())
}

func TestReceiverSkipsEmptyAndOverlong(t *testing.T) {
	mb := NewMailbox()
	r := NewReceiver(mb)

	r.Feed([]byte("\n\n"))
	_, ok := mb.Poll()
	assert.False(t, ok)

	r.Feed([]byte(strings.Repeat("x", MaxLineLength+10) + "\n"))
	_, ok = mb.Poll()
	assert.False(t, ok, "overlong line must be discarded")

	r.Feed([]byte("SET:22\n"))
	line, ok := mb.Poll()
	require.True(t, ok)
	assert.Equal(t, "SET:22", line)
}

func TestReceiverRunUntilEOF(t *testing.T) {
	mb := NewMailbox()
	r := NewReceiver(mb)

	err := r.Run(context.Background(), strings.NewReader("SET:27.5\n"))
	require.NoError(t, err)

	line, ok := mb.Poll()
	require.True(t, ok)
	assert.Equal(t, "SET:27.5", line)
}

func TestReceiverRunCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewReceiver(NewMailbox()).Run(ctx, pr) }()

	cancel()
	pr.CloseWithError(context.Canceled)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("receiver did not stop")
	}
}

// syncBuffer is a bytes.Buffer safe for the transmitter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTransmitterWrites(t *testing.T) {
	var out syncBuffer
	tx := NewTransmitter(&out, 50*time.Millisecond)
	defer tx.Close()

	require.NoError(t, tx.Send("23.46;25.00\n"))

	assert.Eventually(t, func() bool {
		return out.String() == "23.46;25.00\n"
	}, time.Second, 5*time.Millisecond)
}

// blockingWriter never returns from Write until released.
type blockingWriter struct {
	release chan struct{}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestTransmitterTimeoutDrops(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	tx := NewTransmitter(w, 20*time.Millisecond)
	defer func() {
		close(w.release)
		tx.Close()
	}()

	// First line is picked up by the writer and blocks there, second fills
	// the queue, third cannot be handed over.
	require.NoError(t, tx.Send("a\n"))
	assert.Eventually(t, func() bool { return len(tx.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, tx.Send("b\n"))

	start := time.Now()
	err := tx.Send("c\n")
	assert.ErrorIs(t, err, ErrTransmitTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTransmitterClosed(t *testing.T) {
	tx := NewTransmitter(io.Discard, 0)
	require.NoError(t, tx.Close())
	require.NoError(t, tx.Close())

	assert.ErrorIs(t, tx.Send("x\n"), ErrClosed)
}
