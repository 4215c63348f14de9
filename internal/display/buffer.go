// Package display provides character display surfaces for hosts without an LCD
// and for tests.
package display

import (
	"fmt"
	"strings"
	"sync"
)

const (
	Rows    = 2
	Columns = 16
)

// Buffer emulates a Rows x Columns character display: text written past the
// last column is clipped and untouched cells keep their previous content.
type Buffer struct {
	mu     sync.Mutex
	cells  [Rows][Columns]byte
	row    int
	col    int
	writes int
}

// NewBuffer returns a cleared buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.clear()
	return b
}

// SetCursor moves the write position.
func (b *Buffer) SetCursor(row, col int) error {
	if row < 0 || row >= Rows || col < 0 || col >= Columns {
		return fmt.Errorf("cursor (%d,%d) outside %dx%d display", row, col, Rows, Columns)
	}
	b.mu.Lock()
	b.row, b.col = row, col
	b.mu.Unlock()
	return nil
}

// WriteText writes text at the cursor and advances it.
func (b *Buffer) WriteText(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < len(text) && b.col < Columns; i++ {
		b.cells[b.row][b.col] = text[i]
		b.col++
	}
	b.writes++
	return nil
}

// Clear blanks the surface and homes the cursor.
func (b *Buffer) Clear() error {
	b.mu.Lock()
	b.clear()
	b.mu.Unlock()
	return nil
}

func (b *Buffer) clear() {
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c] = ' '
		}
	}
	b.row, b.col = 0, 0
}

// Lines returns the current content of both rows.
func (b *Buffer) Lines() [Rows]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out [Rows]string
	for r := range b.cells {
		out[r] = string(b.cells[r][:])
	}
	return out
}

// Writes returns how many WriteText calls the buffer has received.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// String renders the surface framed, one row per line.
func (b *Buffer) String() string {
	lines := b.Lines()
	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", Columns) + "+\n")
	for _, l := range lines {
		sb.WriteString("|" + l + "|\n")
	}
	sb.WriteString("+" + strings.Repeat("-", Columns) + "+\n")
	return sb.String()
}
