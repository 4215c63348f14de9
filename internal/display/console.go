package display

import (
	"io"
	"sync"
)

// Console mirrors a Buffer to a writer, printing the surface whenever a
// Flush finds it changed.
type Console struct {
	*Buffer

	mu   sync.Mutex
	out  io.Writer
	last [Rows]string
}

// NewConsole creates a console display writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{Buffer: NewBuffer(), out: out}
}

// Flush prints the surface if it differs from the last flush.
func (c *Console) Flush() error {
	lines := c.Lines()

	c.mu.Lock()
	defer c.mu.Unlock()
	if lines == c.last {
		return nil
	}
	c.last = lines
	_, err := io.WriteString(c.out, c.Buffer.String())
	return err
}

// WriteText writes to the surface and flushes after the last row is written.
func (c *Console) WriteText(text string) error {
	if err := c.Buffer.WriteText(text); err != nil {
		return err
	}
	c.Buffer.mu.Lock()
	lastRow := c.Buffer.row == Rows-1
	c.Buffer.mu.Unlock()
	if lastRow {
		return c.Flush()
	}
	return nil
}
