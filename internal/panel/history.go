package panel

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Point is one recorded reading with the target in force at the time.
type Point struct {
	Temperature float32
	Target      float32
}

// History keeps the most recent readings, oldest first.
type History struct {
	points []Point
	size   int
}

// NewHistory creates a history holding at most size points.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{points: make([]Point, 0, size), size: size}
}

// Add appends p, dropping the oldest point when full.
func (h *History) Add(p Point) {
	if len(h.points) == h.size {
		copy(h.points, h.points[1:])
		h.points = h.points[:h.size-1]
	}
	h.points = append(h.points, p)
}

// Len returns the number of recorded points.
func (h *History) Len() int {
	return len(h.points)
}

// Points returns a copy of the recorded points.
func (h *History) Points() []Point {
	out := make([]Point, len(h.points))
	copy(out, h.points)
	return out
}

// Stats is a summary of the recorded temperatures.
type Stats struct {
	Count int
	Min   float32
	Max   float32
	Mean  float32
}

// Stats summarises the recorded temperatures. The zero Stats is returned for
// an empty history.
func (h *History) Stats() Stats {
	if len(h.points) == 0 {
		return Stats{}
	}
	st := Stats{
		Count: len(h.points),
		Min:   math32.Inf(1),
		Max:   math32.Inf(-1),
	}
	var sum float32
	for _, p := range h.points {
		st.Min = math32.Min(st.Min, p.Temperature)
		st.Max = math32.Max(st.Max, p.Temperature)
		sum += p.Temperature
	}
	st.Mean = sum / float32(st.Count)
	return st
}

func (s Stats) String() string {
	if s.Count == 0 {
		return "no readings"
	}
	return fmt.Sprintf("%d readings  min %.2f C  max %.2f C  mean %.2f C", s.Count, s.Min, s.Max, s.Mean)
}
