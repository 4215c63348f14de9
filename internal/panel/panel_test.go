package panel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/climate-controller/internal/report"
)

type fakeSender struct {
	lines []string
	err   error
}

func (f *fakeSender) Send(line string) error {
	if f.err != nil {
		return f.err
	}
	f.lines = append(f.lines, line)
	return nil
}

func TestExecuteSteps(t *testing.T) {
	tests := []struct {
		input    string
		wantLine string
		want     float32
	}{
		{"+", "SET:25.5\n", 25.5},
		{"-", "SET:24.5\n", 24.5},
		{"+.", "SET:25.1\n", 25.1},
		{"-.", "SET:24.9\n", 24.9},
		{"set 22,5", "SET:22.5\n", 22.5},
		{"set 30", "SET:30.0\n", 30},
		{"  +  ", "SET:25.5\n", 25.5},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := &fakeSender{}
			s := NewSession(out, 25)

			require.NoError(t, s.Execute(tt.input))
			assert.Equal(t, []string{tt.wantLine}, out.lines)
			assert.InDelta(t, tt.want, s.Target(), 1e-4)
		})
	}
}

func TestExecuteRepeatedFineStepsStayRounded(t *testing.T) {
	out := &fakeSender{}
	s := NewSession(out, 25)

	for i := 0; i < 7; i++ {
		require.NoError(t, s.Execute("+."))
	}

	assert.Equal(t, "SET:25.7\n", out.lines[len(out.lines)-1])
	assert.Equal(t, round2(25.7), s.Target())
}

func TestExecuteRejectsBadInput(t *testing.T) {
	out := &fakeSender{}
	s := NewSession(out, 25)

	err := s.Execute("heat")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	assert.ErrorIs(t, s.Execute(""), ErrUnknownCommand)
	assert.Error(t, s.Execute("set abc"))
	assert.Error(t, s.Execute("set"))
	assert.Error(t, s.Execute("set 1 2"))

	assert.Empty(t, out.lines)
	assert.Equal(t, float32(25), s.Target())
}

func TestExecuteSendError(t *testing.T) {
	out := &fakeSender{err: errors.New("port closed")}
	s := NewSession(out, 25)

	err := s.Execute("+")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SET:25.5")
	assert.Equal(t, float32(25.5), s.Target(), "target follows the operator even when the send fails")
}

func TestObserveAdoptsDeviceTarget(t *testing.T) {
	s := NewSession(&fakeSender{}, 25)

	adopted, err := s.Observe("24.50;26.00\n")
	require.NoError(t, err)
	assert.True(t, adopted)

	v := s.View()
	assert.True(t, v.Ready)
	assert.Equal(t, float32(24.5), v.Temperature)
	assert.Equal(t, float32(26), v.Target)
	assert.Equal(t, float32(1.5), v.Error)
	assert.Equal(t, report.RegimeHeating, v.Regime)
}

func TestObserveKeepsMatchingTarget(t *testing.T) {
	s := NewSession(&fakeSender{}, 25)

	adopted, err := s.Observe("25.80;25.00")
	require.NoError(t, err)
	assert.False(t, adopted)
	assert.Equal(t, float32(25), s.Target())
	assert.Equal(t, report.RegimeCooling, s.View().Regime)
}

func TestObserveLegacyRecord(t *testing.T) {
	s := NewSession(&fakeSender{}, 25)

	adopted, err := s.Observe("25.3")
	require.NoError(t, err)
	assert.False(t, adopted)

	v := s.View()
	assert.Equal(t, float32(25), v.Target)
	assert.Equal(t, float32(25.3), v.Temperature)
	assert.Equal(t, report.RegimeOK, v.Regime)
}

func TestObserveBadRecord(t *testing.T) {
	s := NewSession(&fakeSender{}, 25)

	_, err := s.Observe("")
	assert.ErrorIs(t, err, report.ErrEmptyRecord)

	_, err = s.Observe("hot;25")
	assert.Error(t, err)

	assert.False(t, s.View().Ready)
	assert.Equal(t, 0, s.Stats().Count)
}

func TestSessionHistoryBounded(t *testing.T) {
	s := NewSession(&fakeSender{}, 25)

	for i := 0; i < HistorySize+50; i++ {
		_, err := s.Observe(fmt.Sprintf("%d;25", i))
		require.NoError(t, err)
	}

	st := s.Stats()
	assert.Equal(t, HistorySize, st.Count)
	assert.Equal(t, float32(50), st.Min)
	assert.Equal(t, float32(149), st.Max)
}

func TestSessionReset(t *testing.T) {
	s := NewSession(&fakeSender{}, 25)
	_, err := s.Observe("24;26")
	require.NoError(t, err)

	s.Reset()

	assert.False(t, s.View().Ready)
	assert.Equal(t, 0, s.Stats().Count)
	assert.Equal(t, float32(26), s.Target(), "target survives a reset")
}

func TestFormatView(t *testing.T) {
	assert.Equal(t, "temp --.-- C  target 25.0 C  waiting for data",
		FormatView(View{Target: 25}))

	v := View{Temperature: 24.5, Target: 26, Error: 1.5, Regime: report.RegimeHeating, Ready: true}
	assert.Equal(t, "temp 24.50 C  target 26.0 C  error +1.50  HEATING", FormatView(v))
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(" 21,5 ")
	require.NoError(t, err)
	assert.Equal(t, float32(21.5), v)

	_, err = ParseValue("twenty")
	assert.Error(t, err)
}

func TestHistoryDropsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []float32{18, 20, 22, 24} {
		h.Add(Point{Temperature: v, Target: 25})
	}

	require.Equal(t, 3, h.Len())
	pts := h.Points()
	assert.Equal(t, float32(20), pts[0].Temperature)
	assert.Equal(t, float32(24), pts[2].Temperature)

	st := h.Stats()
	assert.Equal(t, Stats{Count: 3, Min: 20, Max: 24, Mean: 22}, st)
	assert.Equal(t, "3 readings  min 20.00 C  max 24.00 C  mean 22.00 C", st.String())
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, Stats{}, h.Stats())
	assert.Equal(t, "no readings", h.Stats().String())

	h.Add(Point{Temperature: 1})
	h.Add(Point{Temperature: 2})
	assert.Equal(t, 1, h.Len(), "size is at least one")
}
