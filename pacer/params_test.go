package pacer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestStore(t *testing.T) (*Store, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewStore(DefaultParams(), zap.New(core)), logs
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 5000*time.Millisecond, p.BaseInterval)
	assert.Equal(t, 5000*time.Millisecond, p.CurrentInterval)
	assert.Equal(t, 1.05, p.SlowDownFactor)
	assert.Equal(t, 0.95, p.SpeedUpFactor)
	assert.Equal(t, 100, p.RoundBudget)
	require.NoError(t, p.Validate())
}

func TestNewStoreRejectsInvalidDefaults(t *testing.T) {
	bad := DefaultParams()
	bad.RoundBudget = 0
	s := NewStore(bad, nil)
	assert.Equal(t, DefaultParams(), s.Snapshot())
	assert.Equal(t, DefaultParams(), s.Defaults())
}

func TestSettersApplyPositiveValues(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.SetSlowDownFactor(1.5))
	require.NoError(t, s.SetSpeedUpFactor(0.25))
	require.NoError(t, s.SetRoundBudget(7))
	require.NoError(t, s.SetBaseInterval(1234))

	p := s.Snapshot()
	assert.Equal(t, 1.5, p.SlowDownFactor)
	assert.Equal(t, 0.25, p.SpeedUpFactor)
	assert.Equal(t, 7, p.RoundBudget)
	assert.Equal(t, 1234*time.Millisecond, p.BaseInterval)
	assert.Equal(t, 1234*time.Millisecond, p.CurrentInterval, "base interval applies immediately")
}

func TestSettersRejectNonPositiveValues(t *testing.T) {
	s, logs := newTestStore(t)
	s.AdjustInterval(true)
	before := s.Snapshot()
	logged := logs.Len()

	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, s.SetSlowDownFactor(v), ErrInvalidInput, "slow-down %v", v)
		assert.ErrorIs(t, s.SetSpeedUpFactor(v), ErrInvalidInput, "speed-up %v", v)
	}
	for _, v := range []int{0, -1, -5000} {
		assert.ErrorIs(t, s.SetBaseInterval(v), ErrInvalidInput, "base %d", v)
		assert.ErrorIs(t, s.SetRoundBudget(v), ErrInvalidInput, "budget %d", v)
	}

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, logged, logs.Len(), "rejected values must not be reported as applied")
}

func TestSetBaseIntervalRejectsOverflow(t *testing.T) {
	s, logs := newTestStore(t)
	before := s.Snapshot()
	logged := logs.Len()

	ms, err := ParseCount("10000000000000")
	require.NoError(t, err)
	err = s.SetBaseInterval(ms)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotPositive)

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, logged, logs.Len())
}

func TestIntervalFromMillis(t *testing.T) {
	d, err := IntervalFromMillis(int(MaxIntervalMillis))
	require.NoError(t, err)
	assert.Positive(t, d)
	assert.Equal(t, time.Duration(MaxIntervalMillis)*time.Millisecond, d)

	_, err = IntervalFromMillis(int(MaxIntervalMillis) + 1)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = IntervalFromMillis(0)
	assert.ErrorIs(t, err, ErrNotPositive)
}

func TestAdjustInterval(t *testing.T) {
	s, logs := newTestStore(t)

	assert.Equal(t, 5250*time.Millisecond, s.AdjustInterval(true))
	assert.Equal(t, 4987500*time.Microsecond, s.AdjustInterval(false))
	assert.NotEqual(t, 5000*time.Millisecond, s.CurrentInterval(),
		"independent factors do not undo each other")

	entries := logs.FilterMessage("Interval adjusted").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "5.250s", entries[0].ContextMap()["interval"])
	assert.Equal(t, "4.987s", entries[1].ContextMap()["interval"])
}

func TestAdjustIntervalInverseWhenFactorsMultiplyToOne(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetSlowDownFactor(2))
	require.NoError(t, s.SetSpeedUpFactor(0.5))

	start := s.CurrentInterval()
	s.AdjustInterval(true)
	assert.Equal(t, start, s.AdjustInterval(false))
	s.AdjustInterval(false)
	assert.Equal(t, start, s.AdjustInterval(true))
}

func TestAdjustIntervalStaysPositive(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetSpeedUpFactor(1e-12))
	for i := 0; i < 5; i++ {
		s.AdjustInterval(false)
	}
	assert.Equal(t, time.Nanosecond, s.CurrentInterval())

	require.NoError(t, s.SetSlowDownFactor(1e300))
	s.AdjustInterval(true)
	s.AdjustInterval(true)
	assert.Equal(t, time.Duration(math.MaxInt64), s.CurrentInterval())
}

func TestResetInterval(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetBaseInterval(800))
	s.AdjustInterval(true)
	s.AdjustInterval(true)

	assert.Equal(t, 800*time.Millisecond, s.ResetInterval())
	assert.Equal(t, 800*time.Millisecond, s.Snapshot().BaseInterval)
}

func TestResetAll(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetBaseInterval(10))
	require.NoError(t, s.SetSlowDownFactor(3))
	require.NoError(t, s.SetSpeedUpFactor(0.1))
	require.NoError(t, s.SetRoundBudget(2))
	s.AdjustInterval(true)

	s.ResetAll()
	assert.Equal(t, Params{
		BaseInterval:    5000 * time.Millisecond,
		CurrentInterval: 5000 * time.Millisecond,
		SlowDownFactor:  1.05,
		SpeedUpFactor:   0.95,
		RoundBudget:     100,
	}, s.Snapshot())
}

func TestResetAllUsesConfiguredDefaults(t *testing.T) {
	defaults := Params{
		BaseInterval:    time.Second,
		CurrentInterval: time.Second,
		SlowDownFactor:  1.1,
		SpeedUpFactor:   0.9,
		RoundBudget:     5,
	}
	s := NewStore(defaults, nil)
	require.NoError(t, s.SetRoundBudget(50))
	s.ResetAll()
	assert.Equal(t, defaults, s.Snapshot())
}

func TestParseFactor(t *testing.T) {
	v, err := ParseFactor(" 1.25 ")
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)

	for _, in := range []string{"", "abc", "0", "-0.5", "NaN", "Inf", "1,5"} {
		_, err := ParseFactor(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", in)
	}
}

func TestParseCount(t *testing.T) {
	v, err := ParseCount("250")
	require.NoError(t, err)
	assert.Equal(t, 250, v)

	for _, in := range []string{"", "ten", "1.5", "0", "-3"} {
		_, err := ParseCount(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", in)
	}
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "5.000s", FormatInterval(5*time.Second))
	assert.Equal(t, "0.050s", FormatInterval(50*time.Millisecond))
	assert.Equal(t, "0.000s", FormatInterval(-time.Second))
}
