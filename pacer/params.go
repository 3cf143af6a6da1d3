package pacer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidInput is returned when an operator-supplied value cannot be
	// parsed or is not strictly positive.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotPositive narrows ErrInvalidInput to values that parsed but are <= 0.
	ErrNotPositive = fmt.Errorf("%w: must be greater than zero", ErrInvalidInput)
	// ErrTooLarge narrows ErrInvalidInput to values beyond what a time.Duration holds.
	ErrTooLarge = fmt.Errorf("%w: too large", ErrInvalidInput)
)

// MaxIntervalMillis is the largest base interval, in milliseconds, that fits a time.Duration.
const MaxIntervalMillis = math.MaxInt64 / int64(time.Millisecond)

// Compiled-in defaults restored by ResetAll when no overrides are configured.
const (
	DefaultBaseInterval   = 5000 * time.Millisecond
	DefaultSlowDownFactor = 1.05
	DefaultSpeedUpFactor  = 0.95
	DefaultRoundBudget    = 100
)

// Params is a snapshot of every tunable the worker loop reads.
type Params struct {
	BaseInterval    time.Duration
	CurrentInterval time.Duration
	SlowDownFactor  float64
	SpeedUpFactor   float64
	RoundBudget     int
}

// DefaultParams returns the compiled-in parameter set.
func DefaultParams() Params {
	return Params{
		BaseInterval:    DefaultBaseInterval,
		CurrentInterval: DefaultBaseInterval,
		SlowDownFactor:  DefaultSlowDownFactor,
		SpeedUpFactor:   DefaultSpeedUpFactor,
		RoundBudget:     DefaultRoundBudget,
	}
}

// Validate reports the first field that is not strictly positive.
func (p Params) Validate() error {
	switch {
	case p.BaseInterval <= 0:
		return fmt.Errorf("base interval %v: %w", p.BaseInterval, ErrInvalidInput)
	case p.CurrentInterval <= 0:
		return fmt.Errorf("current interval %v: %w", p.CurrentInterval, ErrInvalidInput)
	case !(p.SlowDownFactor > 0) || math.IsInf(p.SlowDownFactor, 0):
		return fmt.Errorf("slow-down factor %v: %w", p.SlowDownFactor, ErrInvalidInput)
	case !(p.SpeedUpFactor > 0) || math.IsInf(p.SpeedUpFactor, 0):
		return fmt.Errorf("speed-up factor %v: %w", p.SpeedUpFactor, ErrInvalidInput)
	case p.RoundBudget <= 0:
		return fmt.Errorf("round budget %d: %w", p.RoundBudget, ErrInvalidInput)
	}
	return nil
}

// Store holds the live parameters shared between the command loop and the
// worker. All access goes through mu.
type Store struct {
	mu       sync.RWMutex
	params   Params
	defaults Params
	log      *zap.Logger
}

// NewStore creates a store initialised to defaults. Invalid defaults fall back
// to the compiled-in set.
func NewStore(defaults Params, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if err := defaults.Validate(); err != nil {
		log.Warn("Ignoring invalid parameter defaults", zap.Error(err))
		defaults = DefaultParams()
	}
	return &Store{params: defaults, defaults: defaults, log: log}
}

// Snapshot returns a consistent copy of all parameters.
func (s *Store) Snapshot() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Defaults returns the set ResetAll restores.
func (s *Store) Defaults() Params {
	return s.defaults
}

// CurrentInterval returns the interval the worker sleeps for on its next cycle.
func (s *Store) CurrentInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.CurrentInterval
}

// RoundBudget returns the number of rounds after which a run stops itself.
func (s *Store) RoundBudget() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.RoundBudget
}

// AdjustInterval scales the current interval. slower multiplies by the
// slow-down factor, otherwise by the speed-up factor. It returns the new interval.
func (s *Store) AdjustInterval(slower bool) time.Duration {
	s.mu.Lock()
	factor := s.params.SpeedUpFactor
	if slower {
		factor = s.params.SlowDownFactor
	}
	s.params.CurrentInterval = scale(s.params.CurrentInterval, factor)
	current := s.params.CurrentInterval
	s.mu.Unlock()

	s.log.Info("Interval adjusted",
		zap.Bool("slower", slower),
		zap.Float64("factor", factor),
		zap.String("interval", FormatInterval(current)))
	return current
}

// ResetInterval restores the current interval to the base interval.
func (s *Store) ResetInterval() time.Duration {
	s.mu.Lock()
	s.params.CurrentInterval = s.params.BaseInterval
	current := s.params.CurrentInterval
	s.mu.Unlock()

	s.log.Info("Interval reset", zap.String("interval", FormatInterval(current)))
	return current
}

// SetSlowDownFactor replaces the factor applied when the pace is slowed.
func (s *Store) SetSlowDownFactor(v float64) error {
	if err := checkFactor("slow-down factor", v); err != nil {
		return err
	}
	s.mu.Lock()
	s.params.SlowDownFactor = v
	s.mu.Unlock()

	s.log.Info("Slow-down factor set", zap.Float64("factor", v))
	return nil
}

// SetSpeedUpFactor replaces the factor applied when the pace is sped up.
func (s *Store) SetSpeedUpFactor(v float64) error {
	if err := checkFactor("speed-up factor", v); err != nil {
		return err
	}
	s.mu.Lock()
	s.params.SpeedUpFactor = v
	s.mu.Unlock()

	s.log.Info("Speed-up factor set", zap.Float64("factor", v))
	return nil
}

// SetBaseInterval replaces the base interval and applies it immediately.
func (s *Store) SetBaseInterval(ms int) error {
	d, err := IntervalFromMillis(ms)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.params.BaseInterval = d
	s.params.CurrentInterval = d
	s.mu.Unlock()

	s.log.Info("Base interval set", zap.Int("ms", ms))
	return nil
}

// IntervalFromMillis converts a millisecond count to a duration, rejecting
// values that are not positive or would overflow.
func IntervalFromMillis(ms int) (time.Duration, error) {
	switch {
	case ms <= 0:
		return 0, fmt.Errorf("base interval %d ms: %w", ms, ErrNotPositive)
	case int64(ms) > MaxIntervalMillis:
		return 0, fmt.Errorf("base interval %d ms: %w (max %d)", ms, ErrTooLarge, MaxIntervalMillis)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SetRoundBudget replaces the number of rounds after which a run stops itself.
func (s *Store) SetRoundBudget(n int) error {
	if n <= 0 {
		return fmt.Errorf("round budget %d: %w", n, ErrNotPositive)
	}
	s.mu.Lock()
	s.params.RoundBudget = n
	s.mu.Unlock()

	s.log.Info("Round budget set", zap.Int("rounds", n))
	return nil
}

// ResetAll restores every parameter to its default.
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.params = s.defaults
	s.mu.Unlock()

	s.log.Info("Parameters reset to defaults",
		zap.String("interval", FormatInterval(s.defaults.CurrentInterval)),
		zap.Float64("slow_down_factor", s.defaults.SlowDownFactor),
		zap.Float64("speed_up_factor", s.defaults.SpeedUpFactor),
		zap.Int("round_budget", s.defaults.RoundBudget))
}

func checkFactor(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s %v: %w", name, v, ErrInvalidInput)
	}
	if v <= 0 {
		return fmt.Errorf("%s %v: %w", name, v, ErrNotPositive)
	}
	return nil
}

// scale multiplies d by factor, clamped so the result stays a positive duration.
func scale(d time.Duration, factor float64) time.Duration {
	f := float64(d) * factor
	switch {
	case f >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case f < 1:
		return time.Nanosecond
	}
	return time.Duration(f)
}

// ParseFactor parses operator text as a positive real.
func ParseFactor(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid number: %w", text, ErrInvalidInput)
	}
	if err := checkFactor("factor", v); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseCount parses operator text as a positive integer. Fractional values are
// rejected rather than truncated.
func ParseCount(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid integer: %w", text, ErrInvalidInput)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%d: %w", v, ErrNotPositive)
	}
	return v, nil
}
