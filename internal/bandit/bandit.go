// Package bandit implements epsilon-greedy selection over a fixed set of
// content modes, with reward feedback folded into a per-mode running mean.
package bandit

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/tjharb909/FutureButNotNow/internal/statefile"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

// ErrUnknownMode is returned when a reward targets a mode outside the
// configured arm set. Callers must not invent modes at runtime.
var ErrUnknownMode = errors.New("unknown content mode")

const (
	// WeightFloor keeps a poorly performing mode eligible: its weight
	// never drops low enough to be starved of exploitation forever.
	WeightFloor = 0.2

	// initialWeight is optimistic so untried modes win early exploitation
	initialWeight = 1.0

	// DefaultEpsilon is the default exploration probability
	DefaultEpsilon = 0.25
)

// ModeRecord is the persisted per-mode accounting. The short JSON keys
// match the historical state files, so learned weights survive upgrades.
type ModeRecord struct {
	Weight float64 `json:"w"`
	Trials int     `json:"n"`
	Reward float64 `json:"r"`
}

// Selector chooses content modes and accounts rewards. Not safe for
// concurrent use; one invocation owns the state file at a time.
type Selector struct {
	modes   []string
	modeSet map[string]struct{}
	state   map[string]ModeRecord
	store   *statefile.Store[map[string]ModeRecord]
	rng     *rand.Rand
	log     *logger.Logger
}

// New loads (or seeds) bandit state for the given fixed mode list
func New(modes []string, path string, rng *rand.Rand, log *logger.Logger) (*Selector, error) {
	if len(modes) == 0 {
		return nil, errors.New("bandit requires at least one mode")
	}

	s := &Selector{
		modes:   modes,
		modeSet: make(map[string]struct{}, len(modes)),
		store:   statefile.New[map[string]ModeRecord](path),
		rng:     rng,
		log:     log.WithComponent("bandit"),
	}
	for _, m := range modes {
		s.modeSet[m] = struct{}{}
	}

	state, err := s.store.Load(nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Bandit state unreadable, starting fresh")
		state = nil
	}
	if state == nil {
		state = make(map[string]ModeRecord, len(modes))
	}

	// Seed any mode missing from the loaded file with optimistic defaults
	seeded := false
	for _, m := range modes {
		if _, ok := state[m]; !ok {
			state[m] = ModeRecord{Weight: initialWeight}
			seeded = true
		}
	}
	s.state = state

	if seeded {
		if err := s.store.Save(s.state); err != nil {
			return nil, fmt.Errorf("persist seeded bandit state: %w", err)
		}
	}

	return s, nil
}

// Choose returns a mode: with probability epsilon a uniformly random one
// (exploration), otherwise the highest-weight mode with ties broken by
// configured mode order (exploitation). Does not mutate state.
func (s *Selector) Choose(epsilon float64) string {
	if s.rng.Float64() < epsilon {
		mode := s.modes[s.rng.Intn(len(s.modes))]
		s.log.Debug().Str("mode", mode).Msg("Exploring")
		return mode
	}

	best := s.modes[0]
	for _, m := range s.modes[1:] {
		if s.state[m].Weight > s.state[best].Weight {
			best = m
		}
	}
	s.log.Debug().Str("mode", best).Float64("weight", s.state[best].Weight).Msg("Exploiting")
	return best
}

// Update folds one observed reward into a mode's running mean and
// persists the whole state. Rewards accumulate without decay: an old
// trial weighs as much as a fresh one until diluted by volume.
func (s *Selector) Update(mode string, reward float64) error {
	if _, ok := s.modeSet[mode]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	rec := s.state[mode]
	rec.Trials++
	rec.Reward += reward
	rec.Weight = math.Max(WeightFloor, rec.Reward/float64(rec.Trials))
	s.state[mode] = rec

	if err := s.store.Save(s.state); err != nil {
		return fmt.Errorf("persist bandit state: %w", err)
	}

	s.log.Info().
		Str("mode", mode).
		Float64("reward", reward).
		Float64("weight", rec.Weight).
		Int("trials", rec.Trials).
		Msg("Bandit updated")

	return nil
}

// Modes returns the configured arm set in order
func (s *Selector) Modes() []string {
	out := make([]string, len(s.modes))
	copy(out, s.modes)
	return out
}

// Record returns the current accounting for a mode
func (s *Selector) Record(mode string) (ModeRecord, bool) {
	rec, ok := s.state[mode]
	return rec, ok
}

// Snapshot returns a copy of the full state for display
func (s *Selector) Snapshot() map[string]ModeRecord {
	out := make(map[string]ModeRecord, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}
