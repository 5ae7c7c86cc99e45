// Package ledger tracks which catalog items have already been offered,
// so consecutive runs rotate through the catalog instead of repeating.
package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/statefile"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

// ErrEmptyCatalog is returned when Choose is called with no items at all
var ErrEmptyCatalog = errors.New("catalog is empty")

// Policy controls behavior on an exhaustion reset
type Policy struct {
	// PreferStableID orders the re-eligible pool with identified items
	// (those carrying an ASIN or similar) first after a reset. This is a
	// heuristic, not a correctness requirement, hence configurable.
	PreferStableID bool
}

// Ledger is the persisted used-item set. Not safe for concurrent use;
// the scheduler serializes runs.
type Ledger struct {
	store  *statefile.Store[[]string]
	policy Policy
	rng    *rand.Rand
	log    *logger.Logger
}

// New creates a ledger backed by the JSON state file at path
func New(path string, policy Policy, rng *rand.Rand, log *logger.Logger) *Ledger {
	return &Ledger{
		store:  statefile.New[[]string](path),
		policy: policy,
		rng:    rng,
		log:    log.WithComponent("ledger"),
	}
}

// Normalize derives the deduplication key for a title: lower-cased,
// trimmed, internal whitespace collapsed. Idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Choose picks an unused item uniformly at random, marks it used and
// persists the set before returning. When every item has been used the
// whole set resets and all items become eligible again in the same call.
//
// The chosen item counts as used from this moment, whether or not the
// caller manages to post it. A crash downstream must not re-offer it.
func (l *Ledger) Choose(items []catalog.Item) (catalog.Item, error) {
	if len(items) == 0 {
		return catalog.Item{}, ErrEmptyCatalog
	}

	used, err := l.loadSet()
	if err != nil {
		l.log.Warn().Err(err).Msg("Used-set state unreadable, starting fresh")
	}

	available := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if _, ok := used[Normalize(it.Title)]; !ok {
			available = append(available, it)
		}
	}

	if len(available) == 0 {
		l.log.Info().Int("catalog_size", len(items)).Msg("Catalog exhausted, resetting used set")
		used = make(map[string]struct{})
		available = l.requalify(items)
	}

	choice := available[l.rng.Intn(len(available))]

	used[Normalize(choice.Title)] = struct{}{}
	if err := l.persist(used); err != nil {
		return catalog.Item{}, err
	}

	l.log.Debug().
		Str("item", choice.Title).
		Int("used", len(used)).
		Int("catalog_size", len(items)).
		Msg("Item chosen")

	return choice, nil
}

// Used returns the persisted normalized keys, sorted
func (l *Ledger) Used() ([]string, error) {
	set, err := l.loadSet()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Reset clears the persisted used set
func (l *Ledger) Reset() error {
	return l.persist(make(map[string]struct{}))
}

// requalify builds the re-eligible pool after an exhaustion reset.
// With PreferStableID the pool is ordered identified-first, then by
// normalized title, purely so reset behavior is deterministic under a
// seeded random source.
func (l *Ledger) requalify(items []catalog.Item) []catalog.Item {
	pool := make([]catalog.Item, len(items))
	copy(pool, items)
	if !l.policy.PreferStableID {
		return pool
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].HasStableID() != pool[j].HasStableID() {
			return pool[i].HasStableID()
		}
		return Normalize(pool[i].Title) < Normalize(pool[j].Title)
	})
	return pool
}

func (l *Ledger) loadSet() (map[string]struct{}, error) {
	keys, err := l.store.Load(nil)
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, err
}

func (l *Ledger) persist(set map[string]struct{}) error {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := l.store.Save(keys); err != nil {
		return fmt.Errorf("persist used set: %w", err)
	}
	return nil
}
