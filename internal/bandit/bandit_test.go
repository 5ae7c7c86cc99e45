package bandit

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjharb909/FutureButNotNow/internal/statefile"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "disabled"})
}

func newTestSelector(t *testing.T, modes []string, seed int64) (*Selector, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bandit.json")
	s, err := New(modes, path, rand.New(rand.NewSource(seed)), testLogger())
	require.NoError(t, err)
	return s, path
}

func TestNewRequiresModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandit.json")
	_, err := New(nil, path, rand.New(rand.NewSource(1)), testLogger())
	require.Error(t, err)
}

func TestNewSeedsOptimisticWeights(t *testing.T) {
	s, _ := newTestSelector(t, []string{"spiky", "confession"}, 1)

	for _, m := range s.Modes() {
		rec, ok := s.Record(m)
		require.True(t, ok)
		assert.Equal(t, 1.0, rec.Weight)
		assert.Equal(t, 0, rec.Trials)
		assert.Equal(t, 0.0, rec.Reward)
	}
}

func TestNewPersistsSeededState(t *testing.T) {
	_, path := newTestSelector(t, []string{"spiky"}, 1)

	// Reload through a fresh store: the seed must already be on disk
	loaded, err := statefile.New[map[string]ModeRecord](path).Load(nil)
	require.NoError(t, err)
	require.Contains(t, loaded, "spiky")
	assert.Equal(t, 1.0, loaded["spiky"].Weight)
}

func TestNewPreservesExistingRecordsAndSeedsNewModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandit.json")
	prior := map[string]ModeRecord{
		"spiky": {Weight: 3.5, Trials: 4, Reward: 14},
	}
	require.NoError(t, statefile.New[map[string]ModeRecord](path).Save(prior))

	s, err := New([]string{"spiky", "two_choice"}, path, rand.New(rand.NewSource(1)), testLogger())
	require.NoError(t, err)

	rec, _ := s.Record("spiky")
	assert.Equal(t, ModeRecord{Weight: 3.5, Trials: 4, Reward: 14}, rec)

	added, _ := s.Record("two_choice")
	assert.Equal(t, ModeRecord{Weight: 1.0}, added)
}

func TestChooseExploitsHighestWeight(t *testing.T) {
	s, _ := newTestSelector(t, []string{"a", "b", "c"}, 1)
	require.NoError(t, s.Update("b", 10)) // weight 10.0
	require.NoError(t, s.Update("a", 2))  // weight 2.0

	// epsilon zero: always exploitation
	for i := 0; i < 20; i++ {
		assert.Equal(t, "b", s.Choose(0))
	}
}

func TestChooseBreaksTiesByModeOrder(t *testing.T) {
	s, _ := newTestSelector(t, []string{"first", "second", "third"}, 1)

	// All weights equal at 1.0: the first configured mode wins
	assert.Equal(t, "first", s.Choose(0))
}

func TestChooseAlwaysExploresAtEpsilonOne(t *testing.T) {
	s, _ := newTestSelector(t, []string{"a", "b"}, 42)
	require.NoError(t, s.Update("a", 100))

	// With epsilon 1 the dominant arm must not monopolize selection
	counts := make(map[string]int)
	for i := 0; i < 2000; i++ {
		counts[s.Choose(1)]++
	}
	assert.Greater(t, counts["b"], 700)
	assert.Greater(t, counts["a"], 700)
}

func TestChooseExplorationRate(t *testing.T) {
	s, _ := newTestSelector(t, []string{"best", "other"}, 7)
	require.NoError(t, s.Update("best", 50))

	// At epsilon 0.25 the non-best arm is only reachable by exploring,
	// with probability 0.25 * 1/2 = 0.125. Expect ~1250/10000.
	other := 0
	for i := 0; i < 10000; i++ {
		if s.Choose(0.25) == "other" {
			other++
		}
	}
	assert.InDelta(t, 1250, other, 250)
}

func TestUpdateRunningMean(t *testing.T) {
	s, _ := newTestSelector(t, []string{"a"}, 1)

	require.NoError(t, s.Update("a", 4))
	rec, _ := s.Record("a")
	assert.Equal(t, ModeRecord{Weight: 4.0, Trials: 1, Reward: 4}, rec)

	require.NoError(t, s.Update("a", 6))
	rec, _ = s.Record("a")
	assert.Equal(t, ModeRecord{Weight: 5.0, Trials: 2, Reward: 10}, rec)
}

func TestUpdateWeightFloor(t *testing.T) {
	s, _ := newTestSelector(t, []string{"a"}, 1)

	// Repeated zero rewards: the mean is 0 but the weight never drops
	// below the floor, so the mode stays reachable by exploitation.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Update("a", 0))
	}
	rec, _ := s.Record("a")
	assert.Equal(t, WeightFloor, rec.Weight)
	assert.Equal(t, 5, rec.Trials)
	assert.Equal(t, 0.0, rec.Reward)
}

func TestUpdateUnknownModeRejectedWithoutSideEffects(t *testing.T) {
	s, path := newTestSelector(t, []string{"a"}, 1)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = s.Update("made_up", 5)
	require.ErrorIs(t, err, ErrUnknownMode)

	_, ok := s.Record("made_up")
	assert.False(t, ok, "rejected mode must not enter the state")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected update must not touch the state file")
}

func TestUpdatePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandit.json")

	s, err := New([]string{"a", "b"}, path, rand.New(rand.NewSource(1)), testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Update("a", 8))

	reloaded, err := New([]string{"a", "b"}, path, rand.New(rand.NewSource(2)), testLogger())
	require.NoError(t, err)
	rec, _ := reloaded.Record("a")
	assert.Equal(t, ModeRecord{Weight: 8.0, Trials: 1, Reward: 8}, rec)
}

func TestCorruptStateStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandit.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	s, err := New([]string{"a"}, path, rand.New(rand.NewSource(1)), testLogger())
	require.NoError(t, err)
	rec, _ := s.Record("a")
	assert.Equal(t, 1.0, rec.Weight)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newTestSelector(t, []string{"a"}, 1)

	snap := s.Snapshot()
	snap["a"] = ModeRecord{Weight: 99}

	rec, _ := s.Record("a")
	assert.Equal(t, 1.0, rec.Weight)
}
