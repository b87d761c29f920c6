package ordering

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(ids ...string) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id, Position: i}
	}
	return out
}

func intPtr(v int) *int { return &v }

// apply 写回变更并按 position 重新排序，模拟存储层
func apply(siblings []Item, updates []Update) []Item {
	byID := make(map[string]int, len(siblings))
	for i, s := range siblings {
		byID[s.ID] = i
	}
	out := append([]Item(nil), siblings...)
	for _, u := range updates {
		out[byID[u.ID]].Position = u.Position
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func assertDense(t *testing.T, siblings []Item) {
	t.Helper()
	seen := make(map[int]bool, len(siblings))
	for _, s := range siblings {
		require.GreaterOrEqual(t, s.Position, 0)
		require.Less(t, s.Position, len(siblings))
		require.False(t, seen[s.Position], "duplicate position %d", s.Position)
		seen[s.Position] = true
	}
}

func TestInsert(t *testing.T) {
	t.Run("append by default", func(t *testing.T) {
		pos, updates := Insert(items("a", "b"), nil)
		assert.Equal(t, 2, pos)
		assert.Empty(t, updates)
	})

	t.Run("insert at head shifts all", func(t *testing.T) {
		pos, updates := Insert(items("a", "b"), intPtr(0))
		assert.Equal(t, 0, pos)
		assert.Equal(t, []Update{{ID: "a", Position: 1}, {ID: "b", Position: 2}}, updates)
	})

	t.Run("insert in middle", func(t *testing.T) {
		pos, updates := Insert(items("a", "b", "c"), intPtr(1))
		assert.Equal(t, 1, pos)
		assert.Equal(t, []Update{{ID: "b", Position: 2}, {ID: "c", Position: 3}}, updates)
	})

	t.Run("position beyond end is clamped", func(t *testing.T) {
		pos, updates := Insert(items("a"), intPtr(10))
		assert.Equal(t, 1, pos)
		assert.Empty(t, updates)
	})

	t.Run("negative position is clamped", func(t *testing.T) {
		pos, _ := Insert(items("a"), intPtr(-3))
		assert.Equal(t, 0, pos)
	})

	t.Run("empty scope", func(t *testing.T) {
		pos, updates := Insert(nil, intPtr(0))
		assert.Equal(t, 0, pos)
		assert.Empty(t, updates)
	})
}

func TestMove(t *testing.T) {
	t.Run("move down shifts range up", func(t *testing.T) {
		pos, updates, err := Move(items("a", "b", "c", "d"), "a", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, pos)
		assert.ElementsMatch(t, []Update{
			{ID: "b", Position: 0},
			{ID: "c", Position: 1},
			{ID: "a", Position: 2},
		}, updates)
	})

	t.Run("move up shifts range down", func(t *testing.T) {
		pos, updates, err := Move(items("a", "b", "c", "d"), "d", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, pos)
		assert.ElementsMatch(t, []Update{
			{ID: "d", Position: 1},
			{ID: "b", Position: 2},
			{ID: "c", Position: 3},
		}, updates)
	})

	t.Run("same position is a no-op", func(t *testing.T) {
		for i, id := range []string{"a", "b", "c"} {
			pos, updates, err := Move(items("a", "b", "c"), id, i)
			require.NoError(t, err)
			assert.Equal(t, i, pos)
			assert.Empty(t, updates)
		}
	})

	t.Run("target clamped to last index", func(t *testing.T) {
		pos, _, err := Move(items("a", "b", "c"), "a", 99)
		require.NoError(t, err)
		assert.Equal(t, 2, pos)
	})

	t.Run("single item never moves", func(t *testing.T) {
		pos, updates, err := Move(items("a"), "a", 5)
		require.NoError(t, err)
		assert.Equal(t, 0, pos)
		assert.Empty(t, updates)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := Move(items("a"), "x", 0)
		assert.ErrorIs(t, err, ErrNotInScope)
	})
}

func TestRemove(t *testing.T) {
	updates, err := Remove(items("a", "b", "c"), "a")
	require.NoError(t, err)
	assert.Equal(t, []Update{{ID: "b", Position: 0}, {ID: "c", Position: 1}}, updates)

	updates, err = Remove(items("a", "b", "c"), "c")
	require.NoError(t, err)
	assert.Empty(t, updates)

	_, err = Remove(items("a"), "x")
	assert.ErrorIs(t, err, ErrNotInScope)
}

func TestNormalize_HealsGapsAndDuplicates(t *testing.T) {
	broken := []Item{{ID: "a", Position: 0}, {ID: "b", Position: 0}, {ID: "c", Position: 7}}
	fixed := apply(broken, Normalize(broken))
	assertDense(t, fixed)
	assert.Equal(t, []string{"a", "b", "c"}, []string{fixed[0].ID, fixed[1].ID, fixed[2].ID})
}

func TestRandomOperationsStayDense(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var scope []Item
	next := 0

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(scope) == 0:
			id := fmt.Sprintf("n%d", next)
			next++
			var pos *int
			if rng.Intn(2) == 0 {
				pos = intPtr(rng.Intn(len(scope) + 2))
			}
			p, updates := Insert(scope, pos)
			scope = apply(scope, updates)
			scope = apply(append(scope, Item{ID: id, Position: p}), nil)
		case op == 1:
			victim := scope[rng.Intn(len(scope))]
			target := rng.Intn(len(scope) + 1)
			_, updates, err := Move(scope, victim.ID, target)
			require.NoError(t, err)
			scope = apply(scope, updates)
		default:
			victim := scope[rng.Intn(len(scope))]
			updates, err := Remove(scope, victim.ID)
			require.NoError(t, err)
			rest := scope[:0:0]
			for _, s := range scope {
				if s.ID != victim.ID {
					rest = append(rest, s)
				}
			}
			scope = apply(rest, updates)
		}
		assertDense(t, scope)
	}
}

func TestMoveTwiceIsIdempotent(t *testing.T) {
	scope := items("a", "b", "c", "d", "e")
	_, updates, err := Move(scope, "b", 3)
	require.NoError(t, err)
	scope = apply(scope, updates)

	_, updates, err = Move(scope, "b", 3)
	require.NoError(t, err)
	assert.Empty(t, updates)
}
