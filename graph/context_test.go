package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_TypedLookup(t *testing.T) {
	key := NewContextKey[string]("user.name")

	c := With(NewContext(), key, "ada")

	got, ok := Value(c, key)
	assert.True(t, ok)
	assert.Equal(t, "ada", got)
}

func TestContext_MissingKey(t *testing.T) {
	key := NewContextKey[int]("missing")

	got, ok := Value(NewContext(), key)
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestContext_TypeMismatchReturnsNothing(t *testing.T) {
	strKey := NewContextKey[string]("shared.name")
	intKey := NewContextKey[int]("shared.name")

	c := With(NewContext(), strKey, "42")

	// Same name, different recorded type: the lookup must miss rather
	// than coerce.
	got, ok := Value(c, intKey)
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestContext_WithDoesNotMutateOriginal(t *testing.T) {
	key := NewContextKey[string]("k")

	base := With(NewContext(), key, "old")
	derived := With(base, key, "new")

	baseVal, _ := Value(base, key)
	derivedVal, _ := Value(derived, key)
	assert.Equal(t, "old", baseVal)
	assert.Equal(t, "new", derivedVal)
}

func TestContext_Merge(t *testing.T) {
	a := NewContextKey[string]("a")
	b := NewContextKey[string]("b")

	left := With(NewContext(), a, "left-a")
	left = With(left, b, "left-b")
	right := With(NewContext(), b, "right-b")

	merged := left.Merge(right)

	gotA, _ := Value(merged, a)
	gotB, _ := Value(merged, b)
	assert.Equal(t, "left-a", gotA)
	assert.Equal(t, "right-b", gotB, "entries of the merged-in context win on collision")

	// Merge never mutates the receiver.
	origB, _ := Value(left, b)
	assert.Equal(t, "left-b", origB)
}

func TestContext_MergeEmptyReturnsSame(t *testing.T) {
	key := NewContextKey[string]("k")
	c := With(NewContext(), key, "v")

	merged := c.Merge(NewContext())
	got, ok := Value(merged, key)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, merged.Len())
}

func TestContext_FlattensDeepLayering(t *testing.T) {
	key := NewContextKey[int]("counter")

	c := NewContext()
	for i := 0; i < 100; i++ {
		c = With(c, key, i)
	}

	got, ok := Value(c, key)
	require.True(t, ok)
	assert.Equal(t, 99, got)
	// Flattening keeps the chain bounded.
	assert.LessOrEqual(t, c.depth, maxLayerDepth+1)
}

func TestContext_SnapshotIsACopy(t *testing.T) {
	key := NewContextKey[string]("k")
	c := With(NewContext(), key, "v")

	snap := c.Snapshot()
	snap["k"] = "mutated"

	got, _ := Value(c, key)
	assert.Equal(t, "v", got)
}

func TestContext_KeysSorted(t *testing.T) {
	c := With(NewContext(), NewContextKey[int]("b"), 1)
	c = With(c, NewContextKey[int]("a"), 2)
	c = With(c, NewContextKey[int]("c"), 3)

	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())
	assert.Equal(t, 3, c.Len())
}

func TestRestoreContext_RoundTrip(t *testing.T) {
	key := NewContextKey[string]("k")
	c := With(NewContext(), key, "v")

	restored := RestoreContext(c.Snapshot())
	got, ok := Value(restored, key)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}
