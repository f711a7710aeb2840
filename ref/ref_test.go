package ref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plexxi/j2/listree"
)

func TestCompileSplitsOnDotAndComma(t *testing.T) {
	r, err := Compile([]byte("a.b,c"))
	require.NoError(t, err)
	assert.Equal(t, "a.b,c", r.String())
	require.Len(t, r.segments, 3)
	assert.True(t, r.segments[0].delim)
	assert.Equal(t, listree.Head, r.segments[0].end)
	assert.True(t, r.segments[1].delim)
	assert.Equal(t, listree.Tail, r.segments[1].end)
	assert.False(t, r.segments[2].delim)
}

func TestResolveMissingWithoutInsertIsUnbound(t *testing.T) {
	root := listree.NewValue(nil, listree.FlagNone)
	r := MustCompile("missing")
	r.Resolve(root, false)
	assert.Equal(t, Unbound, r.State())
	_, err := r.Value()
	assert.ErrorIs(t, err, ErrUnbound)
}

func TestPathIdempotence(t *testing.T) {
	root := listree.NewValue(nil, listree.FlagNone)
	listree.Put(root, []byte("a"), listree.NewText("v"), listree.Head)

	r1 := MustCompile("a")
	r1.Resolve(root, false)
	v1, err := r1.Value()
	require.NoError(t, err)

	r2 := MustCompile("a")
	r2.Resolve(root, false)
	v2, err := r2.Value()
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	assert.Equal(t, 1, root.ChildCount())
}

func TestInsertCreatesPath(t *testing.T) {
	root := listree.NewValue(nil, listree.FlagNone)
	r := MustCompile("a.b")
	r.Resolve(root, true)
	require.NoError(t, r.Assign(listree.NewText("leaf")))

	r2 := MustCompile("a.b")
	r2.Resolve(root, false)
	v, err := r2.Value()
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(v.Bytes))
}

func TestAssignThenRemove(t *testing.T) {
	root := listree.NewValue(nil, listree.FlagNone)
	r := MustCompile("x")
	r.Resolve(root, true)
	require.NoError(t, r.Assign(listree.NewText("1")))
	assert.Equal(t, BoundHolder, r.State())

	require.NoError(t, r.Remove())
	assert.Nil(t, listree.Lookup(root, []byte("x"), false))
}

func TestHierarchicalShadowing(t *testing.T) {
	outer := listree.NewValue(nil, listree.FlagNone)
	inner := listree.NewValue(nil, listree.FlagNone)
	listree.Put(outer, []byte("x"), listree.NewText("outer-val"), listree.Head)
	listree.Put(inner, []byte("x"), listree.NewText("inner-val"), listree.Head)

	r := MustCompile("x")
	// DICT ordered top-to-bottom: inner is the current (innermost) scope.
	HierarchicalResolve([]*listree.Value{inner, outer}, r)
	v, err := r.Value()
	require.NoError(t, err)
	assert.Equal(t, "inner-val", string(v.Bytes))
}

func TestIterateAdvancesCursor(t *testing.T) {
	root := listree.NewValue(nil, listree.FlagNone)
	listree.Put(root, []byte("a"), listree.NewText("second"), listree.Tail)
	listree.Put(root, []byte("a"), listree.NewText("first"), listree.Head)

	r := MustCompile("a")
	r.Resolve(root, false)
	v, err := r.Value()
	require.NoError(t, err)
	assert.Equal(t, "first", string(v.Bytes))

	require.NoError(t, r.Iterate(false))
	v, err = r.Value()
	require.NoError(t, err)
	assert.Equal(t, "second", string(v.Bytes))

	require.NoError(t, r.Iterate(false))
	assert.Equal(t, Unbound, r.State())
}
