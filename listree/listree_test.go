package listree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	root := NewValue(nil, FlagNone)
	v := NewText("hello")
	Put(root, []byte("a"), v, Head)
	require.Equal(t, 1, v.Refs())

	got := Get(root, []byte("a"), false, Head)
	require.NotNil(t, got)
	assert.Equal(t, "hello", string(got.Bytes))
	// peek must not mutate the refcount: property 1.
	assert.Equal(t, 1, v.Refs())

	popped := Get(root, []byte("a"), true, Head)
	require.NotNil(t, popped)
	assert.Equal(t, 0, v.Refs())
}

func TestSlotPrune(t *testing.T) {
	root := NewValue(nil, FlagNone)
	v := NewText("x")
	Put(root, []byte("a"), v, Head)
	require.NotNil(t, Lookup(root, []byte("a"), false))

	Get(root, []byte("a"), true, Head)
	assert.Nil(t, Lookup(root, []byte("a"), false), "slot must be pruned once its holder sequence is empty")
}

func TestMultipleHoldersOrdering(t *testing.T) {
	root := NewValue(nil, FlagNone)
	v1, v2 := NewText("1"), NewText("2")
	Put(root, []byte("a"), v1, Tail)
	Put(root, []byte("a"), v2, Head)

	// v2 pushed at Head, so it is now at the head.
	top := Get(root, []byte("a"), true, Head)
	assert.Equal(t, "2", string(top.Bytes))
	next := Get(root, []byte("a"), true, Head)
	assert.Equal(t, "1", string(next.Bytes))
	assert.Nil(t, Lookup(root, []byte("a"), false))
}

func TestNameOrderTraversal(t *testing.T) {
	root := NewValue(nil, FlagNone)
	names := []string{"zebra", "apple", "mango", "ant", "an"}
	for _, n := range names {
		Put(root, []byte(n), NewText(n), Head)
	}
	var order []string
	Traverse(root, func(s *Slot) interface{} {
		order = append(order, string(s.Name()))
		return nil
	})
	want := []string{"an", "ant", "apple", "mango", "zebra"}
	assert.Equal(t, want, order)
}

func TestCompareNamesPrefixOrdering(t *testing.T) {
	assert.Less(t, CompareNames([]byte("an"), []byte("ant")), 0)
	assert.Greater(t, CompareNames([]byte("ant"), []byte("an")), 0)
	assert.Equal(t, 0, CompareNames([]byte("ant"), []byte("ant")))
}

func TestRefcountSoundnessAcrossPutGetRemove(t *testing.T) {
	root := NewValue(nil, FlagNone)
	v := NewText("shared")
	Put(root, []byte("a"), v, Head)
	Put(root, []byte("b"), v, Head)
	assert.Equal(t, 2, v.Refs())

	Get(root, []byte("a"), true, Head)
	assert.Equal(t, 1, v.Refs())
	Get(root, []byte("b"), true, Head)
	assert.Equal(t, 0, v.Refs())
}

func TestValueReleaseCascadesChildren(t *testing.T) {
	parent := NewValue(nil, FlagNone)
	child := NewText("child")
	Put(parent, []byte("k"), child, Head)
	parent.Retain() // simulate one holder elsewhere
	require.Equal(t, 1, child.Refs())

	parent.Release()
	assert.Equal(t, 0, child.Refs())
}
