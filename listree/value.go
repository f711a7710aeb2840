package listree

// Flag bits carried by a Value. Recovered from the LTV flags of the
// original implementation (see original_source/listree.c and vm.c, where
// LT_DUP/LT_OWN/LT_BIN/LT_RO/LT_NONE/LT_LIST appear as flag arguments to
// LTV_init/LTV_new).
type Flag uint32

const (
	// FlagOwn marks a Value as owning (and therefore responsible for
	// releasing) its byte buffer, as opposed to borrowing a caller-owned
	// slice. Set for any Value created from a LIT bytecode record.
	FlagOwn Flag = 1 << iota
	// FlagBin marks the byte buffer as binary data rather than printable
	// text; purely informational, no code in this module reads it.
	FlagBin
	// FlagReadOnly marks a Value whose buffer and children must not be
	// mutated in place. It is informational only: nothing in this module
	// sets it or enforces it.
	FlagReadOnly
	// FlagNone marks a structural placeholder Value with no meaningful
	// byte buffer, created by Resolve(insert=true) to make a path bindable.
	FlagNone
	// FlagList marks a Value that is used purely as an ordered sequence
	// container (no name lookups expected against it). No code in this
	// module sets it; the VM's resource stacks are plain Go slices.
	FlagList
)

// Value is the LTV: a node that may carry an opaque byte buffer, a tree of
// named children, or both at once.
type Value struct {
	Bytes    []byte
	Flags    Flag
	children *tree
	refs     int
}

// NewValue creates a Value wrapping data with the given flags. data is
// stored as is, not copied; callers that set FlagOwn must not retain
// another reference to data.
func NewValue(data []byte, flags Flag) *Value {
	return &Value{Bytes: data, Flags: flags}
}

// NewText is a convenience constructor for a text Value copied from s.
func NewText(s string) *Value {
	return NewValue([]byte(s), FlagOwn)
}

// Refs returns the current holder/reference count.
func (v *Value) Refs() int { return v.refs }

// Retain increments the reference count. Called when a new Holder is
// linked to v (Slot.push) and by the VM's DUP opcode; References and
// plain pushes onto WIP do not retain.
func (v *Value) Retain() { v.refs++ }

// Release decrements the reference count. When it reaches zero the Value's
// child tree is released (recursively releasing every Holder it owns).
// Per the ownership discipline in spec.md §9, References never call
// Release; only Holders (via Slot) and the VM's working registers do.
func (v *Value) Release() {
	if v == nil {
		return
	}
	v.refs--
	if v.refs <= 0 && v.children != nil {
		v.children.releaseAll()
		v.children = nil
	}
}

// ensureChildren lazily allocates the child tree.
func (v *Value) ensureChildren() *tree {
	if v.children == nil {
		v.children = newTree()
	}
	return v.children
}

// ChildCount returns the number of named slots directly under v.
func (v *Value) ChildCount() int {
	if v.children == nil {
		return 0
	}
	return v.children.size
}
