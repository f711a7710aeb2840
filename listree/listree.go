package listree

// Lookup finds (and optionally creates) the slot named name under parent.
// This is LT_lookup from spec.md §4.A.
func Lookup(parent *Value, name []byte, insert bool) *Slot {
	if parent == nil {
		return nil
	}
	t := parent.children
	if t == nil {
		if !insert {
			return nil
		}
		t = parent.ensureChildren()
	}
	return t.lookup(name, insert)
}

// Put finds-or-creates a slot named name in parent and appends (or
// prepends, per end) a holder for value, bumping value's refcount. This is
// LT_put from spec.md §4.A.
func Put(parent *Value, name []byte, value *Value, end End) *Holder {
	if parent == nil || value == nil {
		return nil
	}
	s := Lookup(parent, name, true)
	return s.push(value, end)
}

// Get finds a slot named name under parent and peeks or pops the head/tail
// holder, returning the referenced Value. When pop empties the slot, the
// slot is erased from parent. This is LT_get from spec.md §4.A.
func Get(parent *Value, name []byte, pop bool, end End) *Value {
	if parent == nil {
		return nil
	}
	s := Lookup(parent, name, false)
	if s == nil {
		return nil
	}
	var h *Holder
	if pop {
		h = s.pop(end)
	} else {
		h = s.peek(end)
	}
	if h == nil {
		return nil
	}
	v := h.value
	if pop {
		v.Release()
		if s.Empty() {
			parent.children.erase(name)
		}
	}
	return v
}

// RemoveHolder unlinks h from the slot named name under parent, releases
// its value reference, and erases the slot from parent if it is left
// empty. This is the holder-granular half of REF_remove: callers that
// already hold a specific Holder (via an iteration cursor) use this
// instead of Get's head/tail-only pop.
func RemoveHolder(parent *Value, name []byte, h *Holder) {
	if parent == nil || parent.children == nil || h == nil {
		return
	}
	s := parent.children.find(name)
	if s == nil {
		return
	}
	s.unlink(h)
	h.value.Release()
	if s.Empty() {
		parent.children.erase(name)
	}
}

// Traverse iterates the slots of parent in name order, stopping at the
// first non-nil result returned by op. This is LT_traverse from spec.md
// §4.A.
func Traverse(parent *Value, op func(*Slot) interface{}) interface{} {
	if parent == nil || parent.children == nil {
		return nil
	}
	return parent.children.traverse(op)
}
