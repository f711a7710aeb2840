package ref

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/Plexxi/j2/listree"
)

// ErrUnbound is returned by Value, Slot, Assign, Remove and Iterate when
// the reference is not bound far enough for the operation: Slot and
// Assign need at least a slot binding, Value, Remove and Iterate need a
// selected holder. Per spec.md §4.B this is a
// VM-level error the caller maps to the BROKEN environment state; the
// resolver itself never returns it.
var ErrUnbound = errors.New("ref: unbound reference")

// State is the lifecycle stage of a Reference, per spec.md §3.
type State int

const (
	// Unbound: created from text, never resolved, or resolve missed.
	Unbound State = iota
	// BoundSlot: the name exists but no holder is currently selected.
	BoundSlot
	// BoundHolder: a concrete value is selected.
	BoundHolder
)

// segment is one dotted/comma-delimited path element. The final segment
// in a Reference carries delim == false: it names the binding target
// rather than a step into a child value.
type segment struct {
	name  []byte
	delim bool
	end   listree.End
}

// Reference is a compiled path plus its current binding, REF from
// spec.md §3/§4.B.
type Reference struct {
	segments []segment

	state  State
	parent *listree.Value // parent of the final segment's slot
	slot   *listree.Slot
	holder *listree.Holder
}

// Compile parses a dotted/comma path into an unbound Reference. `.`
// enters the head of the preceding name's slot; `,` enters the tail. The
// final segment carries no delimiter. Grounded on original_source/
// edict.c's edict_name, which scans the same two structural delimiters.
func Compile(path []byte) (*Reference, error) {
	if len(path) == 0 {
		return nil, errors.New("ref: empty path")
	}
	var segs []segment
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' || path[i] == ',' {
			name := path[start:i]
			if len(name) == 0 {
				return nil, errors.Errorf("ref: empty segment in path %q", path)
			}
			owned := append([]byte(nil), name...)
			if i == len(path) {
				segs = append(segs, segment{name: owned, delim: false})
				break
			}
			end := listree.Head
			if path[i] == ',' {
				end = listree.Tail
			}
			segs = append(segs, segment{name: owned, delim: true, end: end})
			start = i + 1
		}
	}
	return &Reference{segments: segs}, nil
}

// MustCompile is Compile, panicking on error; for use with literal paths
// known at call-site to be well-formed.
func MustCompile(path string) *Reference {
	r, err := Compile([]byte(path))
	if err != nil {
		panic(err)
	}
	return r
}

// String reassembles the reference's original dotted/comma path text.
func (r *Reference) String() string {
	var buf bytes.Buffer
	for i, s := range r.segments {
		if i > 0 {
			if r.segments[i-1].end == listree.Tail {
				buf.WriteByte(',')
			} else {
				buf.WriteByte('.')
			}
		}
		buf.Write(s.name)
	}
	return buf.String()
}

// State returns the reference's current lifecycle stage.
func (r *Reference) State() State { return r.state }

// Resolve walks the reference from root, per spec.md §4.B's
// REF_resolve(root, ref, insert). If insert is true, missing slots and
// holders along the path are created with empty-bytes values so the full
// path becomes bindable (used by assignment). If insert is false, a
// missing segment yields a clean Unbound state rather than an error.
func (r *Reference) Resolve(root *listree.Value, insert bool) {
	current := root
	for i, s := range r.segments {
		last := i == len(r.segments)-1
		slot := listree.Lookup(current, s.name, insert)
		if slot == nil {
			r.reset()
			return
		}
		if last {
			r.parent = current
			r.slot = slot
			r.holder = slot.Peek(listree.Head)
			if r.holder != nil {
				r.state = BoundHolder
			} else {
				r.state = BoundSlot
			}
			return
		}
		h := slot.Peek(s.end)
		if h == nil {
			if !insert {
				r.reset()
				return
			}
			h = listree.Put(current, s.name, listree.NewValue(nil, listree.FlagNone), s.end)
		}
		current = h.Value()
	}
}

func (r *Reference) reset() {
	r.state = Unbound
	r.parent, r.slot, r.holder = nil, nil, nil
}

// Value returns the bound value-node (REF_ltv). Returns ErrUnbound if the
// reference is not at least slot-bound, or bound to a slot with no
// selected holder.
func (r *Reference) Value() (*listree.Value, error) {
	if r.holder == nil {
		return nil, errors.WithStack(ErrUnbound)
	}
	return r.holder.Value(), nil
}

// Slot returns the bound slot (REF_lti).
func (r *Reference) Slot() (*listree.Slot, error) {
	if r.state == Unbound {
		return nil, errors.WithStack(ErrUnbound)
	}
	return r.slot, nil
}

// Assign places value at the head of the bound slot, per REF_assign,
// shadowing any existing holder, and transitions the reference to
// holder-bound at that new holder. Requires the final segment to be at
// least slot-bound.
func (r *Reference) Assign(value *listree.Value) error {
	if r.state == Unbound || r.slot == nil {
		return errors.WithStack(ErrUnbound)
	}
	h := listree.Put(r.parent, r.slot.Name(), value, listree.Head)
	r.holder = h
	r.state = BoundHolder
	return nil
}

// Remove pops the currently bound holder from its slot (REF_remove),
// erasing the slot from its parent if that empties it. The reference
// reverts to slot-bound (or unbound if the slot itself was erased).
func (r *Reference) Remove() error {
	if r.state != BoundHolder {
		return errors.WithStack(ErrUnbound)
	}
	name := append([]byte(nil), r.slot.Name()...)
	listree.RemoveHolder(r.parent, name, r.holder)
	r.holder = nil
	if listree.Lookup(r.parent, name, false) == nil {
		r.state = Unbound
		r.slot = nil
	} else {
		r.state = BoundSlot
	}
	return nil
}

// Iterate advances the reference's cursor to the next holder in the
// bound slot's sequence (REF_iterate), optionally popping the one just
// visited. Yields Unbound once the sequence is exhausted.
func (r *Reference) Iterate(pop bool) error {
	if r.state != BoundHolder {
		return errors.WithStack(ErrUnbound)
	}
	cur := r.holder
	next := cur.Next()
	if pop {
		name := append([]byte(nil), r.slot.Name()...)
		listree.RemoveHolder(r.parent, name, cur)
		if listree.Lookup(r.parent, name, false) == nil {
			r.state, r.slot, r.holder = Unbound, nil, nil
			return nil
		}
	}
	r.holder = next
	if next == nil {
		r.reset()
	}
	return nil
}

// HierarchicalResolve attempts Resolve against each element of dicts in
// order, stopping at the first that yields at least a slot binding. This
// is vm_ref_hres from spec.md §4.B: how free names are looked up across
// nested scopes.
func HierarchicalResolve(dicts []*listree.Value, r *Reference) {
	for _, d := range dicts {
		r.Resolve(d, false)
		if r.state != Unbound {
			return
		}
	}
	r.reset()
}
