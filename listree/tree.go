package listree

// CompareNames orders two names the way original_source/listree.c's
// LT_strcmp does: a byte-wise comparison where, once the shared prefix
// compares equal, the shorter name sorts first. The result is the same as
// bytes.Compare's for []byte, which also treats a prefix as "less than"
// its extension; the comparison is written out here explicitly.
func CompareNames(a, b []byte) int {
	la, lb := len(a), len(b)
	n := la
	if lb < n {
		n = lb
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// node is an AVL tree node keyed by Slot name. The original C
// implementation backs the child map with a red-black tree (RBR/rb_node in
// original_source/listree.c); that rbtree implementation itself was not
// part of the filtered original-source dump (only its call sites were), so
// this is a from-scratch rewrite honoring the same O(log n)
// insert/find/erase and in-order-traversal contract via self-balancing AVL
// rotations instead.
type node struct {
	slot        *Slot
	left, right *node
	height      int
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor(n *node) int {
	if n == nil {
		return 0
	}
	return height(n.left) - height(n.right)
}

func updateHeight(n *node) {
	lh, rh := height(n.left), height(n.right)
	if lh > rh {
		n.height = lh + 1
	} else {
		n.height = rh + 1
	}
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	updateHeight(n)
	updateHeight(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	updateHeight(n)
	updateHeight(r)
	return r
}

func rebalance(n *node) *node {
	updateHeight(n)
	bf := balanceFactor(n)
	if bf > 1 {
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	}
	if bf < -1 {
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

// tree is the ordered associative container backing a Value's children.
type tree struct {
	root *node
	size int
}

func newTree() *tree { return &tree{} }

// find returns the Slot named name, or nil if absent.
func (t *tree) find(name []byte) *Slot {
	n := t.root
	for n != nil {
		switch c := CompareNames(name, n.slot.name); {
		case c == 0:
			return n.slot
		case c < 0:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil
}

// lookup returns the Slot named name, creating an empty one (with no
// holders yet) if insert is true and it does not already exist.
func (t *tree) lookup(name []byte, insert bool) *Slot {
	if s := t.find(name); s != nil {
		return s
	}
	if !insert {
		return nil
	}
	owned := make([]byte, len(name))
	copy(owned, name)
	s := &Slot{name: owned}
	t.root = t.insert(t.root, s)
	t.size++
	return s
}

func (t *tree) insert(n *node, s *Slot) *node {
	if n == nil {
		return &node{slot: s, height: 1}
	}
	switch c := CompareNames(s.name, n.slot.name); {
	case c < 0:
		n.left = t.insert(n.left, s)
	case c > 0:
		n.right = t.insert(n.right, s)
	default:
		n.slot = s
		return n
	}
	return rebalance(n)
}

// erase removes the slot named name. No-op if absent.
func (t *tree) erase(name []byte) {
	var removed bool
	t.root, removed = t.remove(t.root, name)
	if removed {
		t.size--
	}
}

func (t *tree) remove(n *node, name []byte) (*node, bool) {
	if n == nil {
		return nil, false
	}
	var removed bool
	switch c := CompareNames(name, n.slot.name); {
	case c < 0:
		n.left, removed = t.remove(n.left, name)
	case c > 0:
		n.right, removed = t.remove(n.right, name)
	default:
		removed = true
		switch {
		case n.left == nil:
			return n.right, true
		case n.right == nil:
			return n.left, true
		default:
			succ := n.right
			for succ.left != nil {
				succ = succ.left
			}
			n.slot = succ.slot
			n.right, _ = t.remove(n.right, succ.slot.name)
		}
	}
	if n == nil {
		return nil, removed
	}
	return rebalance(n), removed
}

// traverse walks slots in ascending name order, stopping at the first
// non-nil result from op.
func (t *tree) traverse(op func(*Slot) interface{}) interface{} {
	return inorder(t.root, op)
}

func inorder(n *node, op func(*Slot) interface{}) interface{} {
	if n == nil {
		return nil
	}
	if r := inorder(n.left, op); r != nil {
		return r
	}
	if r := op(n.slot); r != nil {
		return r
	}
	return inorder(n.right, op)
}

// releaseAll releases every value held by every slot in the tree.
func (t *tree) releaseAll() {
	releaseNode(t.root)
	t.root = nil
	t.size = 0
}

func releaseNode(n *node) {
	if n == nil {
		return
	}
	releaseNode(n.left)
	n.slot.releaseAll()
	releaseNode(n.right)
}
