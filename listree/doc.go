// Package listree implements the LisTree: a named, hierarchical multi-map
// that is simultaneously used as a dictionary, an operand stack and a heap
// of user data by the rest of this module.
//
// A Value (the LTV of the original design) carries an optional byte buffer
// and an ordered-by-name map of child Slots. A Slot (the LTI) owns an
// ordered sequence of Holders (the LTVR), each referencing exactly one
// Value. Values are reference counted; a Value with no remaining Holder,
// working register, or Reference pointing at it is eligible for reclaim.
//
// The child map orders its entries by exact byte-string comparison
// (CompareNames) and supports O(log n) insert/find/erase via a small
// self-balancing binary search tree (see tree.go), with in-order traversal
// for Traverse.
package listree
