package engine

import (
	enc "github.com/ndncomm/ndn-go/encoding"
)

// NameTrie is a trie of name components, one node per component.
// The zero value of V marks an absent value for PruneIf.
type NameTrie[V any] struct {
	val V
	key string
	par *NameTrie[V]
	chd map[string]*NameTrie[V]
	dep int
}

// NewNameTrie creates the root of an empty trie.
func NewNameTrie[V any]() *NameTrie[V] {
	return &NameTrie[V]{
		chd: map[string]*NameTrie[V]{},
	}
}

// Value returns the value stored at this node.
func (n *NameTrie[V]) Value() V {
	return n.val
}

// SetValue stores a value at this node.
func (n *NameTrie[V]) SetValue(v V) {
	n.val = v
}

// Parent returns the parent node, nil at the root.
func (n *NameTrie[V]) Parent() *NameTrie[V] {
	return n.par
}

// Depth returns the number of components from the root.
func (n *NameTrie[V]) Depth() int {
	return n.dep
}

// HasChildren returns whether the node has any children.
func (n *NameTrie[V]) HasChildren() bool {
	return len(n.chd) > 0
}

func (n *NameTrie[V]) child(c enc.Component, create bool) *NameTrie[V] {
	key := string(c.Bytes())
	ch, ok := n.chd[key]
	if !ok && create {
		ch = &NameTrie[V]{
			key: key,
			par: n,
			chd: map[string]*NameTrie[V]{},
			dep: n.dep + 1,
		}
		n.chd[key] = ch
	}
	return ch
}

// ExactMatch returns the node at name, or nil if it does not exist.
func (n *NameTrie[V]) ExactMatch(name enc.Name) *NameTrie[V] {
	cur := n
	for _, c := range name {
		cur = cur.child(c, false)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// PrefixMatch returns the deepest existing node along name.
func (n *NameTrie[V]) PrefixMatch(name enc.Name) *NameTrie[V] {
	cur := n
	for _, c := range name {
		next := cur.child(c, false)
		if next == nil {
			return cur
		}
		cur = next
	}
	return cur
}

// MatchAlways returns the node at name, creating the path as needed.
func (n *NameTrie[V]) MatchAlways(name enc.Name) *NameTrie[V] {
	cur := n
	for _, c := range name {
		cur = cur.child(c, true)
	}
	return cur
}

// FirstSatisfyOrNew returns the first node along name whose value
// satisfies pred, creating the rest of the path otherwise.
func (n *NameTrie[V]) FirstSatisfyOrNew(name enc.Name, pred func(V) bool) *NameTrie[V] {
	cur := n
	for _, c := range name {
		cur = cur.child(c, true)
		if pred(cur.val) {
			return cur
		}
	}
	return cur
}

// Prune removes this node if it has no children, cascading to parents
// that become childless. The root is never removed.
func (n *NameTrie[V]) Prune() {
	if n.par == nil || len(n.chd) > 0 {
		return
	}
	delete(n.par.chd, n.key)
	n.par.Prune()
}

// PruneIf removes this node if it has no children and its value
// satisfies pred, cascading to parents.
func (n *NameTrie[V]) PruneIf(pred func(V) bool) {
	if n.par == nil || len(n.chd) > 0 || !pred(n.val) {
		return
	}
	delete(n.par.chd, n.key)
	n.par.PruneIf(pred)
}
