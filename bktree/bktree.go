// Package bktree implements a Burkhard-Keller tree: a metric index answering
// "every item within distance r of q" queries by pruning subtrees with the
// triangle inequality.
//
// The distance function must be a metric over integers: non-negative,
// symmetric, zero for identical items and obeying the triangle inequality.
// Pruning is only correct under those conditions.
package bktree

import (
	"iter"
	"sort"
)

// DistanceFunc measures the distance between two items.
type DistanceFunc[T any] func(a, b T) int

// Found is an item returned by a radius query together with its exact
// distance to the query.
type Found[T any] struct {
	Item     T
	Distance int
}

// Index is a set of items supporting radius queries.
type Index[T any] interface {
	// InsertAll adds every item; all of them become discoverable.
	InsertAll(items []T)
	// Find returns every item within radius of query. Order is unspecified.
	Find(query T, radius int) []Found[T]
	// Iter walks every indexed item. Each call starts a fresh traversal.
	Iter() iter.Seq[T]
	// Len returns the number of indexed items.
	Len() int
}

type edge[T any] struct {
	dist int
	node *node[T]
}

type node[T any] struct {
	item T
	// children sorted by dist
	children []edge[T]
}

func (n *node[T]) child(dist int) (*node[T], int) {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].dist >= dist })
	if i < len(n.children) && n.children[i].dist == dist {
		return n.children[i].node, i
	}
	return nil, i
}

// Tree is a BK-tree. It is not safe for concurrent mutation; concurrent
// Find and Iter calls are fine once loading is done.
type Tree[T any] struct {
	distance DistanceFunc[T]
	root     *node[T]
	size     int
}

// New creates an empty tree over the given metric.
func New[T any](distance DistanceFunc[T]) *Tree[T] {
	return &Tree[T]{distance: distance}
}

// Insert adds a single item. Items at distance 0 from an existing item are
// kept as separate entries.
func (t *Tree[T]) Insert(item T) {
	t.size++
	if t.root == nil {
		t.root = &node[T]{item: item}
		return
	}

	cur := t.root
	for {
		d := t.distance(cur.item, item)
		next, pos := cur.child(d)
		if next == nil {
			cur.children = append(cur.children, edge[T]{})
			copy(cur.children[pos+1:], cur.children[pos:])
			cur.children[pos] = edge[T]{dist: d, node: &node[T]{item: item}}
			return
		}
		cur = next
	}
}

// InsertAll adds every item in order.
func (t *Tree[T]) InsertAll(items []T) {
	for _, item := range items {
		t.Insert(item)
	}
}

// Find returns every item whose distance to query is at most radius.
func (t *Tree[T]) Find(query T, radius int) []Found[T] {
	if t.root == nil || radius < 0 {
		return nil
	}

	var found []Found[T]
	stack := []*node[T]{t.root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := t.distance(query, cur.item)
		if d <= radius {
			found = append(found, Found[T]{Item: cur.item, Distance: d})
		}

		// Only edges in [d-radius, d+radius] can lead to matches.
		lo := d - radius
		start := sort.Search(len(cur.children), func(i int) bool { return cur.children[i].dist >= lo })
		for i := len(cur.children) - 1; i >= start; i-- {
			e := cur.children[i]
			if e.dist > d+radius {
				continue
			}
			stack = append(stack, e.node)
		}
	}
	return found
}

// Iter walks the tree depth first.
func (t *Tree[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		if t.root == nil {
			return
		}
		stack := []*node[T]{t.root}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur.item) {
				return
			}
			for i := len(cur.children) - 1; i >= 0; i-- {
				stack = append(stack, cur.children[i].node)
			}
		}
	}
}

// Len returns the number of items inserted.
func (t *Tree[T]) Len() int {
	return t.size
}

var _ Index[int] = (*Tree[int])(nil)
