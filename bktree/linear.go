package bktree

import "iter"

// Linear answers radius queries by comparing against every item. It is the
// reference the tree's results are checked against.
type Linear[T any] struct {
	distance DistanceFunc[T]
	items    []T
}

// NewLinear creates an empty brute-force index.
func NewLinear[T any](distance DistanceFunc[T]) *Linear[T] {
	return &Linear[T]{distance: distance}
}

func (l *Linear[T]) InsertAll(items []T) {
	l.items = append(l.items, items...)
}

func (l *Linear[T]) Find(query T, radius int) []Found[T] {
	var found []Found[T]
	for _, item := range l.items {
		if d := l.distance(query, item); d <= radius {
			found = append(found, Found[T]{Item: item, Distance: d})
		}
	}
	return found
}

func (l *Linear[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range l.items {
			if !yield(item) {
				return
			}
		}
	}
}

func (l *Linear[T]) Len() int {
	return len(l.items)
}

var _ Index[int] = (*Linear[int])(nil)
