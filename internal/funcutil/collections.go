// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package funcutil

import (
	"golang.org/x/exp/slices"
)

// Map returns a new slice b such for any i <= len(a), b[i] = f(a[i])
func Map[T any, S any](a []T, f func(T) S) []S {
	b := make([]S, 0, len(a))
	for _, x := range a {
		b = append(b, f(x))
	}
	return b
}

// Exists returns true when there exists some x in slice a such that f(x), otherwise false.
func Exists[T any](a []T, f func(T) bool) bool {
	for _, x := range a {
		if f(x) {
			return true
		}
	}
	return false
}

// SortedByString returns a copy of a sorted by the string returned by key. Used wherever results built from maps
// need a deterministic order.
func SortedByString[T any](a []T, key func(T) string) []T {
	b := slices.Clone(a)
	slices.SortStableFunc(b, func(x, y T) int {
		kx, ky := key(x), key(y)
		switch {
		case kx < ky:
			return -1
		case kx > ky:
			return 1
		default:
			return 0
		}
	})
	return b
}

// OrderedSet is a set that remembers insertion order. The zero value is not usable, use NewOrderedSet.
// Iteration with Items is deterministic, which keeps the worklist algorithms reproducible.
type OrderedSet[T comparable] struct {
	index map[T]int
	items []T
}

// NewOrderedSet returns an empty set
func NewOrderedSet[T comparable]() *OrderedSet[T] {
	return &OrderedSet[T]{index: map[T]int{}}
}

// Add inserts x and returns true if x was not already in the set.
func (s *OrderedSet[T]) Add(x T) bool {
	if _, ok := s.index[x]; ok {
		return false
	}
	s.index[x] = len(s.items)
	s.items = append(s.items, x)
	return true
}

// Has returns true if x is in the set. Safe on a nil set.
func (s *OrderedSet[T]) Has(x T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[x]
	return ok
}

// Len returns the number of elements in the set. Safe on a nil set.
func (s *OrderedSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the elements in insertion order. The returned slice must not be modified.
// Safe on a nil set.
func (s *OrderedSet[T]) Items() []T {
	if s == nil {
		return nil
	}
	return s.items
}

// Snapshot returns a copy of the elements in insertion order, which can be iterated while the set grows.
func (s *OrderedSet[T]) Snapshot() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// GetOrCreate returns m[k], inserting a new empty set first if needed.
func GetOrCreate[K comparable, T comparable](m map[K]*OrderedSet[T], k K) *OrderedSet[T] {
	s, ok := m[k]
	if !ok {
		s = NewOrderedSet[T]()
		m[k] = s
	}
	return s
}
