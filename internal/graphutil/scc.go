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

package graphutil

// StronglyConnectedComponents is an implementation of Tarjan's strongly connected component (SCC) algorithm
// for generic nodes T.
// Successors returns a slice containing the targets of directed edges out from the given node.
// The order of SCCs is toposorted so that successors appear first; i.e. if the graph is a tree then
// in order from leaves towards the root. The order within an SCC is arbitrary.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	t := &tarjan[T]{
		successors: successors,
		onStack:    map[T]bool{},
		index:      map[T]int{},
		lowlink:    map[T]int{},
	}
	for _, v := range nodes {
		if _, visited := t.index[v]; !visited {
			t.visit(v)
		}
	}
	return t.sccs
}

type tarjan[T comparable] struct {
	successors func(T) []T
	stack      []T
	onStack    map[T]bool
	index      map[T]int
	lowlink    map[T]int
	next       int
	sccs       [][]T
}

func (t *tarjan[T]) visit(v T) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.successors(v) {
		if _, visited := t.index[w]; !visited {
			t.visit(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var scc []T
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// IsAcyclic returns true when no node reaches itself through successors, including through self loops.
func IsAcyclic[T comparable](nodes []T, successors func(T) []T) bool {
	for _, scc := range StronglyConnectedComponents(nodes, successors) {
		if len(scc) > 1 {
			return false
		}
		for _, w := range successors(scc[0]) {
			if w == scc[0] {
				return false
			}
		}
	}
	return true
}
