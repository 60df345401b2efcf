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

import (
	"sort"

	"github.com/yourbasic/graph"
)

// FindAllElementaryCycles finds all elementary cycles in the graph g. Each cycle is returned as the list of indices of
// the nodes on the cycle, starting and ending with the same node. Self loops are returned as cycles of length one.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
func FindAllElementaryCycles[T comparable](g *IndexedGraph[T]) [][]int {
	s := &johnsonState{
		blocked: map[int]bool{},
		blist:   map[int]map[int]bool{},
	}
	start := 0
	for start < g.Order() {
		sub := subgraphFrom(g, start)
		least := -1
		for _, component := range graph.StrongComponents(sub) {
			if len(component) < 2 && !hasSelfLoop(sub, component) {
				continue
			}
			sort.Ints(component)
			if least < 0 || component[0] < least {
				least = component[0]
			}
		}
		if least < 0 {
			break
		}
		s.stack = nil
		s.blocked = map[int]bool{}
		s.blist = map[int]map[int]bool{}
		s.circuit(least, least, sub)
		start = least + 1
	}
	return s.cycles
}

// restricted is the subgraph of an IndexedGraph induced by the nodes with index >= min.
type restricted struct {
	order int
	min   int
	succ  [][]int
}

func subgraphFrom[T comparable](g *IndexedGraph[T], min int) restricted {
	return restricted{order: g.Order(), min: min, succ: g.succ}
}

func (r restricted) Order() int { return r.order }

func (r restricted) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < r.min {
		return false
	}
	for _, w := range r.succ[v] {
		if w < r.min {
			continue
		}
		if do(w, 1) {
			return true
		}
	}
	return false
}

func hasSelfLoop(r restricted, component []int) bool {
	if len(component) != 1 {
		return false
	}
	v := component[0]
	return r.Visit(v, func(w int, _ int64) bool { return w == v })
}

type johnsonState struct {
	blocked map[int]bool
	blist   map[int]map[int]bool
	stack   []int
	cycles  [][]int
}

func (s *johnsonState) unblock(u int) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *johnsonState) circuit(v int, root int, g restricted) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	g.Visit(v, func(w int, _ int64) bool {
		if w == root {
			cycle := make([]int, len(s.stack), len(s.stack)+1)
			copy(cycle, s.stack)
			s.cycles = append(s.cycles, append(cycle, w))
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, root, g) {
				found = true
			}
		}
		return false
	})

	if found {
		s.unblock(v)
	} else {
		g.Visit(v, func(w int, _ int64) bool {
			if s.blist[w] == nil {
				s.blist[w] = map[int]bool{}
			}
			s.blist[w][v] = true
			return false
		})
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
