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
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// IndexedGraph is a directed graph over comparable labels. Every label is mapped to a dense integer index so that
// the graph can be handed to existing graph libraries: it implements the graph.Iterator of
// github.com/yourbasic/graph, and Gonum exports it as a gonum graph.
//
// IndexedGraph is not safe for concurrent use.
type IndexedGraph[T comparable] struct {
	ids    map[T]int
	labels []T
	// succ[i] is the set of successors of node i, in insertion order
	succ [][]int
	// pred[i] is the set of predecessors of node i, in insertion order
	pred  [][]int
	edges map[[2]int]bool
}

// NewIndexedGraph returns an empty graph
func NewIndexedGraph[T comparable]() *IndexedGraph[T] {
	return &IndexedGraph[T]{
		ids:   map[T]int{},
		edges: map[[2]int]bool{},
	}
}

// AddNode adds the label to the graph if it was not present, and returns its index.
func (g *IndexedGraph[T]) AddNode(x T) int {
	if id, ok := g.ids[x]; ok {
		return id
	}
	id := len(g.labels)
	g.ids[x] = id
	g.labels = append(g.labels, x)
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return id
}

// AddEdge adds the directed edge x -> y, adding the nodes if necessary. Returns true if the edge is new.
func (g *IndexedGraph[T]) AddEdge(x, y T) bool {
	i, j := g.AddNode(x), g.AddNode(y)
	key := [2]int{i, j}
	if g.edges[key] {
		return false
	}
	g.edges[key] = true
	g.succ[i] = append(g.succ[i], j)
	g.pred[j] = append(g.pred[j], i)
	return true
}

// HasEdge returns true if the graph contains x -> y
func (g *IndexedGraph[T]) HasEdge(x, y T) bool {
	i, ok1 := g.ids[x]
	j, ok2 := g.ids[y]
	return ok1 && ok2 && g.edges[[2]int{i, j}]
}

// ID returns the index of x and whether x is in the graph
func (g *IndexedGraph[T]) ID(x T) (int, bool) {
	id, ok := g.ids[x]
	return id, ok
}

// Label returns the label of node index i. Panics if i is out of bounds.
func (g *IndexedGraph[T]) Label(i int) T {
	return g.labels[i]
}

// Labels returns all the labels, in the order they were added.
func (g *IndexedGraph[T]) Labels() []T {
	return g.labels
}

// Successors returns the labels of the successors of x
func (g *IndexedGraph[T]) Successors(x T) []T {
	return g.neighbors(x, g.succ)
}

// Predecessors returns the labels of the predecessors of x
func (g *IndexedGraph[T]) Predecessors(x T) []T {
	return g.neighbors(x, g.pred)
}

func (g *IndexedGraph[T]) neighbors(x T, adj [][]int) []T {
	id, ok := g.ids[x]
	if !ok {
		return nil
	}
	res := make([]T, len(adj[id]))
	for k, j := range adj[id] {
		res[k] = g.labels[j]
	}
	return res
}

// NumEdges returns the number of edges in the graph
func (g *IndexedGraph[T]) NumEdges() int {
	return len(g.edges)
}

// Order implements the order of the graph.Iterator interface of yourbasic/graph
func (g *IndexedGraph[T]) Order() int {
	return len(g.labels)
}

// Visit implements the graph.Iterator interface of yourbasic/graph. Edges all have cost 1.
func (g *IndexedGraph[T]) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(g.succ) {
		return false
	}
	for _, w := range g.succ[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// Gonum returns a copy of the graph as a Gonum directed graph. Node IDs in the Gonum graph are the indices of the
// labels in g.
func (g *IndexedGraph[T]) Gonum() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for i := range g.labels {
		dg.AddNode(simple.Node(int64(i)))
	}
	keys := make([][2]int, 0, len(g.edges))
	for key := range g.edges {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	for _, key := range keys {
		if key[0] == key[1] {
			// simple graphs do not accept self loops
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(int64(key[0])), simple.Node(int64(key[1]))))
	}
	return dg
}

// GonumNode returns the gonum node corresponding to x, or nil if x is not in the graph
func (g *IndexedGraph[T]) GonumNode(x T) graph.Node {
	id, ok := g.ids[x]
	if !ok {
		return nil
	}
	return simple.Node(int64(id))
}

// String prints the edges of the graph, one per line
func (g *IndexedGraph[T]) String() string {
	s := ""
	for i, succs := range g.succ {
		for _, j := range succs {
			s += fmt.Sprintf("%v -> %v\n", g.labels[i], g.labels[j])
		}
	}
	return s
}
