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

package ifds

import (
	"fmt"
	"strings"

	"github.com/UnitTestBot/jacodb-sub000/internal/funcutil"
	"github.com/UnitTestBot/jacodb-sub000/internal/graphutil"
	"gonum.org/v1/gonum/graph/simple"
)

// TraceGraph explains how a sink vertex was derived: every path from one of the sources to the sink is a trace.
// Edges go from a vertex to a vertex derived from it.
type TraceGraph struct {
	Sink       Vertex
	sources    *funcutil.OrderedSet[Vertex]
	vertices   *funcutil.OrderedSet[Vertex]
	succ       map[Vertex]*funcutil.OrderedSet[Vertex]
	unresolved *funcutil.OrderedSet[Vertex]
}

func newTraceGraph(sink Vertex) *TraceGraph {
	tg := &TraceGraph{
		Sink:       sink,
		sources:    funcutil.NewOrderedSet[Vertex](),
		vertices:   funcutil.NewOrderedSet[Vertex](),
		succ:       map[Vertex]*funcutil.OrderedSet[Vertex]{},
		unresolved: funcutil.NewOrderedSet[Vertex](),
	}
	tg.vertices.Add(sink)
	return tg
}

// addEdge adds the edge from -> to, unless it leaves the sink or closes a cycle. A vertex reached again through a
// summary edge, when a callee entry is expanded from within its own call stack, is already explained by the graph.
func (tg *TraceGraph) addEdge(from, to Vertex) {
	if from == to || from == tg.Sink || tg.reaches(to, from) {
		return
	}
	tg.vertices.Add(from)
	tg.vertices.Add(to)
	funcutil.GetOrCreate(tg.succ, from).Add(to)
}

// reaches returns true if there is a path from v to w
func (tg *TraceGraph) reaches(v, w Vertex) bool {
	seen := map[Vertex]bool{v: true}
	stack := []Vertex{v}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if x == w {
			return true
		}
		for _, y := range tg.succ[x].Items() {
			if !seen[y] {
				seen[y] = true
				stack = append(stack, y)
			}
		}
	}
	return false
}

func (tg *TraceGraph) addSource(v Vertex) {
	tg.vertices.Add(v)
	tg.sources.Add(v)
}

// merge adds the vertices, edges, sources and unresolved vertices of other to tg
func (tg *TraceGraph) merge(other *TraceGraph) {
	for _, v := range other.vertices.Items() {
		tg.vertices.Add(v)
		for _, w := range other.succ[v].Items() {
			tg.addEdge(v, w)
		}
	}
	for _, v := range other.sources.Items() {
		tg.addSource(v)
	}
	for _, v := range other.unresolved.Items() {
		tg.unresolved.Add(v)
	}
}

// Sources returns the vertices where the traces start
func (tg *TraceGraph) Sources() []Vertex { return tg.sources.Snapshot() }

// Vertices returns all the vertices of the graph
func (tg *TraceGraph) Vertices() []Vertex { return tg.vertices.Snapshot() }

// Successors returns the vertices derived from v
func (tg *TraceGraph) Successors(v Vertex) []Vertex { return tg.succ[v].Snapshot() }

// Unresolved returns the vertices whose provenance could not be established
func (tg *TraceGraph) Unresolved() []Vertex { return tg.unresolved.Snapshot() }

// NumEdges returns the number of edges of the graph
func (tg *TraceGraph) NumEdges() int {
	n := 0
	for _, s := range tg.succ {
		n += s.Len()
	}
	return n
}

// AllTraces enumerates the paths from the sources to the sink, avoiding cycles within each path. If limit > 0, at
// most limit traces are returned.
func (tg *TraceGraph) AllTraces(limit int) [][]Vertex {
	var traces [][]Vertex
	var path []Vertex
	onPath := map[Vertex]bool{}
	full := func() bool { return limit > 0 && len(traces) >= limit }
	var dfs func(v Vertex)
	dfs = func(v Vertex) {
		path = append(path, v)
		onPath[v] = true
		if v == tg.Sink {
			traces = append(traces, append([]Vertex(nil), path...))
		} else {
			for _, w := range tg.succ[v].Items() {
				if full() {
					break
				}
				if !onPath[w] {
					dfs(w)
				}
			}
		}
		path = path[:len(path)-1]
		delete(onPath, v)
	}
	for _, src := range tg.sources.Items() {
		if full() {
			break
		}
		dfs(src)
	}
	return traces
}

// IsAcyclic returns true if the graph has no cycle
func (tg *TraceGraph) IsAcyclic() bool {
	return graphutil.IsAcyclic(tg.vertices.Items(), tg.Successors)
}

// Indexed returns the graph as an indexed graph, with vertices numbered in discovery order
func (tg *TraceGraph) Indexed() *graphutil.IndexedGraph[Vertex] {
	g := graphutil.NewIndexedGraph[Vertex]()
	for _, v := range tg.vertices.Items() {
		g.AddNode(v)
	}
	for _, v := range tg.vertices.Items() {
		for _, w := range tg.succ[v].Items() {
			g.AddEdge(v, w)
		}
	}
	return g
}

// Digraph exports the graph as a gonum directed graph. Node ids are the indexes of Indexed.
func (tg *TraceGraph) Digraph() *simple.DirectedGraph {
	return tg.Indexed().Gonum()
}

func (tg *TraceGraph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trace graph of %s\n", tg.Sink)
	for _, src := range tg.sources.Items() {
		fmt.Fprintf(&b, "  source %s\n", src)
	}
	for _, v := range tg.vertices.Items() {
		for _, w := range tg.succ[v].Items() {
			fmt.Fprintf(&b, "  %s -> %s\n", v, w)
		}
	}
	return b.String()
}

// traceVisit identifies one step of the trace builder's search
type traceVisit struct {
	edge              Edge
	last              Vertex
	stopAtMethodStart bool
}

type traceBuilder struct {
	solver  *Solver
	graph   *TraceGraph
	visited map[traceVisit]bool
}

// BuildTraceGraph builds the trace graph of sink from the predecessors recorded by the solver. Vertices whose
// provenance is outside of the solver are marked unresolved.
func (s *Solver) BuildTraceGraph(sink Vertex) *TraceGraph {
	b := &traceBuilder{solver: s, graph: newTraceGraph(sink), visited: map[traceVisit]bool{}}
	edges := s.EdgesTo(sink)
	if len(edges) == 0 {
		b.graph.addSource(sink)
	}
	for _, e := range edges {
		b.dfs(e, sink, false)
	}
	return b.graph
}

// dfs walks the predecessors of edge. last is the most recent vertex added to the graph on the current walk: edges
// are drawn toward it.
func (b *traceBuilder) dfs(edge Edge, last Vertex, stopAtMethodStart bool) {
	key := traceVisit{edge: edge, last: last, stopAtMethodStart: stopAtMethodStart}
	if b.visited[key] {
		return
	}
	b.visited[key] = true

	v := edge.To
	if stopAtMethodStart && edge.From == edge.To {
		b.graph.addEdge(v, last)
		return
	}
	// inside a summary, the walk continues to the callee start: the caller side provides the source
	if v.Fact == ZeroFact && !stopAtMethodStart {
		b.graph.addEdge(v, last)
		b.graph.addSource(v)
		return
	}
	for _, pred := range b.solver.Predecessors(edge) {
		switch pred.Kind {
		case NoPredecessor:
			b.graph.addEdge(v, last)
			b.graph.addSource(v)
		case Sequent:
			if pred.Edge.To.Fact == v.Fact {
				b.dfs(pred.Edge, last, stopAtMethodStart)
			} else {
				b.graph.addEdge(pred.Edge.To, last)
				b.dfs(pred.Edge, pred.Edge.To, stopAtMethodStart)
			}
		case CallToStart:
			if stopAtMethodStart {
				b.graph.addEdge(v, last)
				continue
			}
			b.graph.addEdge(pred.Edge.To, last)
			b.dfs(pred.Edge, pred.Edge.To, false)
		case ThroughSummary:
			exit := pred.Summary.To
			b.graph.addEdge(exit, last)
			if b.solver.HasEdge(pred.Summary) {
				b.dfs(pred.Summary, exit, true)
			} else {
				// summary of another unit: the callee side is not available here
				b.graph.addEdge(pred.Summary.From, exit)
			}
			b.graph.addEdge(pred.Edge.To, pred.Summary.From)
			b.dfs(pred.Edge, pred.Edge.To, stopAtMethodStart)
		case Unknown:
			b.unknown(edge, last, stopAtMethodStart)
		}
	}
}

// unknown approximates the provenance of an edge injected from outside the solver by the start vertex of its
// method.
func (b *traceBuilder) unknown(edge Edge, last Vertex, stopAtMethodStart bool) {
	start := edge.From
	b.graph.addEdge(start, last)
	loop := Edge{From: start, To: start}
	if loop != edge && b.solver.HasEdge(loop) {
		b.dfs(loop, start, stopAtMethodStart)
		return
	}
	if start.Fact == ZeroFact {
		b.graph.addSource(start)
	} else if !stopAtMethodStart {
		b.graph.unresolved.Add(start)
	}
}
