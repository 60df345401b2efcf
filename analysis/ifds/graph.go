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

// Supergraph is the interprocedural control-flow graph of the analyzed program. Implementations must be safe for
// concurrent reads: all the runners share the same supergraph.
type Supergraph interface {
	// EntryPoints returns the entry statements of m. Methods without a body have no entry point.
	EntryPoints(m Method) []Statement

	// ExitPoints returns the exit statements of m
	ExitPoints(m Method) []Statement

	// Successors returns the intraprocedural successors of s. For call sites, these are the return sites.
	Successors(s Statement) []Statement

	// Predecessors returns the intraprocedural predecessors of s
	Predecessors(s Statement) []Statement

	// Callees returns the possible callees of s. An empty result means s is not a call site.
	Callees(s Statement) []Method

	// MethodOf returns the method containing s
	MethodOf(s Statement) Method
}

// Reversed returns the backward view of g: entry and exit points are swapped, and so are successors and
// predecessors. Callees are unchanged.
func Reversed(g Supergraph) Supergraph {
	if r, ok := g.(reversedGraph); ok {
		return r.g
	}
	return reversedGraph{g: g}
}

type reversedGraph struct {
	g Supergraph
}

func (r reversedGraph) EntryPoints(m Method) []Statement {
	return r.g.ExitPoints(m)
}

func (r reversedGraph) ExitPoints(m Method) []Statement {
	return r.g.EntryPoints(m)
}

func (r reversedGraph) Successors(s Statement) []Statement {
	return r.g.Predecessors(s)
}

func (r reversedGraph) Predecessors(s Statement) []Statement {
	return r.g.Successors(s)
}

func (r reversedGraph) Callees(s Statement) []Method {
	return r.g.Callees(s)
}

func (r reversedGraph) MethodOf(s Statement) Method {
	return r.g.MethodOf(s)
}

// IsExitPoint returns true if s is one of the exit points of its method in g
func IsExitPoint(g Supergraph, s Statement) bool {
	for _, exit := range g.ExitPoints(g.MethodOf(s)) {
		if exit == s {
			return true
		}
	}
	return false
}

// IsEntryPoint returns true if s is one of the entry points of its method in g
func IsEntryPoint(g Supergraph, s Statement) bool {
	for _, entry := range g.EntryPoints(g.MethodOf(s)) {
		if entry == s {
			return true
		}
	}
	return false
}

// Statements returns all the statements of m reachable from its entry points, in breadth-first order.
func Statements(g Supergraph, m Method) []Statement {
	var res []Statement
	seen := map[Statement]bool{}
	queue := append([]Statement{}, g.EntryPoints(m)...)
	for _, s := range queue {
		seen[s] = true
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		res = append(res, s)
		for _, next := range g.Successors(s) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return res
}
