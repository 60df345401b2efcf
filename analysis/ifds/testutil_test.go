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
	"io"
	"sync"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
)

// The test programs are made of methods with numbered statements. By default, statement i flows to statement i+1
// and the last statement is the only exit point.

type tMethod string

func (m tMethod) String() string { return string(m) }

// ClassName makes "pkg.Class.method" test methods class members
func (m tMethod) ClassName() string { return PackageOf(string(m)) }

type tStmt struct {
	m tMethod
	i int
}

func (s tStmt) String() string { return fmt.Sprintf("%s:%d", s.m, s.i) }

func (s tStmt) Method() Method { return s.m }

func st(m string, i int) tStmt { return tStmt{m: tMethod(m), i: i} }

func vx(s tStmt, f Fact) Vertex { return Vertex{Stmt: s, Fact: f} }

func loop(x Vertex) Edge { return Edge{From: x, To: x} }

func edge(x, y Vertex) Edge { return Edge{From: x, To: y} }

type tFact string

func (f tFact) String() string { return string(f) }

// hFact is a heap fact with an activation statement
type hFact struct {
	name string
	act  Statement
}

func (f hFact) String() string {
	if f.act == nil {
		return f.name
	}
	return fmt.Sprintf("%s@%s", f.name, f.act)
}

func (f hFact) OnHeap() bool { return true }

func (f hFact) Activation() Statement { return f.act }

func (f hFact) WithActivation(s Statement) Fact { return hFact{name: f.name, act: s} }

type tGraph struct {
	sizes map[tMethod]int
	calls map[tStmt][]Method
	succ  map[tStmt][]Statement
}

func newTestGraph() *tGraph {
	return &tGraph{sizes: map[tMethod]int{}, calls: map[tStmt][]Method{}, succ: map[tStmt][]Statement{}}
}

// method declares a method with n statements. A method with 0 statements has no body.
func (g *tGraph) method(name string, n int) *tGraph {
	g.sizes[tMethod(name)] = n
	return g
}

func (g *tGraph) call(m string, i int, callees ...string) *tGraph {
	for _, c := range callees {
		g.calls[st(m, i)] = append(g.calls[st(m, i)], tMethod(c))
	}
	return g
}

// branch overrides the successors of a statement
func (g *tGraph) branch(m string, i int, targets ...int) *tGraph {
	var succ []Statement
	for _, t := range targets {
		succ = append(succ, st(m, t))
	}
	g.succ[st(m, i)] = succ
	return g
}

func (g *tGraph) EntryPoints(m Method) []Statement {
	if g.sizes[m.(tMethod)] == 0 {
		return nil
	}
	return []Statement{tStmt{m: m.(tMethod), i: 0}}
}

func (g *tGraph) ExitPoints(m Method) []Statement {
	n := g.sizes[m.(tMethod)]
	if n == 0 {
		return nil
	}
	return []Statement{tStmt{m: m.(tMethod), i: n - 1}}
}

func (g *tGraph) Successors(s Statement) []Statement {
	ts := s.(tStmt)
	if succ, ok := g.succ[ts]; ok {
		return succ
	}
	if ts.i+1 < g.sizes[ts.m] {
		return []Statement{tStmt{m: ts.m, i: ts.i + 1}}
	}
	return nil
}

func (g *tGraph) Predecessors(s Statement) []Statement {
	ts := s.(tStmt)
	var preds []Statement
	for i := 0; i < g.sizes[ts.m]; i++ {
		for _, next := range g.Successors(tStmt{m: ts.m, i: i}) {
			if next == s {
				preds = append(preds, tStmt{m: ts.m, i: i})
			}
		}
	}
	return preds
}

func (g *tGraph) Callees(s Statement) []Method { return g.calls[s.(tStmt)] }

func (g *tGraph) MethodOf(s Statement) Method { return s.Method() }

// tAnalysis is a pass-through analysis: facts flow unchanged through every statement and call, the facts of gen
// are generated from ZeroFact at their statement, and non-zero facts reaching a sink statement are reported.
type tAnalysis struct {
	graph Supergraph
	gen   map[tStmt][]Fact
	sinks map[tStmt]bool

	mu       sync.Mutex
	newEdges int
	// panicAt makes HandleNewEdge panic when an edge reaches the statement
	panicAt *tStmt
	// extra events returned for every new edge of a method
	extra map[tMethod][]Event
}

func newTestAnalysis(g Supergraph) *tAnalysis {
	return &tAnalysis{graph: g, gen: map[tStmt][]Fact{}, sinks: map[tStmt]bool{}, extra: map[tMethod][]Event{}}
}

func (a *tAnalysis) FlowFunctions() FlowFunctions { return a }

func (a *tAnalysis) flow(s Statement, f Fact) []Fact {
	if f == ZeroFact {
		return append([]Fact{ZeroFact}, a.gen[s.(tStmt)]...)
	}
	return []Fact{f}
}

func (a *tAnalysis) StartFacts(Statement) []Fact { return []Fact{ZeroFact} }

func (a *tAnalysis) Sequent(cur, _ Statement, f Fact) []Fact { return a.flow(cur, f) }

func (a *tAnalysis) CallToReturn(call, _ Statement, f Fact) []Fact { return a.flow(call, f) }

func (a *tAnalysis) CallToStart(_ Statement, _ Method, f Fact) []Fact { return []Fact{f} }

func (a *tAnalysis) ExitToReturn(_, _, _ Statement, f Fact) []Fact { return []Fact{f} }

func (a *tAnalysis) HandleNewEdge(e Edge) []Event {
	a.mu.Lock()
	a.newEdges++
	a.mu.Unlock()
	if a.panicAt != nil && e.To.Stmt == *a.panicAt {
		panic("test analysis failure")
	}
	events := SummaryEvents(a.graph, e)
	if a.sinks[e.To.Stmt.(tStmt)] && e.To.Fact != ZeroFact {
		events = append(events, NewVulnerability{Vulnerability: Vulnerability{Rule: "test", Sink: e.To}})
	}
	return append(events, a.extra[e.Method().(tMethod)]...)
}

func (a *tAnalysis) HandleCrossUnitCall(caller Edge, start Vertex) []Event {
	return []Event{NewCrossUnitCall{Caller: caller.To, Callee: start}}
}

func (a *tAnalysis) HandleIfdsResult(UnitResult) []Event { return nil }

// tFactory gives the same analysis to every unit
type tFactory struct {
	analysis *tAnalysis
	// perUnit overrides the analysis of some units
	perUnit map[UnitID]*tAnalysis
}

func (f *tFactory) NewAnalyzer(unit UnitID, _ Supergraph) Analyzer {
	if a, ok := f.perUnit[unit]; ok {
		return a
	}
	return f.analysis
}

// recorder is an environment recording the events it receives
type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(ev Event) { r.events = append(r.events, ev) }

func quietLogger() *config.LogGroup {
	l := config.NewLogGroup(nil)
	l.SetAllOutput(io.Discard)
	return l
}

func quietConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.LogLevel = int(config.ErrLevel)
	return cfg
}

func newTestSolver(unit UnitID, g *tGraph, r UnitResolver, a *tAnalysis) (*Solver, *recorder) {
	rec := &recorder{}
	return NewSolver(unit, g, r, a, rec, quietLogger()), rec
}
