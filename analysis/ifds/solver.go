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
	"context"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/internal/funcutil"
)

// ctxCheckInterval is the number of edges processed between two checks of the context
const ctxCheckInterval = 64

// SolverStats counts the work of a solver
type SolverStats struct {
	// PathEdges is the number of distinct path edges
	PathEdges int
	// Processed is the number of edges popped from the worklist
	Processed int
	// SummaryApplications is the number of (caller edge, summary edge) pairs applied
	SummaryApplications int
	// ExternCalls is the number of distinct calls to start vertices of other units
	ExternCalls int
}

// A Solver runs the tabulation algorithm for the methods of one unit. A solver is not safe for concurrent use: all
// its methods must be called by the goroutine owning the solver.
type Solver struct {
	unit     UnitID
	graph    Supergraph
	resolver UnitResolver
	analyzer Analyzer
	flow     FlowFunctions
	env      Environment
	logger   *config.LogGroup

	worklist []Edge
	head     int

	pathEdges *funcutil.OrderedSet[Edge]
	edgesTo   map[Vertex][]Edge
	preds     map[Edge]*funcutil.OrderedSet[Predecessor]

	// summaryEdges maps a callee start vertex to the exit vertices reachable from it
	summaryEdges map[Vertex]*funcutil.OrderedSet[Vertex]
	summaryList  []Edge

	// callSitesOf maps a callee start vertex of this unit to the caller edges reaching it
	callSitesOf map[Vertex]*funcutil.OrderedSet[Edge]

	// externCallSites and externSummaries play the same roles for callees of other units
	externCallSites map[Vertex]*funcutil.OrderedSet[Edge]
	externSummaries map[Vertex]*funcutil.OrderedSet[Vertex]
	subscribed      map[Method]bool
	requested       map[Edge]bool

	exits map[Method]map[Statement]bool
	stats SolverStats
}

// NewSolver returns a solver for unit. Events that the solver cannot handle are sent to env.
func NewSolver(unit UnitID, graph Supergraph, resolver UnitResolver, analyzer Analyzer, env Environment,
	logger *config.LogGroup) *Solver {
	if logger == nil {
		logger = config.NewLogGroup(nil)
	}
	return &Solver{
		unit:            unit,
		graph:           graph,
		resolver:        resolver,
		analyzer:        analyzer,
		flow:            analyzer.FlowFunctions(),
		env:             env,
		logger:          logger,
		pathEdges:       funcutil.NewOrderedSet[Edge](),
		edgesTo:         map[Vertex][]Edge{},
		preds:           map[Edge]*funcutil.OrderedSet[Predecessor]{},
		summaryEdges:    map[Vertex]*funcutil.OrderedSet[Vertex]{},
		callSitesOf:     map[Vertex]*funcutil.OrderedSet[Edge]{},
		externCallSites: map[Vertex]*funcutil.OrderedSet[Edge]{},
		externSummaries: map[Vertex]*funcutil.OrderedSet[Vertex]{},
		subscribed:      map[Method]bool{},
		requested:       map[Edge]bool{},
		exits:           map[Method]map[Statement]bool{},
	}
}

// Unit returns the unit of the solver
func (s *Solver) Unit() UnitID { return s.unit }

// Graph returns the supergraph the solver runs on
func (s *Solver) Graph() Supergraph { return s.graph }

// Analyzer returns the analyzer of the solver
func (s *Solver) Analyzer() Analyzer { return s.analyzer }

// Stats returns the counters of the solver
func (s *Solver) Stats() SolverStats { return s.stats }

// Seed propagates the start facts of every entry point of the methods, with no predecessor.
func (s *Solver) Seed(methods []Method) {
	for _, m := range methods {
		for _, entry := range s.graph.EntryPoints(m) {
			for _, f := range s.flow.StartFacts(entry) {
				v := Vertex{Stmt: entry, Fact: f}
				s.Propagate(Edge{From: v, To: v}, Predecessor{Kind: NoPredecessor})
			}
		}
	}
}

// SubmitExternalEdge propagates an edge computed outside of the solver
func (s *Solver) SubmitExternalEdge(edge Edge) bool {
	return s.Propagate(edge, Predecessor{Kind: Unknown})
}

// Propagate records pred as a predecessor of edge and, if the edge is new, adds it to the worklist and calls the
// analyzer's HandleNewEdge. Returns true if the edge is new.
// Panics with a *RoutingError if the edge does not belong to the solver's unit.
func (s *Solver) Propagate(edge Edge, pred Predecessor) bool {
	if edge.From.Stmt.Method() != edge.To.Stmt.Method() {
		panic(&RoutingError{Unit: s.unit, Edge: edge, Reason: "endpoints in different methods"})
	}
	if u := s.resolver.Resolve(edge.Method()); u != s.unit {
		panic(&RoutingError{Unit: s.unit, Edge: edge, Reason: "method belongs to unit " + u.String()})
	}
	funcutil.GetOrCreate(s.preds, edge).Add(pred)
	if !s.pathEdges.Add(edge) {
		return false
	}
	s.stats.PathEdges++
	s.edgesTo[edge.To] = append(s.edgesTo[edge.To], edge)
	s.worklist = append(s.worklist, edge)
	if s.logger.LogsTrace() {
		s.logger.Tracef("[%s] new edge %s (%s)\n", s.unit, edge, pred.Kind)
	}
	for _, ev := range s.analyzer.HandleNewEdge(edge) {
		s.env.HandleEvent(ev)
	}
	return true
}

// IsEmpty returns true when the worklist is empty
func (s *Solver) IsEmpty() bool {
	return s.head >= len(s.worklist)
}

// Step processes one edge of the worklist. Returns false if the worklist was empty.
func (s *Solver) Step() bool {
	if s.IsEmpty() {
		return false
	}
	edge := s.worklist[s.head]
	s.head++
	if s.head > 1024 && s.head*2 > len(s.worklist) {
		s.worklist = append([]Edge(nil), s.worklist[s.head:]...)
		s.head = 0
	}
	s.stats.Processed++
	s.process(edge)
	return true
}

// RunToFixedPoint processes the worklist until it is empty or ctx is done. Returns the context error in the latter
// case.
func (s *Solver) RunToFixedPoint(ctx context.Context) error {
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !s.Step() {
			return nil
		}
	}
}

func (s *Solver) process(edge Edge) {
	stmt := edge.To.Stmt
	if callees := s.graph.Callees(stmt); len(callees) > 0 {
		s.processCall(edge, callees)
		return
	}
	if s.isExit(stmt) {
		s.processExit(edge)
	}
	for _, next := range s.graph.Successors(stmt) {
		for _, f := range s.flow.Sequent(stmt, next, edge.To.Fact) {
			s.Propagate(Edge{From: edge.From, To: Vertex{Stmt: next, Fact: f}},
				Predecessor{Kind: Sequent, Edge: edge})
		}
	}
}

func (s *Solver) processCall(edge Edge, callees []Method) {
	call := edge.To.Stmt
	fact := edge.To.Fact
	for _, returnSite := range s.graph.Successors(call) {
		for _, f := range s.flow.CallToReturn(call, returnSite, fact) {
			s.Propagate(Edge{From: edge.From, To: Vertex{Stmt: returnSite, Fact: f}},
				Predecessor{Kind: Sequent, Edge: edge})
		}
	}
	for _, callee := range callees {
		entries := s.graph.EntryPoints(callee)
		if len(entries) == 0 {
			continue
		}
		local := s.resolver.Resolve(callee) == s.unit
		for _, f := range s.flow.CallToStart(call, callee, fact) {
			for _, entry := range entries {
				start := Vertex{Stmt: entry, Fact: f}
				if local {
					s.registerLocalCall(edge, start)
				} else {
					s.registerExternCall(edge, callee, start)
				}
			}
		}
	}
}

func (s *Solver) registerLocalCall(caller Edge, start Vertex) {
	if !funcutil.GetOrCreate(s.callSitesOf, start).Add(caller) {
		return
	}
	s.Propagate(Edge{From: start, To: start}, Predecessor{Kind: CallToStart, Edge: caller})
	for _, exit := range s.summaryEdges[start].Snapshot() {
		s.applySummary(caller, Edge{From: start, To: exit})
	}
}

func (s *Solver) registerExternCall(caller Edge, callee Method, start Vertex) {
	if !funcutil.GetOrCreate(s.externCallSites, start).Add(caller) {
		return
	}
	s.stats.ExternCalls++
	for _, exit := range s.externSummaries[start].Snapshot() {
		s.applySummary(caller, Edge{From: start, To: exit})
	}
	if !s.subscribed[callee] {
		s.subscribed[callee] = true
		s.env.HandleEvent(SubscriptionForSummaries{Method: callee})
	}
	seed := Edge{From: start, To: start}
	if !s.requested[seed] {
		s.requested[seed] = true
		s.env.HandleEvent(EdgeForOtherUnit{Edge: seed})
	}
	for _, ev := range s.analyzer.HandleCrossUnitCall(caller, start) {
		s.env.HandleEvent(ev)
	}
}

func (s *Solver) processExit(edge Edge) {
	start := edge.From
	for _, caller := range s.callSitesOf[start].Snapshot() {
		s.applySummary(caller, edge)
	}
	if funcutil.GetOrCreate(s.summaryEdges, start).Add(edge.To) {
		s.summaryList = append(s.summaryList, edge)
	}
}

// applySummary applies the summary edge to the caller edge, producing edges at the return sites of the call.
func (s *Solver) applySummary(caller Edge, summary Edge) {
	s.stats.SummaryApplications++
	call := caller.To.Stmt
	exit := summary.To
	for _, returnSite := range s.graph.Successors(call) {
		for _, f := range s.flow.ExitToReturn(call, returnSite, exit.Stmt, exit.Fact) {
			s.Propagate(Edge{From: caller.From, To: Vertex{Stmt: returnSite, Fact: f}},
				Predecessor{Kind: ThroughSummary, Edge: caller, Summary: summary})
		}
	}
}

// OnSummaryFact handles a fact delivered by the summary store for a callee of another unit. Summary edges are
// recorded and applied to every caller edge registered for their start vertex. Other facts are ignored.
func (s *Solver) OnSummaryFact(fact SummaryFact) {
	f, ok := fact.(SummaryEdgeFact)
	if !ok {
		return
	}
	start := f.Edge.From
	if !funcutil.GetOrCreate(s.externSummaries, start).Add(f.Edge.To) {
		return
	}
	for _, caller := range s.externCallSites[start].Snapshot() {
		s.applySummary(caller, f.Edge)
	}
}

func (s *Solver) isExit(stmt Statement) bool {
	m := stmt.Method()
	exits, ok := s.exits[m]
	if !ok {
		exits = map[Statement]bool{}
		for _, e := range s.graph.ExitPoints(m) {
			exits[e] = true
		}
		s.exits[m] = exits
	}
	return exits[stmt]
}

// HasEdge returns true if edge is a path edge of the solver
func (s *Solver) HasEdge(edge Edge) bool {
	return s.pathEdges.Has(edge)
}

// PathEdges returns the path edges in discovery order
func (s *Solver) PathEdges() []Edge {
	return s.pathEdges.Snapshot()
}

// EdgesTo returns the path edges whose target is v
func (s *Solver) EdgesTo(v Vertex) []Edge {
	return s.edgesTo[v]
}

// HasEdgeTo returns true if some path edge of the solver ends at v
func (s *Solver) HasEdgeTo(v Vertex) bool {
	return len(s.edgesTo[v]) > 0
}

// Predecessors returns the recorded predecessors of edge, in insertion order
func (s *Solver) Predecessors(edge Edge) []Predecessor {
	return s.preds[edge].Items()
}

// SummaryEdges returns the summary edges computed by the solver, in discovery order
func (s *Solver) SummaryEdges() []Edge {
	return append([]Edge(nil), s.summaryList...)
}

// CallSites returns the caller edges registered for a callee start vertex, local or external
func (s *Solver) CallSites(start Vertex) []Edge {
	if cs := s.callSitesOf[start]; cs != nil {
		return cs.Snapshot()
	}
	return s.externCallSites[start].Snapshot()
}

// Result returns the state of the solver as a unit result
func (s *Solver) Result() UnitResult {
	return UnitResult{
		Unit:         s.unit,
		PathEdges:    s.PathEdges(),
		SummaryEdges: s.SummaryEdges(),
		Stats:        s.stats,
	}
}
