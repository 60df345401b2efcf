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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/internal/formatutil"
	"github.com/UnitTestBot/jacodb-sub000/internal/funcutil"
	"github.com/UnitTestBot/jacodb-sub000/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/sync/errgroup"
)

// maxCycleEnumeration bounds the number of units in mutually dependent groups for which the elementary cycles of
// the dependency graph are enumerated
const maxCycleEnumeration = 32

// Stats are the statistics of an analysis run
type Stats struct {
	// Methods is the number of methods discovered from the start methods
	Methods int
	// Units is the number of units of the discovered methods
	Units int
	// RunnersSpawned counts the runners started, including the ones spawned lazily
	RunnersSpawned int
	// TornDown counts the runners torn down before the end of the analysis
	TornDown int
	// FailedUnits counts the units whose analysis panicked
	FailedUnits int
	// DroppedEdges counts the edges sent to units that were no longer running
	DroppedEdges int
	// DroppedFacts counts the summary facts delivered to units that were no longer running
	DroppedFacts int
	// PathEdges is the total number of forward path edges
	PathEdges int
	// SummaryApplications is the total number of summary edges applied to caller edges
	SummaryApplications int
	// MutuallyDependentUnits is the number of units in a cycle of the unit dependency graph
	MutuallyDependentUnits int
	// DependencyCycles is the number of elementary cycles of the unit dependency graph. It is only computed when
	// there are at most 32 mutually dependent units.
	DependencyCycles int
	// Bidi accumulates the exchanges of bidirectional units
	Bidi BidiStats
	// Duration is the wall-clock time of the analysis
	Duration time.Duration
}

// Manager discovers the units of an analysis, runs one runner goroutine per unit, routes the messages between
// units and tears the runners down once their work is exhausted.
//
// Lock order: the summary store lock is acquired before the manager lock, never the other way around.
type Manager struct {
	cfg      *config.Config
	logger   *config.LogGroup
	graph    Supergraph
	reversed Supergraph
	resolver UnitResolver
	factory  AnalyzerFactory
	store    *SummaryStore

	mu       sync.Mutex
	group    *errgroup.Group
	ctx      context.Context
	runners  map[UnitID]*unitRunner
	order    []UnitID
	deps     *graphutil.IndexedGraph[UnitID]
	busy     int
	starting bool
	finished bool
	errs     []error
	stats    Stats
}

// NewManager returns a manager for an analysis of graph. If resolver is nil, the resolver is chosen by the unit
// granularity of the config.
func NewManager(cfg *config.Config, logger *config.LogGroup, g Supergraph, resolver UnitResolver,
	factory AnalyzerFactory) (*Manager, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	if resolver == nil {
		r, err := NewUnitResolver(cfg.UnitGranularity)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		resolver = r
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		graph:    g,
		reversed: Reversed(g),
		resolver: resolver,
		factory:  factory,
		store:    NewSummaryStore(),
		runners:  map[UnitID]*unitRunner{},
		deps:     graphutil.NewIndexedGraph[UnitID](),
	}, nil
}

// Store returns the summary store of the analysis
func (m *Manager) Store() *SummaryStore { return m.store }

// Dependencies returns the unit dependency graph. It must not be modified while the analysis runs.
func (m *Manager) Dependencies() *graphutil.IndexedGraph[UnitID] { return m.deps }

// Run analyzes the methods reachable from startMethods and returns the results once every unit has reached its
// fixed point, or once the timeout of the config has expired. The error is non-nil only when the analysis was
// aborted, or cancelled by ctx.
func (m *Manager) Run(ctx context.Context, startMethods []Method) (Result, error) {
	startTime := time.Now()
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}
	m.discover(startMethods)
	m.logger.Infof("Analyzing %d methods in %d units\n", m.stats.Methods, m.stats.Units)

	group, gctx := errgroup.WithContext(ctx)
	seeds := map[UnitID][]Method{}
	var seedUnits []UnitID
	m.mu.Lock()
	m.group = group
	m.ctx = gctx
	m.starting = true
	for _, method := range startMethods {
		u := m.resolver.Resolve(method)
		if _, ok := seeds[u]; !ok {
			seedUnits = append(seedUnits, u)
			m.spawnLocked(u)
		}
		seeds[u] = append(seeds[u], method)
	}
	m.mu.Unlock()

	for _, u := range seedUnits {
		m.post(u, seedMessage{methods: seeds[u]})
	}

	m.mu.Lock()
	m.starting = false
	if m.busy == 0 {
		m.teardownAllLocked()
	} else {
		for _, u := range m.order {
			if r := m.runners[u]; r.state == runnerAlive && r.pending == 0 {
				m.maybeTeardownLocked(r)
			}
		}
	}
	m.mu.Unlock()

	err := group.Wait()
	m.mu.Lock()
	m.finished = true
	// runners still alive were stopped by the context, before reaching their fixed point
	timedOut := funcutil.Exists(m.order, func(u UnitID) bool { return m.runners[u].state == runnerAlive })
	m.mu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("analysis aborted: %w", err)
	}
	if timedOut {
		m.logger.Warnf("Analysis stopped before reaching its fixed point: %v\n", ctx.Err())
	}
	res := m.collect(timedOut)
	res.Stats.Duration = time.Since(startTime)
	m.logger.Infof("Analysis finished in %s: %d findings, %d path edges, %d units torn down\n",
		res.Stats.Duration, len(res.Findings), res.Stats.PathEdges, res.Stats.TornDown)
	if timedOut && errors.Is(ctx.Err(), context.Canceled) {
		return res, fmt.Errorf("analysis cancelled: %w", ctx.Err())
	}
	return res, nil
}

// discover visits the methods transitively called from the start methods and builds the unit dependency graph:
// there is an edge from unit u to unit v when a method of u calls a method of v.
func (m *Manager) discover(startMethods []Method) {
	seen := map[Method]bool{}
	queue := append([]Method{}, startMethods...)
	for len(queue) > 0 {
		method := queue[0]
		queue = queue[1:]
		if seen[method] {
			continue
		}
		seen[method] = true
		u := m.resolver.Resolve(method)
		m.deps.AddNode(u)
		for _, stmt := range Statements(m.graph, method) {
			for _, callee := range m.graph.Callees(stmt) {
				if len(m.graph.EntryPoints(callee)) == 0 {
					continue
				}
				if cu := m.resolver.Resolve(callee); cu != u {
					m.deps.AddEdge(u, cu)
				}
				if !seen[callee] {
					queue = append(queue, callee)
				}
			}
		}
	}
	m.stats.Methods = len(seen)
	m.stats.Units = m.deps.Order()
}

// spawnLocked creates the runner of unit u and starts its goroutine
func (m *Manager) spawnLocked(u UnitID) *unitRunner {
	if r, ok := m.runners[u]; ok {
		return r
	}
	r := m.newRunner(u)
	m.runners[u] = r
	m.order = append(m.order, u)
	m.deps.AddNode(u)
	m.stats.RunnersSpawned++
	m.logger.Debugf("Spawning runner of unit %s\n", u)
	m.group.Go(func() error { return m.runUnit(r) })
	return r
}

func (m *Manager) newRunner(u UnitID) *unitRunner {
	ctx, cancel := context.WithCancel(m.ctx)
	r := &unitRunner{
		unit:    u,
		manager: m,
		inbox:   newMailbox[runnerMessage](),
		ctx:     ctx,
		cancel:  cancel,
	}
	env := envFunc(func(ev Event) { m.handleEvent(r, ev) })
	analyzer := m.factory.NewAnalyzer(u, m.graph)
	if bf, ok := m.factory.(BackwardAnalyzerFactory); ok && m.cfg.Bidirectional {
		c := newBidiCoordinator(m.logger)
		c.bgraph = m.reversed
		c.forward = NewSolver(u, m.graph, m.resolver, c.wrapForward(analyzer), c.forwardEnv(env), m.logger)
		backward := bf.NewBackwardAnalyzer(u, m.reversed)
		c.backward = NewSolver(u, m.reversed, m.resolver, c.wrapBackward(backward, m.reversed), c.backwardEnv(),
			m.logger)
		r.forward = c.forward
		r.bidi = c
	} else {
		r.forward = NewSolver(u, m.graph, m.resolver, analyzer, env, m.logger)
	}
	return r
}

// post sends msg to the runner of unit u, spawning the runner if needed. Returns false if the runner is no longer
// running, in which case the message is dropped.
func (m *Manager) post(u UnitID, msg runnerMessage) bool {
	r := m.reserve(u)
	if r == nil {
		return false
	}
	r.inbox.push(msg)
	return true
}

// reserve increments the pending counter of the runner of u before a message is pushed to it
func (m *Manager) reserve(u UnitID) *unitRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished || m.ctx == nil {
		return nil
	}
	r, ok := m.runners[u]
	if !ok {
		r = m.spawnLocked(u)
	}
	if r.state != runnerAlive {
		return nil
	}
	r.pending++
	if r.pending == 1 {
		m.busy++
		m.queueEmptinessChanged(r, false)
	}
	return r
}

// workDone is called by a runner once it has processed n messages and reached its fixed point
func (m *Manager) workDone(r *unitRunner, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.state != runnerAlive {
		return
	}
	r.pending -= n
	if r.pending > 0 {
		return
	}
	m.busy--
	m.queueEmptinessChanged(r, true)
	m.maybeTeardownLocked(r)
}

func (m *Manager) queueEmptinessChanged(r *unitRunner, empty bool) {
	ev := QueueEmptinessChanged{Unit: r.unit, IsEmpty: empty}
	if m.logger.LogsTrace() {
		m.logger.Tracef("%+v\n", ev)
	}
}

// maybeTeardownLocked tears down the idle component of r, or every runner if no runner is busy
func (m *Manager) maybeTeardownLocked(r *unitRunner) {
	if m.starting {
		return
	}
	if m.busy == 0 {
		m.teardownAllLocked()
		return
	}
	component, ok := m.idleComponentLocked(r.unit)
	if !ok {
		return
	}
	for _, u := range component {
		if ur, ok := m.runners[u]; ok {
			m.teardownLocked(ur)
		}
	}
}

// idleComponentLocked returns the units connected to u in the dependency graph, if none of them is busy. The search
// is bounded by the teardown depth: a component that extends beyond the bound is not considered idle.
func (m *Manager) idleComponentLocked(u UnitID) ([]UnitID, bool) {
	depth := m.cfg.TeardownDepth
	if depth <= 0 {
		depth = config.DefaultTeardownDepth
	}
	visited := map[UnitID]bool{u: true}
	component := []UnitID{u}
	frontier := []UnitID{u}
	for d := 0; len(frontier) > 0; d++ {
		var next []UnitID
		for _, v := range frontier {
			if r, ok := m.runners[v]; ok && r.state == runnerAlive && r.pending > 0 {
				return nil, false
			}
			for _, w := range append(m.deps.Successors(v), m.deps.Predecessors(v)...) {
				if !visited[w] {
					visited[w] = true
					next = append(next, w)
				}
			}
		}
		if len(next) > 0 && d+1 > depth {
			return nil, false
		}
		component = append(component, next...)
		frontier = next
	}
	return component, true
}

func (m *Manager) teardownLocked(r *unitRunner) {
	if r.state != runnerAlive {
		return
	}
	r.state = runnerTornDown
	r.cancel()
	m.stats.TornDown++
	m.logger.Debugf("Tearing down unit %s\n", r.unit)
}

func (m *Manager) teardownAllLocked() {
	m.logger.Debugf("All units are idle\n")
	for _, u := range m.order {
		m.teardownLocked(m.runners[u])
	}
}

// unitFailed records the failure of r and drops its results
func (m *Manager) unitFailed(r *unitRunner, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Errorf("%s\n", err)
	wasAlive := r.state == runnerAlive
	r.state = runnerFailed
	r.err = err
	r.cancel()
	m.errs = append(m.errs, err)
	m.stats.FailedUnits++
	if wasAlive && r.pending > 0 {
		r.pending = 0
		m.busy--
		if m.busy == 0 && !m.starting {
			m.teardownAllLocked()
		}
	}
}

// dropped counts a message for a runner that was no longer running. Messages sent once the analysis has finished
// are not counted: no runner is expected to receive them.
func (m *Manager) dropped(count func(s *Stats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.finished {
		count(&m.stats)
	}
}

// handleEvent handles the events of the forward solver of r
func (m *Manager) handleEvent(r *unitRunner, ev Event) {
	switch e := ev.(type) {
	case NewSummaryEdge:
		m.store.Send(SummaryEdgeFact{Edge: e.Edge})
	case NewVulnerability:
		if m.store.Send(VulnerabilityFact{Vulnerability: e.Vulnerability}) {
			m.logger.Debugf("[%s] vulnerability %s\n", r.unit, e.Vulnerability)
		}
	case NewCrossUnitCall:
		m.store.Send(CrossUnitCallFact{Caller: e.Caller, Callee: e.Callee})
	case EdgeForOtherUnit:
		m.routeEdge(r, e.Edge)
	case EdgeForOtherRunner:
		m.logger.Debugf("[%s] no other runner for %s\n", r.unit, e.Edge)
	case SubscriptionForSummaries:
		m.subscribe(r, e.Method)
	}
}

func (m *Manager) routeEdge(r *unitRunner, edge Edge) {
	to := m.resolver.Resolve(edge.Method())
	m.addDependency(r.unit, to)
	if !m.post(to, edgeMessage{edge: edge}) {
		m.logger.Debugf("Dropping edge %s for unit %s\n", edge, to)
		m.dropped(func(s *Stats) { s.DroppedEdges++ })
	}
}

func (m *Manager) subscribe(r *unitRunner, method Method) {
	m.addDependency(r.unit, m.resolver.Resolve(method))
	m.store.Subscribe(method, r)
}

func (m *Manager) addDependency(from, to UnitID) {
	if from == to {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps.AddEdge(from, to)
}

// collect assembles the results once every runner has returned
func (m *Manager) collect(timedOut bool) Result {
	res := Result{
		Findings:  []Finding{},
		Summaries: map[Method]*MethodSummary{},
		Units:     map[UnitID]*UnitResult{},
		TimedOut:  timedOut,
	}
	for _, u := range m.order {
		r := m.runners[u]
		if r.state == runnerFailed {
			continue
		}
		ur := r.forward.Result()
		res.Units[u] = &ur
		for _, ev := range r.forward.Analyzer().HandleIfdsResult(ur) {
			m.handleEvent(r, ev)
		}
	}

	failed := func(method Method) bool {
		r, ok := m.runners[m.resolver.Resolve(method)]
		return ok && r.state == runnerFailed
	}
	summaryOf := func(method Method) *MethodSummary {
		s, ok := res.Summaries[method]
		if !ok {
			s = &MethodSummary{
				Method:           method,
				FactsAtExits:     map[Vertex][]Vertex{},
				CrossUnitCallees: map[Vertex][]Vertex{},
			}
			res.Summaries[method] = s
		}
		return s
	}
	for _, method := range m.store.Methods() {
		for _, fact := range m.store.CurrentFacts(method) {
			switch f := fact.(type) {
			case SummaryEdgeFact:
				if !failed(method) {
					s := summaryOf(method)
					s.FactsAtExits[f.Edge.From] = append(s.FactsAtExits[f.Edge.From], f.Edge.To)
				}
			case CrossUnitCallFact:
				if caller := f.Caller.Method(); !failed(caller) {
					s := summaryOf(caller)
					s.CrossUnitCallees[f.Caller] = append(s.CrossUnitCallees[f.Caller], f.Callee)
				}
			case VulnerabilityFact:
				if failed(method) {
					continue
				}
				summaryOf(method).Findings = append(summaryOf(method).Findings, f.Vulnerability)
				tg := m.traceGraph(f.Vulnerability.Sink)
				res.Findings = append(res.Findings, Finding{
					Rule:   f.Vulnerability.Rule,
					Sink:   f.Vulnerability.Sink,
					Trace:  tg,
					Traces: tg.AllTraces(m.cfg.MaxTraces),
				})
			}
		}
	}
	res.Findings = funcutil.SortedByString(res.Findings, func(f Finding) string {
		return f.Rule + "\x00" + f.Sink.String()
	})
	for _, f := range res.Findings {
		m.logger.Infof("%s [%s] at %s (%d traces)\n", formatutil.Red("Finding"), formatutil.Yellow(f.Rule),
			f.Sink, len(f.Traces))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res.Errors = append([]error(nil), m.errs...)
	for _, ur := range res.Units {
		m.stats.PathEdges += ur.Stats.PathEdges
		m.stats.SummaryApplications += ur.Stats.SummaryApplications
	}
	for _, u := range m.order {
		if c := m.runners[u].bidi; c != nil && m.runners[u].state != runnerFailed {
			m.stats.Bidi.Handovers += c.stats.Handovers
			m.stats.Bidi.Handbacks += c.stats.Handbacks
		}
	}
	m.countCyclesLocked()
	res.Stats = m.stats
	return res
}

// countCyclesLocked computes the cycle statistics of the unit dependency graph
func (m *Manager) countCyclesLocked() {
	mutual := 0
	for _, comp := range graph.StrongComponents(m.deps) {
		if len(comp) > 1 {
			mutual += len(comp)
		}
	}
	m.stats.MutuallyDependentUnits = mutual
	if mutual > maxCycleEnumeration {
		m.logger.Debugf("Not enumerating the cycles of %d mutually dependent units\n", mutual)
		return
	}
	m.stats.DependencyCycles = len(graphutil.FindAllElementaryCycles(m.deps))
}

// traceGraph builds the trace graph of sink in the unit owning it, and continues the unresolved vertices in the
// units of their callers. Vertices that cannot be continued become sources.
func (m *Manager) traceGraph(sink Vertex) *TraceGraph {
	r, ok := m.runners[m.resolver.Resolve(sink.Method())]
	if !ok || r.state == runnerFailed {
		tg := newTraceGraph(sink)
		tg.addSource(sink)
		return tg
	}
	tg := r.forward.BuildTraceGraph(sink)
	done := map[Vertex]bool{}
	queue := tg.Unresolved()
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if done[v] {
			continue
		}
		done[v] = true
		continued := false
		for _, call := range m.crossUnitCallers(v) {
			cr, ok := m.runners[m.resolver.Resolve(call.Method())]
			if !ok || cr.state == runnerFailed || !cr.forward.HasEdgeTo(call) {
				continue
			}
			sub := cr.forward.BuildTraceGraph(call)
			tg.merge(sub)
			tg.addEdge(call, v)
			queue = append(queue, sub.Unresolved()...)
			continued = true
		}
		if !continued {
			tg.addSource(v)
		}
	}
	tg.unresolved = funcutil.NewOrderedSet[Vertex]()
	return tg
}

// crossUnitCallers returns the caller vertices of a callee start vertex in other units
func (m *Manager) crossUnitCallers(start Vertex) []Vertex {
	var callers []Vertex
	for _, fact := range m.store.CurrentFacts(start.Method()) {
		if f, ok := fact.(CrossUnitCallFact); ok && f.Callee == start {
			callers = append(callers, f.Caller)
		}
	}
	return callers
}
