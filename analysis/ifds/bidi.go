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

// BidiStats counts the exchanges between the two directions of a bidirectional unit
type BidiStats struct {
	Handovers int
	Handbacks int
}

// bidiCoordinator runs a forward and a backward solver of the same unit in the same goroutine.
//
// Heap facts discovered by the forward solver are handed over to the backward solver, which looks for their
// aliases before the statement where they were discovered (the activation statement). The backward analyzer hands a
// fact back at the statement where its value is copied or escapes, and the forward solver propagates it from there.
// The fact keeps its activation statement: it only becomes active once the forward analysis reaches that statement.
type bidiCoordinator struct {
	forward  *Solver
	backward *Solver
	bgraph   Supergraph
	logger   *config.LogGroup

	// origins maps an activation statement to the forward start vertices of the edges handed over there
	origins map[Statement]*funcutil.OrderedSet[Vertex]
	pending []Edge
	stats   BidiStats
}

func newBidiCoordinator(logger *config.LogGroup) *bidiCoordinator {
	return &bidiCoordinator{
		logger:  logger,
		origins: map[Statement]*funcutil.OrderedSet[Vertex]{},
	}
}

// forwardEnv returns the environment of the forward solver: handovers requested explicitly by the forward analyzer
// are queued, other events go to next.
func (c *bidiCoordinator) forwardEnv(next Environment) Environment {
	return envFunc(func(ev Event) {
		if e, ok := ev.(EdgeForOtherRunner); ok {
			c.pending = append(c.pending, e.Edge)
			return
		}
		next.HandleEvent(ev)
	})
}

// backwardEnv returns the environment of the backward solver. Only handbacks are meaningful: the backward solver
// does not publish summaries and does not communicate with other units.
func (c *bidiCoordinator) backwardEnv() Environment {
	return envFunc(func(ev Event) {
		switch e := ev.(type) {
		case EdgeForOtherRunner:
			c.handback(e.Edge.To)
		case NewSummaryEdge, NewVulnerability, EdgeForOtherUnit, NewCrossUnitCall, SubscriptionForSummaries:
			c.logger.Tracef("backward solver of %s ignores %T\n", c.backward.Unit(), ev)
		}
	})
}

// wrapForward makes every new forward edge carrying an inactive heap fact a handover candidate
func (c *bidiCoordinator) wrapForward(a Analyzer) Analyzer {
	return &handoverAnalyzer{Analyzer: a, c: c}
}

// wrapBackward makes every backward edge reaching a backward exit point hand its fact back
func (c *bidiCoordinator) wrapBackward(a Analyzer, reversed Supergraph) Analyzer {
	return &handbackAnalyzer{Analyzer: a, c: c, graph: reversed}
}

type handoverAnalyzer struct {
	Analyzer
	c *bidiCoordinator
}

func (a *handoverAnalyzer) HandleNewEdge(edge Edge) []Event {
	events := a.Analyzer.HandleNewEdge(edge)
	if hf, ok := edge.To.Fact.(HeapFact); ok && hf.OnHeap() && hf.Activation() == nil {
		a.c.pending = append(a.c.pending, edge)
	}
	return events
}

type handbackAnalyzer struct {
	Analyzer
	c     *bidiCoordinator
	graph Supergraph
}

func (a *handbackAnalyzer) HandleNewEdge(edge Edge) []Event {
	events := a.Analyzer.HandleNewEdge(edge)
	if IsExitPoint(a.graph, edge.To.Stmt) {
		a.c.handback(edge.To)
	}
	return events
}

// handover sends a forward edge to the backward solver. The fact is activated at the statement of the edge target,
// unless it already has an activation statement.
func (c *bidiCoordinator) handover(edge Edge) {
	stmt := edge.To.Stmt
	hf, ok := edge.To.Fact.(HeapFact)
	if !ok {
		return
	}
	fact := edge.To.Fact
	act := hf.Activation()
	if act == nil {
		fact = hf.WithActivation(stmt)
		act = stmt
	}
	entries := c.bgraph.EntryPoints(stmt.Method())
	if len(entries) == 0 {
		return
	}
	funcutil.GetOrCreate(c.origins, act).Add(edge.From)
	for _, entry := range entries {
		e := Edge{From: Vertex{Stmt: entry, Fact: fact}, To: Vertex{Stmt: stmt, Fact: fact}}
		if c.backward.Propagate(e, Predecessor{Kind: Unknown}) {
			c.stats.Handovers++
			c.backward.Propagate(Edge{From: Vertex{Stmt: entry, Fact: ZeroFact}, To: Vertex{Stmt: stmt, Fact: ZeroFact}},
				Predecessor{Kind: Unknown})
		}
	}
}

// handback propagates a backward fact in the forward solver, at the statement of v, from every forward origin
// recorded for the activation statement of the fact.
func (c *bidiCoordinator) handback(v Vertex) {
	hf, ok := v.Fact.(HeapFact)
	if !ok || hf.Activation() == nil {
		return
	}
	for _, origin := range c.origins[hf.Activation()].Snapshot() {
		if c.forward.Propagate(Edge{From: origin, To: v}, Predecessor{Kind: Unknown}) {
			c.stats.Handbacks++
		}
	}
}

// run alternates the two solvers until both are at their fixed point. The backward solver runs to its fixed point
// every time forward edges were handed over to it.
func (c *bidiCoordinator) run(ctx context.Context) error {
	for n := 0; ; n++ {
		if len(c.pending) > 0 {
			if err := c.flush(ctx); err != nil {
				return err
			}
			continue
		}
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !c.forward.Step() && len(c.pending) == 0 {
			return nil
		}
	}
}

func (c *bidiCoordinator) flush(ctx context.Context) error {
	pending := c.pending
	c.pending = nil
	for _, edge := range pending {
		c.handover(edge)
	}
	return c.backward.RunToFixedPoint(ctx)
}

type envFunc func(ev Event)

func (f envFunc) HandleEvent(ev Event) { f(ev) }
