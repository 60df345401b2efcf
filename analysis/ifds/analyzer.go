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

// FlowFunctions defines the semantics of an analysis. Every function returns the facts that hold after the
// transition when fact holds before it. Returning nil kills the fact.
type FlowFunctions interface {
	// StartFacts returns the facts holding at the entry statement of an analysis start method
	StartFacts(start Statement) []Fact

	// Sequent is the intraprocedural transition from cur to next
	Sequent(cur Statement, next Statement, fact Fact) []Fact

	// CallToReturn is the transition from a call site to one of its return sites, bypassing the callees
	CallToReturn(call Statement, returnSite Statement, fact Fact) []Fact

	// CallToStart maps a fact at a call site to the facts at the entry of the callee
	CallToStart(call Statement, callee Method, fact Fact) []Fact

	// ExitToReturn maps a fact at an exit statement of a callee to the facts at the return site of the call
	ExitToReturn(call Statement, returnSite Statement, exit Statement, fact Fact) []Fact
}

// UnitResult is the state of a unit once its analysis has finished
type UnitResult struct {
	Unit UnitID
	// PathEdges are all the path edges computed by the forward solver of the unit, in discovery order
	PathEdges []Edge
	// SummaryEdges are the path edges ending at an exit point, in discovery order
	SummaryEdges []Edge
	// Stats of the forward solver
	Stats SolverStats
}

// Analyzer wraps the flow functions of an analysis with the hooks called by the solver.
type Analyzer interface {
	FlowFunctions() FlowFunctions

	// HandleNewEdge is called for every new path edge. It typically reports summary edges and vulnerabilities.
	HandleNewEdge(edge Edge) []Event

	// HandleCrossUnitCall is called when a caller edge reaches a call to a callee start vertex in another unit
	HandleCrossUnitCall(callerEdge Edge, calleeStart Vertex) []Event

	// HandleIfdsResult is called once the unit has finished. Events returned are processed by the manager.
	HandleIfdsResult(result UnitResult) []Event
}

// AnalyzerFactory creates one analyzer per unit.
type AnalyzerFactory interface {
	NewAnalyzer(unit UnitID, graph Supergraph) Analyzer
}

// BackwardAnalyzerFactory is implemented by factories of analyses that can run bidirectionally. The graph passed to
// NewBackwardAnalyzer is the reversed supergraph.
type BackwardAnalyzerFactory interface {
	AnalyzerFactory
	NewBackwardAnalyzer(unit UnitID, reversed Supergraph) Analyzer
}

// Environment receives the events of a solver that must be handled outside of it
type Environment interface {
	HandleEvent(ev Event)
}

// Event is an event emitted by an analyzer or a solver. The set of events is closed.
type Event interface {
	isEvent()
}

// NewSummaryEdge reports a summary edge to publish in the summary store
type NewSummaryEdge struct {
	Edge Edge
}

// NewVulnerability reports a vulnerability to publish in the summary store
type NewVulnerability struct {
	Vulnerability Vulnerability
}

// EdgeForOtherUnit is an edge that must be propagated by the unit owning its method
type EdgeForOtherUnit struct {
	Edge Edge
}

// EdgeForOtherRunner is an edge for the other direction of the same unit in a bidirectional analysis
type EdgeForOtherRunner struct {
	Edge Edge
}

// NewCrossUnitCall reports that the caller vertex calls the callee start vertex in another unit
type NewCrossUnitCall struct {
	Caller Vertex
	Callee Vertex
}

// SubscriptionForSummaries requests the summaries of a method of another unit
type SubscriptionForSummaries struct {
	Method Method
}

// QueueEmptinessChanged describes a unit whose mailbox became empty or non-empty. The manager derives it from the
// pending messages of the runners and logs it at trace level: solvers do not emit it.
type QueueEmptinessChanged struct {
	Unit    UnitID
	IsEmpty bool
}

func (NewSummaryEdge) isEvent()           {}
func (NewVulnerability) isEvent()         {}
func (EdgeForOtherUnit) isEvent()         {}
func (EdgeForOtherRunner) isEvent()       {}
func (NewCrossUnitCall) isEvent()         {}
func (SubscriptionForSummaries) isEvent() {}
func (QueueEmptinessChanged) isEvent()    {}

// SummaryEvents returns the NewSummaryEdge event of edge if its target is an exit point in g, nil otherwise.
// Analyzers use it in HandleNewEdge.
func SummaryEvents(g Supergraph, edge Edge) []Event {
	if IsExitPoint(g, edge.To.Stmt) {
		return []Event{NewSummaryEdge{Edge: edge}}
	}
	return nil
}
