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
)

// Finding is a vulnerability together with the evidence of how it was derived
type Finding struct {
	Rule  string
	Sink  Vertex
	Trace *TraceGraph
	// Traces are the paths of Trace, enumerated up to the MaxTraces option
	Traces [][]Vertex
}

// MethodSummary gathers what the analysis learnt about a method
type MethodSummary struct {
	Method Method
	// FactsAtExits maps an entry vertex to the exit vertices reachable from it
	FactsAtExits map[Vertex][]Vertex
	// CrossUnitCallees maps a call site vertex to the start vertices of callees in other units
	CrossUnitCallees map[Vertex][]Vertex
	// Findings are the vulnerabilities whose sink is in the method
	Findings []Vulnerability
}

// Result is the result of an analysis run
type Result struct {
	// Findings is never nil, and sorted by rule and sink
	Findings  []Finding
	Summaries map[Method]*MethodSummary
	// Units contains the final state of every unit that did not fail
	Units map[UnitID]*UnitResult
	Stats Stats
	// Errors are the failures of individual units. The results of those units are not included.
	Errors []error
	// TimedOut is true when the analysis was stopped before reaching its fixed point
	TimedOut bool
}

// FindingsOf returns the findings of a rule
func (r Result) FindingsOf(rule string) []Finding {
	var res []Finding
	for _, f := range r.Findings {
		if f.Rule == rule {
			res = append(res, f)
		}
	}
	return res
}

// PathEdges returns the path edges of all the units
func (r Result) PathEdges() []Edge {
	var edges []Edge
	for _, u := range r.Units {
		edges = append(edges, u.PathEdges...)
	}
	return edges
}

// RunAnalysis runs the analysis created by factory on the methods of graph reachable from startMethods.
// If resolver is nil, the unit granularity option of cfg selects one. If the timeout of cfg expires, the results
// computed so far are returned, with TimedOut set. An error is returned when the configuration is invalid, when the
// analysis is aborted by a routing error, or when ctx is cancelled (the partial results are returned as well).
func RunAnalysis(ctx context.Context, cfg *config.Config, graph Supergraph, resolver UnitResolver,
	factory AnalyzerFactory, startMethods []Method) (Result, error) {
	m, err := NewManager(cfg, nil, graph, resolver, factory)
	if err != nil {
		return Result{}, err
	}
	return m.Run(ctx, startMethods)
}
