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

// Package nullness implements a may-be-null analysis on top of the ifds engine. It reports the statements that may
// dereference a null reference.
//
// Null values come from assignments of the null constant, from null arguments and returned values, and from
// seeds: parameters of methods declared as possibly null.
package nullness

import (
	"context"
	"fmt"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
	"github.com/UnitTestBot/jacodb-sub000/analysis/jir"
)

// Rule is the name of the vulnerabilities reported by the analysis
const Rule = "null-dereference"

// MayBeNull is the fact that the value at Path may be null
type MayBeNull struct {
	Path jir.Path
}

func (f MayBeNull) String() string {
	return "null?" + f.Path.String()
}

// Seed declares that a parameter of the methods matched by Method may be null. Param is the name of the parameter,
// or "this".
type Seed struct {
	Method config.CodeIdentifier
	Param  string
}

// Factory creates the nullness analyzers of the units
type Factory struct {
	Seeds        []Seed
	MaxPathDepth int
}

var _ ifds.AnalyzerFactory = (*Factory)(nil)

// NewFactory returns a factory of analyzers with the seeds
func NewFactory(seeds ...Seed) *Factory {
	return &Factory{Seeds: seeds, MaxPathDepth: jir.MaxPathDepth}
}

func (f *Factory) NewAnalyzer(_ ifds.UnitID, graph ifds.Supergraph) ifds.Analyzer {
	return &analyzer{flow: &flow{graph: graph, seeds: f.Seeds, maxDepth: f.MaxPathDepth}}
}

// Analyze runs the nullness analysis on the program from the entrypoints
func Analyze(ctx context.Context, cfg *config.Config, program *jir.Program, entrypoints []*jir.Method,
	seeds ...Seed) (ifds.Result, error) {
	if len(entrypoints) == 0 {
		return ifds.Result{}, fmt.Errorf("no entrypoint")
	}
	starts := make([]ifds.Method, len(entrypoints))
	for i, m := range entrypoints {
		starts[i] = m
	}
	return ifds.RunAnalysis(ctx, cfg, jir.NewGraph(program), nil, NewFactory(seeds...), starts)
}

type flow struct {
	graph    ifds.Supergraph
	seeds    []Seed
	maxDepth int
}

// seedFacts returns the facts holding at the entry of m because of the seeds
func (f *flow) seedFacts(m *jir.Method) []ifds.Fact {
	var facts []ifds.Fact
	cid := m.CodeIdentifier()
	for _, s := range f.seeds {
		if m.IsParam(s.Param) && cid.MatchesAny([]config.CodeIdentifier{s.Method}) {
			facts = append(facts, MayBeNull{Path: jir.Local(s.Param)})
		}
	}
	return facts
}

func (f *flow) StartFacts(start ifds.Statement) []ifds.Fact {
	return append([]ifds.Fact{ifds.ZeroFact}, f.seedFacts(start.(*jir.Inst).Parent())...)
}

func (f *flow) Sequent(cur ifds.Statement, _ ifds.Statement, fact ifds.Fact) []ifds.Fact {
	inst := cur.(*jir.Inst)
	if fact == ifds.ZeroFact {
		if inst.Op == jir.OpAssign && inst.Rhs.Kind == jir.NullValue {
			return []ifds.Fact{fact, MayBeNull{Path: inst.Lhs}}
		}
		return []ifds.Fact{fact}
	}
	n, ok := fact.(MayBeNull)
	if !ok || inst.Op != jir.OpAssign {
		return []ifds.Fact{fact}
	}
	gen, keep := jir.Assign(inst, n.Path, f.maxDepth)
	res := mayBeNull(gen)
	if keep {
		res = append(res, n)
	}
	return res
}

func (f *flow) CallToReturn(call ifds.Statement, _ ifds.Statement, fact ifds.Fact) []ifds.Fact {
	n, ok := fact.(MayBeNull)
	if !ok {
		return []ifds.Fact{fact}
	}
	inst := call.(*jir.Inst)
	if n.Path.HasPrefix(inst.Lhs) {
		return nil
	}
	if n.Path.IsOnHeap() && jir.PassedTo(inst, n.Path) && jir.HasBodyCallee(f.graph, inst) {
		return nil
	}
	return []ifds.Fact{n}
}

func (f *flow) CallToStart(call ifds.Statement, callee ifds.Method, fact ifds.Fact) []ifds.Fact {
	inst := call.(*jir.Inst)
	m := callee.(*jir.Method)
	if fact == ifds.ZeroFact {
		res := append([]ifds.Fact{fact}, f.seedFacts(m)...)
		for k, a := range inst.Args {
			if a.Kind == jir.NullValue && k < len(m.Params) {
				res = append(res, MayBeNull{Path: jir.Local(m.Params[k])})
			}
		}
		return res
	}
	n, ok := fact.(MayBeNull)
	if !ok {
		return nil
	}
	return mayBeNull(jir.ToCallee(inst, m, n.Path))
}

func (f *flow) ExitToReturn(call ifds.Statement, _ ifds.Statement, exit ifds.Statement, fact ifds.Fact) []ifds.Fact {
	inst := call.(*jir.Inst)
	ret := exit.(*jir.Inst)
	if fact == ifds.ZeroFact {
		if ret.Rhs.Kind == jir.NullValue && !inst.Lhs.IsZero() {
			return []ifds.Fact{fact, MayBeNull{Path: inst.Lhs}}
		}
		return []ifds.Fact{fact}
	}
	n, ok := fact.(MayBeNull)
	if !ok {
		return nil
	}
	return mayBeNull(jir.ToCaller(inst, ret, n.Path, f.maxDepth))
}

func mayBeNull(paths []jir.Path) []ifds.Fact {
	facts := make([]ifds.Fact, 0, len(paths))
	for _, p := range paths {
		facts = append(facts, MayBeNull{Path: p})
	}
	return facts
}

// analyzer reports the dereferences once the facts of the unit are known
type analyzer struct {
	flow *flow
}

func (a *analyzer) FlowFunctions() ifds.FlowFunctions {
	return a.flow
}

func (a *analyzer) HandleNewEdge(edge ifds.Edge) []ifds.Event {
	return ifds.SummaryEvents(a.flow.graph, edge)
}

func (a *analyzer) HandleCrossUnitCall(callerEdge ifds.Edge, calleeStart ifds.Vertex) []ifds.Event {
	return []ifds.Event{ifds.NewCrossUnitCall{Caller: callerEdge.To, Callee: calleeStart}}
}

// HandleIfdsResult reports every statement dereferencing a value that may be null
func (a *analyzer) HandleIfdsResult(result ifds.UnitResult) []ifds.Event {
	var events []ifds.Event
	seen := map[ifds.Vertex]bool{}
	for _, edge := range result.PathEdges {
		n, ok := edge.To.Fact.(MayBeNull)
		if !ok || seen[edge.To] {
			continue
		}
		seen[edge.To] = true
		if edge.To.Stmt.(*jir.Inst).Dereferences(n.Path) {
			events = append(events, ifds.NewVulnerability{Vulnerability: ifds.Vulnerability{Rule: Rule, Sink: edge.To}})
		}
	}
	return events
}
