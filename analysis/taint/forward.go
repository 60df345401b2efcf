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

package taint

import (
	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
	"github.com/UnitTestBot/jacodb-sub000/analysis/jir"
)

// forwardFlow propagates tainted access paths in the direction of execution
type forwardFlow struct {
	graph    ifds.Supergraph
	rules    rules
	maxDepth int
}

func (f *forwardFlow) StartFacts(ifds.Statement) []ifds.Fact {
	return []ifds.Fact{ifds.ZeroFact}
}

func (f *forwardFlow) Sequent(cur ifds.Statement, _ ifds.Statement, fact ifds.Fact) []ifds.Fact {
	t, ok := fact.(Tainted)
	if !ok {
		return []ifds.Fact{fact}
	}
	inst := cur.(*jir.Inst)
	t = t.at(inst)
	if inst.Op != jir.OpAssign {
		return []ifds.Fact{t}
	}
	gen, keep := jir.Assign(inst, t.Path, f.maxDepth)
	res := t.withPaths(gen)
	if keep {
		res = append(res, t)
	}
	return res
}

func (f *forwardFlow) CallToReturn(call ifds.Statement, _ ifds.Statement, fact ifds.Fact) []ifds.Fact {
	inst := call.(*jir.Inst)
	t, ok := fact.(Tainted)
	if !ok {
		res := []ifds.Fact{fact}
		if !inst.Lhs.IsZero() {
			for _, mark := range f.rules.sourceMarks(inst) {
				res = append(res, NewTainted(inst.Lhs, mark))
			}
		}
		return res
	}
	t = t.at(inst)
	switch {
	case t.Path.HasPrefix(inst.Lhs):
		return nil
	case jir.PassedTo(inst, t.Path) && f.rules.sanitizes(inst, t.Mark):
		return nil
	case t.Path.IsOnHeap() && jir.PassedTo(inst, t.Path) && jir.HasBodyCallee(f.graph, inst):
		// the callee returns the heap it can reach through ExitToReturn
		return nil
	default:
		return []ifds.Fact{t}
	}
}

func (f *forwardFlow) CallToStart(call ifds.Statement, callee ifds.Method, fact ifds.Fact) []ifds.Fact {
	t, ok := fact.(Tainted)
	if !ok {
		return []ifds.Fact{fact}
	}
	inst := call.(*jir.Inst)
	t = t.at(inst)
	return t.withPaths(jir.ToCallee(inst, callee.(*jir.Method), t.Path))
}

func (f *forwardFlow) ExitToReturn(call ifds.Statement, _ ifds.Statement, exit ifds.Statement,
	fact ifds.Fact) []ifds.Fact {
	t, ok := fact.(Tainted)
	if !ok {
		return []ifds.Fact{fact}
	}
	return t.withPaths(jir.ToCaller(call.(*jir.Inst), exit.(*jir.Inst), t.Path, f.maxDepth))
}

// forwardAnalyzer reports summary edges, vulnerabilities and calls to other units
type forwardAnalyzer struct {
	flow *forwardFlow
}

func (a *forwardAnalyzer) FlowFunctions() ifds.FlowFunctions {
	return a.flow
}

func (a *forwardAnalyzer) HandleNewEdge(edge ifds.Edge) []ifds.Event {
	events := ifds.SummaryEvents(a.flow.graph, edge)
	return append(events, a.flow.rules.sinkVulnerabilities(edge.To)...)
}

func (a *forwardAnalyzer) HandleCrossUnitCall(callerEdge ifds.Edge, calleeStart ifds.Vertex) []ifds.Event {
	return []ifds.Event{ifds.NewCrossUnitCall{Caller: callerEdge.To, Callee: calleeStart}}
}

func (a *forwardAnalyzer) HandleIfdsResult(ifds.UnitResult) []ifds.Event {
	return nil
}
