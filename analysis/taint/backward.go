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

// backwardFlow looks for the aliases of tainted heap locations, walking the reversed graph from the statement where
// the forward analysis found them. It does not enter callees.
type backwardFlow struct {
	maxDepth int
}

func (f *backwardFlow) StartFacts(ifds.Statement) []ifds.Fact {
	return nil
}

func (f *backwardFlow) Sequent(cur ifds.Statement, _ ifds.Statement, fact ifds.Fact) []ifds.Fact {
	t, ok := fact.(Tainted)
	if !ok {
		return []ifds.Fact{fact}
	}
	inst := cur.(*jir.Inst)
	if inst.Op != jir.OpAssign || !t.Path.HasProperPrefix(inst.Lhs) {
		return []ifds.Fact{t}
	}
	// before lhs = rhs, the location of t is reached through rhs
	if inst.Rhs.IsPath() {
		t.Path = t.Path.ReplacePrefix(inst.Lhs, inst.Rhs.Path).Truncate(f.maxDepth)
		return []ifds.Fact{t}
	}
	return nil
}

func (f *backwardFlow) CallToReturn(call ifds.Statement, _ ifds.Statement, fact ifds.Fact) []ifds.Fact {
	t, ok := fact.(Tainted)
	if ok && t.Path.HasProperPrefix(call.(*jir.Inst).Lhs) {
		return nil
	}
	return []ifds.Fact{fact}
}

func (f *backwardFlow) CallToStart(ifds.Statement, ifds.Method, ifds.Fact) []ifds.Fact {
	return nil
}

func (f *backwardFlow) ExitToReturn(ifds.Statement, ifds.Statement, ifds.Statement, ifds.Fact) []ifds.Fact {
	return nil
}

// backwardAnalyzer hands a fact back to the forward analysis at the statements where the value it denotes is
// copied or escapes: an assignment to or from its path, and a call receiving it. The fact handed back holds before
// the statement, so that the forward flow of the statement derives the aliases.
type backwardAnalyzer struct {
	flow *backwardFlow
}

func (a *backwardAnalyzer) FlowFunctions() ifds.FlowFunctions {
	return a.flow
}

func (a *backwardAnalyzer) HandleNewEdge(edge ifds.Edge) []ifds.Event {
	t, ok := edge.To.Fact.(Tainted)
	if !ok || t.Activation() == nil {
		return nil
	}
	inst := edge.To.Stmt.(*jir.Inst)
	var back []ifds.Fact
	switch inst.Op {
	case jir.OpAssign:
		if inst.Rhs.IsPath() && t.Path.HasPrefix(inst.Rhs.Path) {
			back = append(back, t)
		}
		if t.Path.HasProperPrefix(inst.Lhs) {
			back = append(back, a.flow.Sequent(inst, nil, t)...)
		}
	case jir.OpCall:
		if jir.PassedTo(inst, t.Path) {
			back = append(back, t)
		}
	}
	events := make([]ifds.Event, 0, len(back))
	for _, f := range back {
		to := ifds.Vertex{Stmt: inst, Fact: f}
		events = append(events, ifds.EdgeForOtherRunner{Edge: ifds.Edge{From: edge.From, To: to}})
	}
	return events
}

func (a *backwardAnalyzer) HandleCrossUnitCall(ifds.Edge, ifds.Vertex) []ifds.Event {
	return nil
}

func (a *backwardAnalyzer) HandleIfdsResult(ifds.UnitResult) []ifds.Event {
	return nil
}
