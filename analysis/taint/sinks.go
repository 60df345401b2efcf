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

// isSink returns true if call is a call to a sink of the problem named mark
func (r rules) isSink(call *jir.Inst, mark string) bool {
	spec, ok := r.byName[mark]
	return ok && call.Op == jir.OpCall && spec.IsSink(call.Callee.CodeIdentifier())
}

// sinkVulnerabilities returns the vulnerabilities of a fact reaching the statement of v: the fact must be active, and
// its value passed to a sink of its problem.
func (r rules) sinkVulnerabilities(v ifds.Vertex) []ifds.Event {
	t, ok := v.Fact.(Tainted)
	if !ok || !t.ActiveAt(v.Stmt) {
		return nil
	}
	call, ok := v.Stmt.(*jir.Inst)
	if !ok || !r.isSink(call, t.Mark) || !jir.PassedTo(call, t.Path) {
		return nil
	}
	return []ifds.Event{ifds.NewVulnerability{Vulnerability: ifds.Vulnerability{Rule: t.Mark, Sink: v}}}
}
