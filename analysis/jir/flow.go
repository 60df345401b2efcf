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

package jir

import (
	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
)

// MaxPathDepth is the default bound on the number of fields of the access paths created by analyses
const MaxPathDepth = 5

// PassedTo returns true if the value at p is reachable by the callees of call through the receiver or an argument
func PassedTo(call *Inst, p Path) bool {
	actuals, _ := call.Operands(nil)
	for _, a := range actuals {
		if p.HasPrefix(a) {
			return true
		}
	}
	return false
}

// ToCallee translates a path of the caller at call into the paths of the callee at its entry
func ToCallee(call *Inst, callee *Method, p Path) []Path {
	var res []Path
	actuals, formals := call.Operands(callee)
	for k, a := range actuals {
		if formals[k] != "" && p.HasPrefix(a) {
			res = append(res, p.ReplacePrefix(a, Local(formals[k])))
		}
	}
	return res
}

// ToCaller translates a path of the callee at exit into the paths of the caller after call. The returned value is
// mapped to the result of the call, and the heap reachable from the formal parameters to the corresponding actuals.
// Local variables of the callee are not visible to the caller.
func ToCaller(call *Inst, exit *Inst, p Path, maxDepth int) []Path {
	var res []Path
	callee := exit.method
	if exit.Rhs.IsPath() && !call.Lhs.IsZero() && p.HasPrefix(exit.Rhs.Path) {
		res = append(res, p.ReplacePrefix(exit.Rhs.Path, call.Lhs).Truncate(maxDepth))
	}
	if p.IsOnHeap() && callee.IsParam(p.Base) {
		actuals, formals := call.Operands(callee)
		for k, a := range actuals {
			if formals[k] == p.Base {
				res = append(res, p.ReplacePrefix(Local(p.Base), a).Truncate(maxDepth))
			}
		}
	}
	return res
}

// HasBodyCallee returns true if some callee of call in g has a body, and will therefore be analyzed
func HasBodyCallee(g ifds.Supergraph, call ifds.Statement) bool {
	for _, c := range g.Callees(call) {
		if len(g.EntryPoints(c)) > 0 {
			return true
		}
	}
	return false
}

// Assign returns the paths holding the value of p after the assignment inst. The second result is false if p is
// overwritten.
func Assign(inst *Inst, p Path, maxDepth int) ([]Path, bool) {
	var gen []Path
	if inst.Rhs.IsPath() && p.HasPrefix(inst.Rhs.Path) {
		gen = append(gen, p.ReplacePrefix(inst.Rhs.Path, inst.Lhs).Truncate(maxDepth))
	}
	return gen, !p.HasPrefix(inst.Lhs)
}
