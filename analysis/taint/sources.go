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
	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/analysis/jir"
)

// rules are the taint tracking problems of an analysis, indexed by name
type rules struct {
	specs  []config.TaintSpec
	byName map[string]config.TaintSpec
}

func newRules(specs []config.TaintSpec) rules {
	r := rules{specs: specs, byName: map[string]config.TaintSpec{}}
	for _, spec := range specs {
		r.byName[spec.Name] = spec
	}
	return r
}

// sourceMarks returns the names of the problems for which call is a call to a source
func (r rules) sourceMarks(call *jir.Inst) []string {
	if call.Op != jir.OpCall {
		return nil
	}
	var marks []string
	cid := call.Callee.CodeIdentifier()
	for _, spec := range r.specs {
		if spec.IsSource(cid) {
			marks = append(marks, spec.Name)
		}
	}
	return marks
}

// sanitizes returns true if call is a call to a sanitizer of the problem named mark
func (r rules) sanitizes(call *jir.Inst, mark string) bool {
	spec, ok := r.byName[mark]
	return ok && call.Op == jir.OpCall && spec.IsSanitizer(call.Callee.CodeIdentifier())
}
