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
	"fmt"

	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
	"github.com/UnitTestBot/jacodb-sub000/analysis/jir"
)

// Tainted is the fact that the value at Path carries the taint Mark. Mark is the name of the taint tracking problem.
type Tainted struct {
	Path jir.Path
	Mark string
	// activation is the statement where the fact becomes active, nil if it is active
	activation ifds.Statement
}

var _ ifds.HeapFact = Tainted{}

// NewTainted returns an active fact
func NewTainted(path jir.Path, mark string) Tainted {
	return Tainted{Path: path, Mark: mark}
}

func (t Tainted) String() string {
	if t.activation != nil {
		return fmt.Sprintf("%s:%s@%s", t.Mark, t.Path, t.activation)
	}
	return fmt.Sprintf("%s:%s", t.Mark, t.Path)
}

func (t Tainted) OnHeap() bool { return t.Path.IsOnHeap() }

func (t Tainted) Activation() ifds.Statement { return t.activation }

func (t Tainted) WithActivation(s ifds.Statement) ifds.Fact {
	t.activation = s
	return t
}

// ActiveAt returns true if the fact can reach a sink at s
func (t Tainted) ActiveAt(s ifds.Statement) bool {
	return t.activation == nil || t.activation == s
}

// at returns the fact as seen by the flow functions of s: a fact reaching its activation statement becomes active
func (t Tainted) at(s ifds.Statement) Tainted {
	if t.activation == s {
		t.activation = nil
	}
	return t
}

// withPaths returns the facts with the same mark and activation as t, at each of the paths
func (t Tainted) withPaths(paths []jir.Path) []ifds.Fact {
	facts := make([]ifds.Fact, 0, len(paths))
	for _, p := range paths {
		t.Path = p
		facts = append(facts, t)
	}
	return facts
}
