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

// Graph is the supergraph of a program. Callees and predecessors are computed once when the graph is created.
type Graph struct {
	program *Program
	preds   map[*Inst][]ifds.Statement
	callees map[*Inst][]ifds.Method
}

var _ ifds.Supergraph = (*Graph)(nil)

// NewGraph returns the supergraph of p
func NewGraph(p *Program) *Graph {
	g := &Graph{
		program: p,
		preds:   map[*Inst][]ifds.Statement{},
		callees: map[*Inst][]ifds.Method{},
	}
	for _, m := range p.Methods() {
		for _, inst := range m.Insts {
			for _, succ := range g.Successors(inst) {
				s := succ.(*Inst)
				g.preds[s] = append(g.preds[s], inst)
			}
			if inst.Op == OpCall {
				for _, callee := range p.Resolve(inst.Callee) {
					g.callees[inst] = append(g.callees[inst], callee)
				}
			}
		}
	}
	return g
}

// Program returns the program of the graph
func (g *Graph) Program() *Program {
	return g.program
}

// EntryPoints returns the first instruction of methods with a body
func (g *Graph) EntryPoints(m ifds.Method) []ifds.Statement {
	method := m.(*Method)
	if !method.HasBody() {
		return nil
	}
	return []ifds.Statement{method.Insts[0]}
}

// ExitPoints returns the return instructions of m
func (g *Graph) ExitPoints(m ifds.Method) []ifds.Statement {
	var exits []ifds.Statement
	for _, inst := range m.(*Method).Insts {
		if inst.Op == OpReturn {
			exits = append(exits, inst)
		}
	}
	return exits
}

func (g *Graph) Successors(s ifds.Statement) []ifds.Statement {
	inst := s.(*Inst)
	insts := inst.method.Insts
	next := func() []ifds.Statement {
		if inst.Index+1 < len(insts) {
			return []ifds.Statement{insts[inst.Index+1]}
		}
		return nil
	}
	switch inst.Op {
	case OpReturn:
		return nil
	case OpGoto:
		return []ifds.Statement{insts[inst.Target]}
	case OpIf:
		succs := next()
		if inst.Target != inst.Index+1 {
			succs = append(succs, insts[inst.Target])
		}
		return succs
	default:
		return next()
	}
}

func (g *Graph) Predecessors(s ifds.Statement) []ifds.Statement {
	return g.preds[s.(*Inst)]
}

func (g *Graph) Callees(s ifds.Statement) []ifds.Method {
	return g.callees[s.(*Inst)]
}

func (g *Graph) MethodOf(s ifds.Statement) ifds.Method {
	return s.(*Inst).method
}
