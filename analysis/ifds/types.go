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
	"fmt"
)

// Method is a method of the analyzed program. Implementations must be comparable, and two values representing
// the same method must be equal.
type Method interface {
	fmt.Stringer
}

// Statement is one instruction of the analyzed program. Every statement belongs to exactly one method.
// Implementations must be comparable.
type Statement interface {
	fmt.Stringer
	Method() Method
}

// Fact is an abstract dataflow fact. Implementations must be comparable values: two facts are the same fact iff
// they are equal with ==.
type Fact interface {
	fmt.Stringer
}

type zeroFact struct{}

func (zeroFact) String() string { return "0" }

// ZeroFact is the fact that always holds. It seeds every method entry.
var ZeroFact Fact = zeroFact{}

// HeapFact is implemented by facts that can denote heap-resident values. Heap facts that are not activated
// are handed over to the backward analysis when the analysis is bidirectional.
type HeapFact interface {
	Fact

	// OnHeap returns true if the fact is about a value stored in the heap
	OnHeap() bool

	// Activation returns the statement at which the fact is armed, or nil if the fact is active everywhere
	Activation() Statement

	// WithActivation returns a copy of the fact with the activation statement set to s
	WithActivation(s Statement) Fact
}

// ClassMember is implemented by methods that belong to a class. The class and package unit resolvers rely on it.
type ClassMember interface {
	// ClassName returns the fully qualified name of the class declaring the method, e.g. com.example.Main
	ClassName() string
}

// Vertex is a fact at a statement. The fact holds before the statement is executed, in the direction of the
// analysis.
type Vertex struct {
	Stmt Statement
	Fact Fact
}

func (v Vertex) String() string {
	return fmt.Sprintf("(%s, %s)", v.Stmt, v.Fact)
}

// Method returns the method of the vertex's statement
func (v Vertex) Method() Method {
	return v.Stmt.Method()
}

// Edge is a path edge: the fact at To is reachable within the method, assuming the fact at From held at the
// method entry. Both vertices belong to the same method.
type Edge struct {
	From Vertex
	To   Vertex
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}

// Method returns the method of the edge
func (e Edge) Method() Method {
	return e.From.Stmt.Method()
}

// PredecessorKind is the kind of transition that produced a path edge
type PredecessorKind int

const (
	// NoPredecessor marks seed edges
	NoPredecessor PredecessorKind = iota
	// Sequent is an intraprocedural step, or a call-to-return-site step
	Sequent
	// CallToStart marks the loop edge at a callee entry, created from a caller edge
	CallToStart
	// ThroughSummary marks an edge at a return site obtained by applying a summary edge to a caller edge
	ThroughSummary
	// Unknown marks edges injected from outside the solver (other units, bidirectional handovers)
	Unknown
)

func (k PredecessorKind) String() string {
	switch k {
	case NoPredecessor:
		return "NoPredecessor"
	case Sequent:
		return "Sequent"
	case CallToStart:
		return "CallToStart"
	case ThroughSummary:
		return "ThroughSummary"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("PredecessorKind(%d)", int(k))
	}
}

// Predecessor records one justification of a path edge. Edge is the predecessor edge (the caller edge for
// CallToStart and ThroughSummary); it is the zero Edge for NoPredecessor and Unknown. Summary is only set for
// ThroughSummary.
type Predecessor struct {
	Kind    PredecessorKind
	Edge    Edge
	Summary Edge
}

func (p Predecessor) String() string {
	switch p.Kind {
	case NoPredecessor, Unknown:
		return p.Kind.String()
	case ThroughSummary:
		return fmt.Sprintf("%s(%s via %s)", p.Kind, p.Edge, p.Summary)
	default:
		return fmt.Sprintf("%s(%s)", p.Kind, p.Edge)
	}
}

// Vulnerability is a fact an analyzer considers interesting at some statement, e.g. a tainted value reaching a
// sink.
type Vulnerability struct {
	// Rule identifies the rule or analysis that reported the vulnerability
	Rule string
	// Sink is the vertex where the vulnerability was detected
	Sink Vertex
}

func (v Vulnerability) String() string {
	return fmt.Sprintf("[%s] %s", v.Rule, v.Sink)
}
