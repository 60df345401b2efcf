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

// Package jir is a small in-memory intermediate representation of JVM programs: classes with single inheritance,
// methods with a list of instructions over local variables and access paths, and static or virtual calls.
//
// Programs are created with a ProgramBuilder. A Graph exposes a Program as the supergraph analyzed by the ifds
// package, with virtual calls resolved by class hierarchy analysis.
package jir

import (
	"fmt"
	"strings"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
)

// This is the name of the receiver of instance methods
const This = "this"

// Op is the operation of an instruction
type Op int

const (
	// OpNop does nothing
	OpNop Op = iota
	// OpAssign is Lhs = Rhs
	OpAssign
	// OpCall is Lhs = Receiver.Callee(Args...). Lhs and Receiver may be zero.
	OpCall
	// OpReturn returns Rhs, which is the zero Value for void methods
	OpReturn
	// OpIf continues at the next instruction or jumps to Target
	OpIf
	// OpGoto jumps to Target
	OpGoto
)

func (op Op) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpAssign:
		return "assign"
	case OpCall:
		return "call"
	case OpReturn:
		return "return"
	case OpIf:
		return "if"
	case OpGoto:
		return "goto"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// MethodRef is the method named by a call instruction
type MethodRef struct {
	Class string
	Name  string
	// Virtual calls are dispatched on the class of the receiver
	Virtual bool
}

func (r MethodRef) String() string {
	return r.Class + "." + r.Name
}

// CodeIdentifier returns the identifier used to match the referenced method against the configuration
func (r MethodRef) CodeIdentifier() config.CodeIdentifier {
	return config.CodeIdentifier{
		Package: ifds.PackageOf(r.Class),
		Class:   r.Class[strings.LastIndex(r.Class, ".")+1:],
		Method:  r.Name,
	}
}

// Inst is an instruction. Instructions are identified by their address and implement ifds.Statement.
type Inst struct {
	method *Method
	Index  int
	Op     Op
	// Lhs is the target of an assignment or the result of a call
	Lhs Path
	// Rhs is the source of an assignment, the condition of a branch or the value returned
	Rhs      Value
	Callee   MethodRef
	Receiver Path
	Args     []Value
	// Target is the index of the instruction a branch jumps to
	Target int
}

// Method returns the method containing the instruction
func (i *Inst) Method() ifds.Method { return i.method }

// Parent returns the method containing the instruction
func (i *Inst) Parent() *Method { return i.method }

func (i *Inst) String() string {
	return fmt.Sprintf("%s:%d", i.method, i.Index)
}

// Text returns the instruction in a readable form
func (i *Inst) Text() string {
	switch i.Op {
	case OpAssign:
		return fmt.Sprintf("%s = %s", i.Lhs, i.Rhs)
	case OpCall:
		var b strings.Builder
		if !i.Lhs.IsZero() {
			fmt.Fprintf(&b, "%s = ", i.Lhs)
		}
		if !i.Receiver.IsZero() {
			fmt.Fprintf(&b, "%s.", i.Receiver)
		}
		fmt.Fprintf(&b, "%s(", i.Callee)
		for k, a := range i.Args {
			if k > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteString(")")
		return b.String()
	case OpReturn:
		return strings.TrimSpace("return " + i.Rhs.String())
	case OpIf:
		return fmt.Sprintf("if %s goto %d", i.Rhs, i.Target)
	case OpGoto:
		return fmt.Sprintf("goto %d", i.Target)
	default:
		return i.Op.String()
	}
}

// Operands returns the access paths the instruction passes to its callee: receiver first, then the arguments.
// The second result gives, for each operand, the corresponding formal parameter name in the callee.
func (i *Inst) Operands(callee *Method) ([]Path, []string) {
	var actuals []Path
	var formals []string
	if !i.Receiver.IsZero() {
		actuals = append(actuals, i.Receiver)
		formals = append(formals, This)
	}
	for k, a := range i.Args {
		if !a.IsPath() {
			continue
		}
		actuals = append(actuals, a.Path)
		if callee != nil && k < len(callee.Params) {
			formals = append(formals, callee.Params[k])
		} else {
			formals = append(formals, "")
		}
	}
	return actuals, formals
}

// Dereferences returns true if executing the instruction dereferences the value at p: a field of p is read or
// written, or a method is invoked on p.
func (i *Inst) Dereferences(p Path) bool {
	if p.IsZero() {
		return false
	}
	accessed := []Path{i.Lhs}
	if i.Rhs.IsPath() {
		accessed = append(accessed, i.Rhs.Path)
	}
	if i.Op == OpCall {
		if i.Receiver == p {
			return true
		}
		accessed = append(accessed, i.Receiver)
		for _, a := range i.Args {
			if a.IsPath() {
				accessed = append(accessed, a.Path)
			}
		}
	}
	for _, q := range accessed {
		if q.HasProperPrefix(p) {
			return true
		}
	}
	return false
}

// Method is a method of the program. Methods without instructions have no body (native or library methods).
type Method struct {
	Class *Class
	Name  string
	// Params are the names of the formal parameters, without the receiver
	Params   []string
	Instance bool
	Insts    []*Inst
}

func (m *Method) String() string {
	return m.Class.Name + "." + m.Name
}

// ClassName returns the fully qualified name of the declaring class
func (m *Method) ClassName() string { return m.Class.Name }

// HasBody returns false for native and library methods
func (m *Method) HasBody() bool { return len(m.Insts) > 0 }

// CodeIdentifier returns the identifier used to match the method against the configuration
func (m *Method) CodeIdentifier() config.CodeIdentifier {
	return config.CodeIdentifier{
		Package: ifds.PackageOf(m.Class.Name),
		Class:   m.Class.SimpleName(),
		Method:  m.Name,
	}
}

// IsParam returns true if local is a formal parameter or the receiver of the method
func (m *Method) IsParam(local string) bool {
	if m.Instance && local == This {
		return true
	}
	for _, p := range m.Params {
		if p == local {
			return true
		}
	}
	return false
}

// Class is a class of the program
type Class struct {
	Name string
	// Super is the name of the superclass, empty for root classes
	Super   string
	methods map[string]*Method
	order   []*Method
}

// SimpleName returns the name of the class without its package
func (c *Class) SimpleName() string {
	return c.Name[strings.LastIndex(c.Name, ".")+1:]
}

// Method returns the method declared in the class with that name, or nil
func (c *Class) Method(name string) *Method {
	return c.methods[name]
}

// Methods returns the methods declared in the class, in declaration order
func (c *Class) Methods() []*Method {
	return c.order
}

func (c *Class) addMethod(m *Method) {
	if _, ok := c.methods[m.Name]; !ok {
		c.order = append(c.order, m)
	}
	c.methods[m.Name] = m
}

// Program is a set of classes
type Program struct {
	classes map[string]*Class
	order   []*Class
}

func newProgram() *Program {
	return &Program{classes: map[string]*Class{}}
}

func (p *Program) class(name string) *Class {
	c, ok := p.classes[name]
	if !ok {
		c = &Class{Name: name, methods: map[string]*Method{}}
		p.classes[name] = c
		p.order = append(p.order, c)
	}
	return c
}

// Class returns the class with that name, or nil
func (p *Program) Class(name string) *Class {
	return p.classes[name]
}

// Classes returns the classes of the program in declaration order
func (p *Program) Classes() []*Class {
	return p.order
}

// Method returns the method declared in class with that name, or nil
func (p *Program) Method(class, name string) *Method {
	if c := p.classes[class]; c != nil {
		return c.methods[name]
	}
	return nil
}

// Methods returns all the methods of the program
func (p *Program) Methods() []*Method {
	var methods []*Method
	for _, c := range p.order {
		methods = append(methods, c.order...)
	}
	return methods
}

// Subclasses returns the class and all its transitive subclasses
func (p *Program) Subclasses(name string) []*Class {
	var res []*Class
	for _, c := range p.order {
		for cur := c; cur != nil; cur = p.classes[cur.Super] {
			if cur.Name == name {
				res = append(res, c)
				break
			}
			if cur.Super == "" {
				break
			}
		}
	}
	return res
}

// lookup returns the method name of class or of its closest superclass declaring it
func (p *Program) lookup(class, name string) *Method {
	seen := map[string]bool{}
	for cur := p.classes[class]; cur != nil && !seen[cur.Name]; cur = p.classes[cur.Super] {
		seen[cur.Name] = true
		if m := cur.methods[name]; m != nil {
			return m
		}
	}
	return nil
}

// Resolve returns the methods a call to ref may invoke. Static calls resolve to the method declared in the class or
// inherited from a superclass. Virtual calls resolve to the implementation of every subclass of the class.
func (p *Program) Resolve(ref MethodRef) []*Method {
	if !ref.Virtual {
		if m := p.lookup(ref.Class, ref.Name); m != nil {
			return []*Method{m}
		}
		return nil
	}
	var res []*Method
	seen := map[*Method]bool{}
	for _, c := range p.Subclasses(ref.Class) {
		if m := p.lookup(c.Name, ref.Name); m != nil && !seen[m] {
			seen[m] = true
			res = append(res, m)
		}
	}
	return res
}
