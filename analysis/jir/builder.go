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
	"errors"
	"fmt"
)

// ProgramBuilder creates programs. Calls to methods that are not declared when Build is called resolve to native
// stubs created in the class named by the call.
type ProgramBuilder struct {
	program *Program
	methods []*MethodBuilder
	errs    []error
}

// NewProgramBuilder returns a builder of an empty program
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{program: newProgram()}
}

// Class declares a class with a superclass. super may be empty.
func (b *ProgramBuilder) Class(name, super string) *ProgramBuilder {
	c := b.program.class(name)
	if super != "" {
		c.Super = super
		b.program.class(super)
	}
	return b
}

// Native declares a static method without a body
func (b *ProgramBuilder) Native(class, name string, params ...string) *ProgramBuilder {
	b.program.class(class).addMethod(&Method{Class: b.program.class(class), Name: name, Params: params})
	return b
}

// Method starts the declaration of a static method with a body
func (b *ProgramBuilder) Method(class, name string, params ...string) *MethodBuilder {
	return b.method(class, name, false, params)
}

// InstanceMethod starts the declaration of an instance method. The receiver is the local "this".
func (b *ProgramBuilder) InstanceMethod(class, name string, params ...string) *MethodBuilder {
	return b.method(class, name, true, params)
}

func (b *ProgramBuilder) method(class, name string, instance bool, params []string) *MethodBuilder {
	c := b.program.class(class)
	if c.Method(name) != nil {
		b.errs = append(b.errs, fmt.Errorf("method %s.%s declared twice", class, name))
	}
	m := &Method{Class: c, Name: name, Params: params, Instance: instance}
	c.addMethod(m)
	mb := &MethodBuilder{program: b, method: m, labels: map[string]int{}}
	b.methods = append(b.methods, mb)
	return mb
}

// Build resolves the labels of every method and returns the program. Every method with a body must end with a
// return or a goto, and every label must be defined.
func (b *ProgramBuilder) Build() (*Program, error) {
	errs := b.errs
	for _, mb := range b.methods {
		errs = append(errs, mb.finish()...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	for _, m := range b.program.Methods() {
		for _, inst := range m.Insts {
			if inst.Op == OpCall && len(b.program.Resolve(inst.Callee)) == 0 {
				c := b.program.class(inst.Callee.Class)
				c.addMethod(&Method{Class: c, Name: inst.Callee.Name, Instance: inst.Callee.Virtual})
			}
		}
	}
	return b.program, nil
}

// MustBuild is Build for programs known to be well formed. It panics on errors.
func (b *ProgramBuilder) MustBuild() *Program {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// MethodBuilder appends instructions to a method
type MethodBuilder struct {
	program *ProgramBuilder
	method  *Method
	labels  map[string]int
	// jumps are the branches whose label is resolved by finish
	jumps []jump
}

type jump struct {
	inst  *Inst
	label string
}

func (mb *MethodBuilder) add(inst *Inst) *MethodBuilder {
	inst.method = mb.method
	inst.Index = len(mb.method.Insts)
	mb.method.Insts = append(mb.method.Insts, inst)
	return mb
}

// Label names the next instruction
func (mb *MethodBuilder) Label(name string) *MethodBuilder {
	if _, ok := mb.labels[name]; ok {
		mb.program.errs = append(mb.program.errs, fmt.Errorf("%s: label %q defined twice", mb.method, name))
	}
	mb.labels[name] = len(mb.method.Insts)
	return mb
}

// Assign appends lhs = rhs
func (mb *MethodBuilder) Assign(lhs string, rhs Value) *MethodBuilder {
	return mb.add(&Inst{Op: OpAssign, Lhs: P(lhs), Rhs: rhs})
}

// Call appends result = class.name(args...). result may be empty.
func (mb *MethodBuilder) Call(result, class, name string, args ...Value) *MethodBuilder {
	return mb.add(&Inst{Op: OpCall, Lhs: P(result), Callee: MethodRef{Class: class, Name: name}, Args: args})
}

// Invoke appends result = receiver.name(args...) dispatched on the subclasses of class. result may be empty.
func (mb *MethodBuilder) Invoke(result, receiver, class, name string, args ...Value) *MethodBuilder {
	return mb.add(&Inst{
		Op:       OpCall,
		Lhs:      P(result),
		Receiver: P(receiver),
		Callee:   MethodRef{Class: class, Name: name, Virtual: true},
		Args:     args,
	})
}

// If appends a conditional jump to label
func (mb *MethodBuilder) If(cond Value, label string) *MethodBuilder {
	mb.add(&Inst{Op: OpIf, Rhs: cond})
	mb.jumps = append(mb.jumps, jump{inst: mb.method.Insts[len(mb.method.Insts)-1], label: label})
	return mb
}

// Goto appends a jump to label
func (mb *MethodBuilder) Goto(label string) *MethodBuilder {
	mb.add(&Inst{Op: OpGoto})
	mb.jumps = append(mb.jumps, jump{inst: mb.method.Insts[len(mb.method.Insts)-1], label: label})
	return mb
}

// Return appends return v
func (mb *MethodBuilder) Return(v Value) *MethodBuilder {
	return mb.add(&Inst{Op: OpReturn, Rhs: v})
}

// ReturnVoid appends return
func (mb *MethodBuilder) ReturnVoid() *MethodBuilder {
	return mb.add(&Inst{Op: OpReturn})
}

// Nop appends an instruction that does nothing
func (mb *MethodBuilder) Nop() *MethodBuilder {
	return mb.add(&Inst{Op: OpNop})
}

func (mb *MethodBuilder) finish() []error {
	var errs []error
	insts := mb.method.Insts
	if len(insts) == 0 {
		return []error{fmt.Errorf("%s: empty body", mb.method)}
	}
	if last := insts[len(insts)-1].Op; last != OpReturn && last != OpGoto {
		errs = append(errs, fmt.Errorf("%s: body must end with return or goto", mb.method))
	}
	for _, j := range mb.jumps {
		target, ok := mb.labels[j.label]
		if !ok || target >= len(insts) {
			errs = append(errs, fmt.Errorf("%s: undefined label %q", j.inst, j.label))
			continue
		}
		j.inst.Target = target
	}
	return errs
}
