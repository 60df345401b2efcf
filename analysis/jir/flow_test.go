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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boxProgram is
//
//	p.Box.put(v)   this.item = v; return v.next
//	p.Main.main    r = box.put(x.f); y = x; x = null; p.Lib.log(y); return
func boxProgram(t *testing.T) (*Program, []*Inst) {
	b := NewProgramBuilder().Native("p.Lib", "log", "msg")
	b.InstanceMethod("p.Box", "put", "v").
		Assign("this.item", V("v")).
		Return(V("v.next"))
	b.Method("p.Main", "main").
		Invoke("r", "box", "p.Box", "put", V("x.f")).
		Assign("y", V("x")).
		Assign("x", Null()).
		Call("", "p.Lib", "log", V("y")).
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)
	return p, p.Method("p.Main", "main").Insts
}

func TestToCallee(t *testing.T) {
	p, main := boxProgram(t)
	put := p.Method("p.Box", "put")
	assert.Equal(t, []Path{P("this.g")}, ToCallee(main[0], put, P("box.g")))
	assert.Equal(t, []Path{P("v"), P("v.h")}, append(ToCallee(main[0], put, P("x.f")),
		ToCallee(main[0], put, P("x.f.h"))...))
	assert.Empty(t, ToCallee(main[0], put, P("x.g")))
	assert.Empty(t, ToCallee(main[0], put, P("r")))
}

func TestToCaller(t *testing.T) {
	p, main := boxProgram(t)
	exit := p.Method("p.Box", "put").Insts[1]
	assert.Equal(t, []Path{P("r"), P("x.f.next")}, ToCaller(main[0], exit, P("v.next"), MaxPathDepth))
	assert.Equal(t, []Path{P("r.a"), P("x.f.next.a")}, ToCaller(main[0], exit, P("v.next.a"), MaxPathDepth))
	assert.Equal(t, []Path{P("box.item")}, ToCaller(main[0], exit, P("this.item"), MaxPathDepth))
	assert.Equal(t, []Path{P("x.f.g")}, ToCaller(main[0], exit, P("v.g"), MaxPathDepth))
	assert.Equal(t, []Path{P("x.f")}, ToCaller(main[0], exit, P("v.g"), 1))
	// locals and parameters themselves are not visible to the caller
	assert.Empty(t, ToCaller(main[0], exit, P("v"), MaxPathDepth))
	assert.Empty(t, ToCaller(main[0], exit, P("w.f"), MaxPathDepth))
}

func TestAssign(t *testing.T) {
	_, main := boxProgram(t)
	gen, keep := Assign(main[1], P("x.f"), MaxPathDepth)
	assert.Equal(t, []Path{P("y.f")}, gen)
	assert.True(t, keep)

	gen, keep = Assign(main[1], P("y.f"), MaxPathDepth)
	assert.Empty(t, gen)
	assert.False(t, keep)

	gen, keep = Assign(main[2], P("x.f"), MaxPathDepth)
	assert.Empty(t, gen)
	assert.False(t, keep)
}

func TestPassedTo(t *testing.T) {
	p, main := boxProgram(t)
	assert.True(t, PassedTo(main[0], P("box")))
	assert.True(t, PassedTo(main[0], P("x.f.g")))
	assert.False(t, PassedTo(main[0], P("x")))
	assert.True(t, PassedTo(main[3], P("y")))

	g := NewGraph(p)
	assert.True(t, HasBodyCallee(g, main[0]))
	assert.False(t, HasBodyCallee(g, main[3]))
}
