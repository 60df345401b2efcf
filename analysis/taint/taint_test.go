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
	"context"
	"testing"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
	"github.com/UnitTestBot/jacodb-sub000/analysis/jir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T) *config.Config {
	cfg, err := config.Load("testdata/config.yaml")
	require.NoError(t, err)
	require.Len(t, cfg.TaintTrackingProblems, 1)
	return cfg
}

// callChain is
//
//	p.Main.main     a = p.Source.read(); p.Main.foo(a); return
//	p.Main.foo(x)   p.Util.clean(x); q.Bar.bar(x); return
//	q.Bar.bar(y)    q.Sink.write(y); return
func callChain(t *testing.T) *jir.Program {
	b := jir.NewProgramBuilder().
		Native("p.Source", "read").
		Native("p.Util", "clean", "s").
		Native("q.Sink", "write", "s")
	b.Method("p.Main", "main").
		Call("a", "p.Source", "read").
		Call("", "p.Main", "foo", jir.V("a")).
		ReturnVoid()
	b.Method("p.Main", "foo", "x").
		Call("", "p.Util", "clean", jir.V("x")).
		Call("", "q.Bar", "bar", jir.V("x")).
		ReturnVoid()
	b.Method("q.Bar", "bar", "y").
		Call("", "q.Sink", "write", jir.V("y")).
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

// methodsOf returns the methods visited by a trace, in order
func methodsOf(trace []ifds.Vertex) []string {
	var methods []string
	for _, v := range trace {
		m := v.Method().String()
		if len(methods) == 0 || methods[len(methods)-1] != m {
			methods = append(methods, m)
		}
	}
	return methods
}

func TestSanitizerStopsTaint(t *testing.T) {
	cfg := loadConfig(t)
	p := callChain(t)
	res, err := Analyze(context.Background(), cfg, p, []*jir.Method{p.Method("p.Main", "main")})
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.False(t, res.TimedOut)
}

func TestTaintReachesSinkThroughCalls(t *testing.T) {
	for _, granularity := range []string{
		config.UnitGranularityMethod,
		config.UnitGranularityClass,
		config.UnitGranularityPackage,
		config.UnitGranularitySingleton,
	} {
		t.Run(granularity, func(t *testing.T) {
			cfg := loadConfig(t)
			cfg.UnitGranularity = granularity
			cfg.TaintTrackingProblems[0].Sanitizers = nil
			p := callChain(t)
			res, err := Analyze(context.Background(), cfg, p, []*jir.Method{p.Method("p.Main", "main")})
			require.NoError(t, err)
			require.Len(t, res.Findings, 1)

			f := res.Findings[0]
			assert.Equal(t, "secret", f.Rule)
			assert.Equal(t, "q.Bar.bar:0", f.Sink.Stmt.String())
			assert.Equal(t, NewTainted(jir.P("y"), "secret"), f.Sink.Fact)
			require.NotEmpty(t, f.Traces)
			for _, trace := range f.Traces {
				assert.Equal(t, []string{"p.Main.main", "p.Main.foo", "q.Bar.bar"}, methodsOf(trace))
				assert.Equal(t, f.Sink, trace[len(trace)-1])
			}
			assert.True(t, f.Trace.IsAcyclic())
		})
	}
}

// aliasProgram is
//
//	p.Main.alias    b = new p.Obj; a = b; a.f = p.Source.read(); q.Sink.write(b.f); return
func aliasProgram(t *testing.T) *jir.Program {
	b := jir.NewProgramBuilder().
		Native("p.Source", "read").
		Native("q.Sink", "write", "s")
	b.Method("p.Main", "alias").
		Assign("b", jir.New("p.Obj")).
		Assign("a", jir.V("b")).
		Call("a.f", "p.Source", "read").
		Call("", "q.Sink", "write", jir.V("b.f")).
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func TestAliasFoundOnlyWhenBidirectional(t *testing.T) {
	p := aliasProgram(t)
	start := []*jir.Method{p.Method("p.Main", "alias")}

	cfg := loadConfig(t)
	res, err := Analyze(context.Background(), cfg, p, start)
	require.NoError(t, err)
	assert.Empty(t, res.Findings)

	cfg.Bidirectional = true
	res, err = Analyze(context.Background(), cfg, p, start)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "p.Main.alias:3", res.Findings[0].Sink.Stmt.String())
	assert.Equal(t, jir.P("b.f"), res.Findings[0].Sink.Fact.(Tainted).Path)
	assert.Positive(t, res.Stats.Bidi.Handovers)
	assert.Positive(t, res.Stats.Bidi.Handbacks)
	assert.NotEmpty(t, res.Findings[0].Traces)
}

// TestAliasOfWrittenFieldFound taints the field through the variable that was copied, and reads it through the copy
//
//	p.Main.alias    b = new p.Obj; a = b; b.f = p.Source.read(); q.Sink.write(a.f); return
func TestAliasOfWrittenFieldFound(t *testing.T) {
	b := jir.NewProgramBuilder().
		Native("p.Source", "read").
		Native("q.Sink", "write", "s")
	b.Method("p.Main", "alias").
		Assign("b", jir.New("p.Obj")).
		Assign("a", jir.V("b")).
		Call("b.f", "p.Source", "read").
		Call("", "q.Sink", "write", jir.V("a.f")).
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)
	start := []*jir.Method{p.Method("p.Main", "alias")}

	cfg := loadConfig(t)
	res, err := Analyze(context.Background(), cfg, p, start)
	require.NoError(t, err)
	assert.Empty(t, res.Findings)

	cfg.Bidirectional = true
	res, err = Analyze(context.Background(), cfg, p, start)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "p.Main.alias:3", res.Findings[0].Sink.Stmt.String())
	assert.Equal(t, jir.P("a.f"), res.Findings[0].Sink.Fact.(Tainted).Path)
	assert.Positive(t, res.Stats.Bidi.Handbacks)
}

// TestAliasFoundPastCallReceivingBase reads the alias of a field after its base is passed to a callee
//
//	p.Main.main    b = new p.Obj; a = b; q.Log.log(b); b.f = p.Source.read(); q.Sink.write(a.f); return
func TestAliasFoundPastCallReceivingBase(t *testing.T) {
	b := jir.NewProgramBuilder().
		Native("p.Source", "read").
		Native("q.Sink", "write", "s").
		Native("q.Log", "log", "o")
	b.Method("p.Main", "main").
		Assign("b", jir.New("p.Obj")).
		Assign("a", jir.V("b")).
		Call("", "q.Log", "log", jir.V("b")).
		Call("b.f", "p.Source", "read").
		Call("", "q.Sink", "write", jir.V("a.f")).
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)

	cfg := loadConfig(t)
	cfg.Bidirectional = true
	res, err := Analyze(context.Background(), cfg, p, []*jir.Method{p.Method("p.Main", "main")})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "p.Main.main:4", res.Findings[0].Sink.Stmt.String())
}

// TestHeapTaintReturnedByCallee checks that a field tainted by a callee is visible to the caller
func TestHeapTaintReturnedByCallee(t *testing.T) {
	b := jir.NewProgramBuilder().
		Native("p.Source", "read").
		Native("q.Sink", "write", "s")
	b.Method("p.Main", "main").
		Assign("o", jir.New("p.Obj")).
		Call("", "p.Main", "fill", jir.V("o")).
		Call("", "q.Sink", "write", jir.V("o.g")).
		Call("", "q.Sink", "write", jir.V("o.f")).
		ReturnVoid()
	b.Method("p.Main", "fill", "x").
		Call("x.f", "p.Source", "read").
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)

	cfg := loadConfig(t)
	res, err := Analyze(context.Background(), cfg, p, []*jir.Method{p.Method("p.Main", "main")})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "p.Main.main:3", res.Findings[0].Sink.Stmt.String())

	summary := res.Summaries[p.Method("p.Main", "fill")]
	require.NotNil(t, summary)
	var exits []ifds.Fact
	for _, vs := range summary.FactsAtExits {
		for _, v := range vs {
			exits = append(exits, v.Fact)
		}
	}
	assert.Contains(t, exits, ifds.Fact(NewTainted(jir.P("x.f"), "secret")))
}

func TestAnalyzeWithoutProblems(t *testing.T) {
	p := callChain(t)
	_, err := Analyze(context.Background(), config.NewDefault(), p, []*jir.Method{p.Method("p.Main", "main")})
	assert.Error(t, err)
}

func TestActivation(t *testing.T) {
	p := aliasProgram(t)
	insts := p.Method("p.Main", "alias").Insts
	fact := NewTainted(jir.P("b.f"), "secret")
	assert.True(t, fact.ActiveAt(insts[0]))
	assert.True(t, fact.OnHeap())

	armed := fact.WithActivation(insts[3]).(Tainted)
	assert.Equal(t, insts[3], armed.Activation())
	assert.False(t, armed.ActiveAt(insts[2]))
	assert.True(t, armed.ActiveAt(insts[3]))
	assert.Equal(t, armed, armed.at(insts[2]))
	assert.Equal(t, fact, armed.at(insts[3]))
	assert.Equal(t, "secret:b.f@p.Main.alias:3", armed.String())
}

func TestBackwardHandbackPoints(t *testing.T) {
	b := jir.NewProgramBuilder().
		Native("p.Source", "read").
		Native("q.Log", "log", "o")
	b.Method("p.Main", "main").
		Assign("b", jir.New("p.Obj")).
		Assign("a", jir.V("b")).
		Call("", "q.Log", "log", jir.V("b")).
		Call("c", "p.Source", "read").
		ReturnVoid()
	p, err := b.Build()
	require.NoError(t, err)
	insts := p.Method("p.Main", "main").Insts
	a := &backwardAnalyzer{flow: &backwardFlow{maxDepth: jir.MaxPathDepth}}
	exit := insts[4]

	handedBack := func(stmt *jir.Inst, path string) []ifds.Fact {
		f := NewTainted(jir.P(path), "secret").WithActivation(exit)
		var res []ifds.Fact
		edge := ifds.Edge{From: ifds.Vertex{Stmt: exit, Fact: f}, To: ifds.Vertex{Stmt: stmt, Fact: f}}
		for _, ev := range a.HandleNewEdge(edge) {
			e := ev.(ifds.EdgeForOtherRunner)
			assert.Equal(t, ifds.Statement(stmt), e.Edge.To.Stmt)
			res = append(res, e.Edge.To.Fact)
		}
		return res
	}
	armed := func(path string) ifds.Fact { return NewTainted(jir.P(path), "secret").WithActivation(exit) }

	// read by the assignment
	assert.Equal(t, []ifds.Fact{armed("b.f")}, handedBack(insts[1], "b.f"))
	// written by the assignment, handed back as it holds before it
	assert.Equal(t, []ifds.Fact{armed("b.f")}, handedBack(insts[1], "a.f"))
	assert.Empty(t, handedBack(insts[0], "b.f"))
	// receiver or argument of a call
	assert.Equal(t, []ifds.Fact{armed("b.f")}, handedBack(insts[2], "b.f"))
	assert.Empty(t, handedBack(insts[2], "a.f"))
	assert.Empty(t, handedBack(insts[3], "c.f"))

	active := NewTainted(jir.P("b.f"), "secret")
	assert.Empty(t, a.HandleNewEdge(ifds.Edge{From: ifds.Vertex{Stmt: exit, Fact: active},
		To: ifds.Vertex{Stmt: insts[1], Fact: active}}))
}
