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
	"bytes"
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeMethods is the program
//
//	p.A.main:0  a = ...
//	p.A.main:1  p.A.foo(a)
//	p.A.main:2  q.B.bar(a)
//	p.A.main:3  return
//	p.A.foo:0   sink(a)
//	p.A.foo:1   return
//	q.B.bar:0   p.A.foo(a)
//	q.B.bar:1   sink(a)
//	q.B.bar:2   return
func threeMethods() (*tGraph, *tAnalysis) {
	g := newTestGraph().
		method("p.A.main", 4).call("p.A.main", 1, "p.A.foo").call("p.A.main", 2, "q.B.bar").
		method("p.A.foo", 2).
		method("q.B.bar", 3).call("q.B.bar", 0, "p.A.foo")
	a := newTestAnalysis(g)
	a.gen[st("p.A.main", 0)] = []Fact{tFact("a")}
	a.sinks[st("p.A.foo", 0)] = true
	a.sinks[st("q.B.bar", 1)] = true
	return g, a
}

func summaryStrings(res Result) []string {
	var s []string
	for m, summary := range res.Summaries {
		for entry, exits := range summary.FactsAtExits {
			for _, exit := range exits {
				s = append(s, fmt.Sprintf("%s: %s -> %s", m, entry, exit))
			}
		}
	}
	sort.Strings(s)
	return s
}

func findingSinks(res Result) []Vertex {
	var sinks []Vertex
	for _, f := range res.Findings {
		sinks = append(sinks, f.Sink)
	}
	return sinks
}

func TestRunAnalysisResolversAgree(t *testing.T) {
	resolvers := map[string]UnitResolver{
		"method":    MethodUnitResolver,
		"class":     ClassUnitResolver,
		"package":   PackageUnitResolver,
		"singleton": SingletonUnitResolver,
	}
	expectedSinks := []Vertex{vx(st("p.A.foo", 0), tFact("a")), vx(st("q.B.bar", 1), tFact("a"))}
	var reference []string
	for _, name := range []string{"singleton", "method", "class", "package"} {
		t.Run(name, func(t *testing.T) {
			g, a := threeMethods()
			res, err := RunAnalysis(context.Background(), quietConfig(), g, resolvers[name], &tFactory{analysis: a},
				[]Method{tMethod("p.A.main")})
			require.NoError(t, err)
			assert.False(t, res.TimedOut)
			assert.Empty(t, res.Errors)
			assert.Equal(t, expectedSinks, findingSinks(res))
			for _, f := range res.Findings {
				assertValidTrace(t, f.Trace, res.PathEdges())
				assert.Contains(t, f.Trace.Sources(), vx(st("p.A.main", 0), ZeroFact), "trace of %s", f.Sink)
				assert.Empty(t, f.Trace.Unresolved())
				assert.NotEmpty(t, f.Traces)
			}
			summaries := summaryStrings(res)
			if reference == nil {
				reference = summaries
			} else {
				assert.Equal(t, reference, summaries, "summaries differ from the singleton analysis")
			}
			assert.Equal(t, 3, res.Stats.Methods)
			assert.Equal(t, res.Stats.RunnersSpawned, res.Stats.TornDown)
			assert.Equal(t, len(res.Units), res.Stats.RunnersSpawned)
		})
	}
}

func TestRunAnalysisMethodUnits(t *testing.T) {
	g, a := threeMethods()
	res, err := RunAnalysis(context.Background(), quietConfig(), g, MethodUnitResolver, &tFactory{analysis: a},
		[]Method{tMethod("p.A.main")})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Units)
	assert.Equal(t, 3, res.Stats.RunnersSpawned)
	assert.Equal(t, 0, res.Stats.MutuallyDependentUnits)

	main := res.Summaries[tMethod("p.A.main")]
	require.NotNil(t, main)
	callees := main.CrossUnitCallees[vx(st("p.A.main", 1), tFact("a"))]
	assert.Equal(t, []Vertex{vx(st("p.A.foo", 0), tFact("a"))}, callees)
	foo := res.Summaries[tMethod("p.A.foo")]
	require.NotNil(t, foo)
	assert.Equal(t, []Vulnerability{{Rule: "test", Sink: vx(st("p.A.foo", 0), tFact("a"))}}, foo.Findings)
	assert.Len(t, res.FindingsOf("test"), 2)
	assert.Empty(t, res.FindingsOf("other"))
}

func TestRunAnalysisUnitFailure(t *testing.T) {
	g, a := threeMethods()
	failing := newTestAnalysis(g)
	failing.panicAt = &tStmt{m: "q.B.bar", i: 1}
	barUnit := MethodUnitResolver.Resolve(tMethod("q.B.bar"))
	factory := &tFactory{analysis: a, perUnit: map[UnitID]*tAnalysis{barUnit: failing}}

	res, err := RunAnalysis(context.Background(), quietConfig(), g, MethodUnitResolver, factory,
		[]Method{tMethod("p.A.main")})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), string(barUnit))
	assert.Equal(t, 1, res.Stats.FailedUnits)
	assert.NotContains(t, res.Units, barUnit)
	assert.Equal(t, []Vertex{vx(st("p.A.foo", 0), tFact("a"))}, findingSinks(res))
}

func TestRunAnalysisRoutingErrorAborts(t *testing.T) {
	g, a := threeMethods()
	bad := edge(vx(st("p.A.main", 0), ZeroFact), vx(st("p.A.foo", 0), ZeroFact))
	a.extra[tMethod("p.A.main")] = []Event{EdgeForOtherUnit{Edge: bad}}
	_, err := RunAnalysis(context.Background(), quietConfig(), g, MethodUnitResolver, &tFactory{analysis: a},
		[]Method{tMethod("p.A.main")})
	require.Error(t, err)
	var re *RoutingError
	assert.ErrorAs(t, err, &re)
}

// recursiveChain returns n methods m0 ... m(n-1) where each method calls itself and the next one
func recursiveChain(n int) (*tGraph, *tAnalysis) {
	g := newTestGraph()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("p.C%d.m", i)
		g.method(name, 4).call(name, 1, name)
		if i+1 < n {
			g.call(name, 2, fmt.Sprintf("p.C%d.m", i+1))
		}
	}
	a := newTestAnalysis(g)
	for i := 0; i < n; i++ {
		a.gen[st(fmt.Sprintf("p.C%d.m", i), 0)] = []Fact{tFact(fmt.Sprintf("f%d", i))}
		a.sinks[st(fmt.Sprintf("p.C%d.m", i), 3)] = true
	}
	return g, a
}

func TestRunAnalysisTimeout(t *testing.T) {
	g, a := recursiveChain(300)
	cfg := quietConfig()
	cfg.Timeout = time.Nanosecond
	res, err := RunAnalysis(context.Background(), cfg, g, MethodUnitResolver, &tFactory{analysis: a},
		[]Method{tMethod("p.C0.m")})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.NotNil(t, res.Findings)
	assert.Equal(t, 300, res.Stats.Methods)
}

func TestRunAnalysisCancelled(t *testing.T) {
	g, a := recursiveChain(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := RunAnalysis(ctx, quietConfig(), g, MethodUnitResolver, &tFactory{analysis: a},
		[]Method{tMethod("p.C0.m")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.TimedOut)
	assert.NotNil(t, res.Findings)
}

func TestRunAnalysisRecursiveChain(t *testing.T) {
	g, a := recursiveChain(20)
	res, err := RunAnalysis(context.Background(), quietConfig(), g, nil, &tFactory{analysis: a},
		[]Method{tMethod("p.C0.m")})
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 20, res.Stats.Units, "the default granularity is one unit per method")
	// the facts flow down into the callees and back up through the summaries: every fact reaches every sink
	assert.Len(t, res.Findings, 20*20)
}

func TestRunAnalysisNoStartMethod(t *testing.T) {
	g, a := threeMethods()
	res, err := RunAnalysis(context.Background(), quietConfig(), g, nil, &tFactory{analysis: a}, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Findings)
	assert.Empty(t, res.Findings)
	assert.False(t, res.TimedOut)
}

func TestNewManagerInvalidGranularity(t *testing.T) {
	cfg := quietConfig()
	cfg.UnitGranularity = "module"
	_, err := NewManager(cfg, quietLogger(), newTestGraph(), nil, &tFactory{})
	assert.Error(t, err)
}

func TestQueueEmptinessIsTraced(t *testing.T) {
	cfg := quietConfig()
	cfg.LogLevel = int(config.TraceLevel)
	logger := config.NewLogGroup(cfg)
	var buf bytes.Buffer
	logger.SetAllOutput(&buf)
	logger.SetAllFlags(0)
	m, err := NewManager(cfg, logger, newTestGraph(), SingletonUnitResolver, &tFactory{})
	require.NoError(t, err)

	m.queueEmptinessChanged(&unitRunner{unit: "a"}, false)
	m.queueEmptinessChanged(&unitRunner{unit: "a"}, true)
	assert.Contains(t, buf.String(), "{Unit:a IsEmpty:false}")
	assert.Contains(t, buf.String(), "{Unit:a IsEmpty:true}")

	buf.Reset()
	m.logger = quietLogger()
	m.queueEmptinessChanged(&unitRunner{unit: "a"}, true)
	assert.Empty(t, buf.String())
}

func TestFactsAfterTheRunAreNotDropped(t *testing.T) {
	g, a := threeMethods()
	m, err := NewManager(quietConfig(), quietLogger(), g, MethodUnitResolver, &tFactory{analysis: a})
	require.NoError(t, err)
	res, err := m.Run(context.Background(), []Method{tMethod("p.A.main")})
	require.NoError(t, err)
	assert.Zero(t, res.Stats.DroppedFacts)

	late := []SummaryFact{
		SummaryEdgeFact{Edge: loop(vx(st("p.A.foo", 0), ZeroFact))},
		VulnerabilityFact{Vulnerability: Vulnerability{Rule: "late", Sink: vx(st("p.A.foo", 0), tFact("a"))}},
	}
	for _, r := range m.runners {
		for _, f := range late {
			r.Deliver(f)
		}
	}
	assert.Zero(t, m.stats.DroppedFacts)
}

func TestIdleComponent(t *testing.T) {
	m, err := NewManager(quietConfig(), quietLogger(), newTestGraph(), SingletonUnitResolver, &tFactory{})
	require.NoError(t, err)
	units := map[UnitID]*unitRunner{}
	for _, u := range []UnitID{"a", "b", "c", "d"} {
		units[u] = &unitRunner{unit: u}
		m.runners[u] = units[u]
	}
	m.deps.AddEdge("a", "b")
	m.deps.AddEdge("c", "b")
	m.deps.AddNode("d")

	component, ok := m.idleComponentLocked("a")
	assert.True(t, ok)
	assert.ElementsMatch(t, []UnitID{"a", "b", "c"}, component)

	units["d"].pending = 1
	_, ok = m.idleComponentLocked("a")
	assert.True(t, ok, "d is not connected to a")

	units["c"].pending = 1
	_, ok = m.idleComponentLocked("a")
	assert.False(t, ok)

	units["c"].pending = 0
	units["c"].state = runnerTornDown
	m.cfg.TeardownDepth = 1
	_, ok = m.idleComponentLocked("a")
	assert.False(t, ok, "c is beyond the teardown depth")
	m.cfg.TeardownDepth = 2
	_, ok = m.idleComponentLocked("a")
	assert.True(t, ok)
}

func TestStatsCountDependencyCycles(t *testing.T) {
	g := newTestGraph().
		method("p.A.a", 2).call("p.A.a", 0, "p.B.b").
		method("p.B.b", 2).call("p.B.b", 0, "p.A.a", "p.C.c").
		method("p.C.c", 2).call("p.C.c", 0, "p.A.a")
	a := newTestAnalysis(g)
	res, err := RunAnalysis(context.Background(), quietConfig(), g, ClassUnitResolver, &tFactory{analysis: a},
		[]Method{tMethod("p.A.a")})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.MutuallyDependentUnits)
	// a -> b -> a and a -> b -> c -> a
	assert.Equal(t, 2, res.Stats.DependencyCycles)
}
