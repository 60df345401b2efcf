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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/UnitTestBot/jacodb-sub000/internal/funcutil"
	"github.com/UnitTestBot/jacodb-sub000/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

func TestFindAllElementaryCycles(t *testing.T) {
	g := graphutil.NewIndexedGraph[string]()
	for _, e := range [][2]string{
		{"a", "b"}, {"b", "a"},
		{"b", "c"}, {"c", "b"},
		{"c", "d"},
		{"d", "d"},
		{"e", "a"},
	} {
		g.AddEdge(e[0], e[1])
	}
	stats := graph.Check(g)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)

	cycles := graphutil.FindAllElementaryCycles(g)
	results := make([]string, len(cycles))
	for i, cycle := range cycles {
		results[i] = strings.Join(funcutil.Map(cycle, g.Label), "")
	}
	sort.Strings(results)
	expected := []string{"aba", "bcb", "dd"}
	if !slices.Equal(results, expected) {
		t.Fatalf("expected cycles %v, got %v", expected, results)
	}
}

func TestFindAllElementaryCyclesAcyclic(t *testing.T) {
	g := graphutil.NewIndexedGraph[int]()
	for i := 0; i < 10; i++ {
		g.AddEdge(i, i+1)
		g.AddEdge(i, i+2)
	}
	if cycles := graphutil.FindAllElementaryCycles(g); len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %v", cycles)
	}
}

func TestFindAllElementaryCyclesComplete(t *testing.T) {
	// A complete graph on 3 nodes without self loops has 5 elementary cycles
	g := graphutil.NewIndexedGraph[int]()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j {
				g.AddEdge(i, j)
			}
		}
	}
	cycles := graphutil.FindAllElementaryCycles(g)
	if len(cycles) != 5 {
		t.Fatalf("expected 5 cycles, got %d: %v", len(cycles),
			funcutil.Map(cycles, func(c []int) string { return strings.Join(funcutil.Map(c, strconv.Itoa), "") }))
	}
}
