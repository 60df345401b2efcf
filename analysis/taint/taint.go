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
	"fmt"

	"github.com/UnitTestBot/jacodb-sub000/analysis/config"
	"github.com/UnitTestBot/jacodb-sub000/analysis/ifds"
	"github.com/UnitTestBot/jacodb-sub000/analysis/jir"
)

// Factory creates the taint analyzers of the units. It runs bidirectionally when the Bidirectional option is set.
type Factory struct {
	rules rules

	// MaxPathDepth bounds the number of fields of the tainted access paths
	MaxPathDepth int
}

var _ ifds.BackwardAnalyzerFactory = (*Factory)(nil)

// NewFactory returns a factory of analyzers tracking the taint tracking problems specs
func NewFactory(specs []config.TaintSpec) *Factory {
	return &Factory{rules: newRules(specs), MaxPathDepth: jir.MaxPathDepth}
}

func (f *Factory) NewAnalyzer(_ ifds.UnitID, graph ifds.Supergraph) ifds.Analyzer {
	return &forwardAnalyzer{flow: &forwardFlow{graph: graph, rules: f.rules, maxDepth: f.MaxPathDepth}}
}

func (f *Factory) NewBackwardAnalyzer(ifds.UnitID, ifds.Supergraph) ifds.Analyzer {
	return &backwardAnalyzer{flow: &backwardFlow{maxDepth: f.MaxPathDepth}}
}

// Analyze runs the taint tracking problems of cfg on the program, starting from the methods entrypoints.
// The unit granularity option of cfg determines the unit resolver.
func Analyze(ctx context.Context, cfg *config.Config, program *jir.Program,
	entrypoints []*jir.Method) (ifds.Result, error) {
	if len(cfg.TaintTrackingProblems) == 0 {
		return ifds.Result{}, fmt.Errorf("no taint tracking problem in the configuration")
	}
	starts := make([]ifds.Method, len(entrypoints))
	for i, m := range entrypoints {
		starts[i] = m
	}
	return ifds.RunAnalysis(ctx, cfg, jir.NewGraph(program), nil, NewFactory(cfg.TaintTrackingProblems), starts)
}
