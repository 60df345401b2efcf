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

/*
Package ifds implements an interprocedural, finite, distributive, subset (IFDS) dataflow analysis engine based on
the tabulation algorithm of Reps, Horwitz and Sagiv.

The methods of the analyzed program are partitioned into units by a [UnitResolver]. Every unit is analyzed by its
own runner goroutine, which owns one [Solver] (or a forward and a backward solver when the analysis is
bidirectional). Calls to methods of the same unit are solved locally; calls to methods of other units are
answered by summaries published to the [SummaryStore] by the unit owning the callee. The [Manager] discovers the
units, spawns and tears down the runners, routes the edges between units and detects when the whole computation
has reached its fixed point.

Once the analysis is finished, every vulnerability reported by an [Analyzer] is returned as a [Finding] together
with a [TraceGraph]: the graph of facts that explains how the vulnerable fact was derived from its sources.

The analyzed program is only accessed through the [Supergraph] interface, and the analysis semantics are provided
by [Analyzer] implementations (see the taint and nullness packages).

The main entry point is [RunAnalysis].
*/
package ifds
