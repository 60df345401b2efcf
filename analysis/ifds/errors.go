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

import "fmt"

// RoutingError is raised (with panic) when a solver is asked to propagate an edge that does not belong to its unit,
// or whose endpoints are in different methods. It indicates a bug in the unit resolver or in the edge routing, and
// aborts the analysis.
type RoutingError struct {
	Unit UnitID
	Edge Edge
	// Reason explains which precondition failed
	Reason string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("unit %s cannot propagate %s: %s", e.Unit, e.Edge, e.Reason)
}
