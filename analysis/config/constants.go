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

package config

import "time"

const (
	// UnitGranularityMethod puts every method in its own unit
	UnitGranularityMethod = "method"
	// UnitGranularityClass groups the methods of a class in one unit
	UnitGranularityClass = "class"
	// UnitGranularityPackage groups the methods of all the classes of a package in one unit
	UnitGranularityPackage = "package"
	// UnitGranularitySingleton analyzes the whole program in a single unit
	UnitGranularitySingleton = "singleton"

	// DefaultUnitGranularity is the granularity used when the config does not specify one
	DefaultUnitGranularity = UnitGranularityMethod

	// DefaultTeardownDepth bounds the search for busy units in the unit dependency graph before a unit is torn down
	DefaultTeardownDepth = 100

	// DefaultMaxTraces is the default maximum number of traces enumerated per finding. <= 0 means no limit.
	DefaultMaxTraces = 64

	// DefaultTimeout is the default bound on the wall-clock time of an analysis. 0 means no timeout.
	DefaultTimeout time.Duration = 0
)
