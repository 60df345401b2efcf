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
Package config provides a simple way to manage the configuration of the dataflow analyses.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault]() to obtain a configuration
with default options.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. The other fields are defined by the types of the fields of [Config] and nested struct types.
For example, a valid config file is as follows:

	options:
	  log-level: 4
	  timeout: 30s
	  unit-granularity: class
	  bidirectional: true

	taint-tracking-problems:
	  - name: sql-injection
	    sources:
	      - class: Request
	        method: getParameter
	    sinks:
	      - package: java.sql
	        method: execute.*
	    sanitizers:
	      - method: escape

# Identifying code elements

The config uses [CodeIdentifier] to identify methods of the analyzed program. Sources, sinks and sanitizers are
CodeIdentifiers which identify methods by package, class and name.
The string specifications are seen as regexes if they can be compiled to regexes, otherwise they are strings.
*/
package config
