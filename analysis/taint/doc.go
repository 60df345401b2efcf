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
Package taint implements a taint analysis on top of the ifds engine. The taint tracking problems of the
configuration define sources, sinks and sanitizers: the value returned by a call to a source is tainted, a
sanitizer clears the taint of its arguments, and a tainted value passed to a sink is a vulnerability reported under
the name of the problem.

The forward analysis tracks tainted access paths of the jir representation. When the analysis is bidirectional, a
backward analysis looks for the statements where tainted heap locations are copied or escape to a callee, and hands
them back to the forward analysis there. The forward analysis derives the aliases, which keep their activation
statement: they can only reach a sink once the forward analysis has reached that statement.
*/
package taint
