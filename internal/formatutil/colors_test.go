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

package formatutil

import "testing"

func TestColorNotTerminal(t *testing.T) {
	// go test does not run with a terminal on stderr
	if got := Red("a", 1); got != "a1" && got != "\033[1;31ma1\033[0m" {
		t.Errorf("unexpected colored string %q", got)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("x\ny\"z"); got != `x\ny\"z` {
		t.Errorf("Sanitize returned %q", got)
	}
}
