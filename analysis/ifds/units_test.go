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
	"testing"
)

type plainMethod string

func (m plainMethod) String() string { return string(m) }

func TestNewUnitResolver(t *testing.T) {
	m := tMethod("com.example.Main.run")
	tests := []struct {
		strategy string
		want     UnitID
	}{
		{"", "method:com.example.Main.run"},
		{"method", "method:com.example.Main.run"},
		{"class", "class:com.example.Main"},
		{"package", "package:com.example"},
		{"singleton", SingletonUnit},
	}
	for _, test := range tests {
		r, err := NewUnitResolver(test.strategy)
		if err != nil {
			t.Fatalf("strategy %q: %v", test.strategy, err)
		}
		if got := r.Resolve(m); got != test.want {
			t.Errorf("strategy %q: got unit %s, want %s", test.strategy, got, test.want)
		}
	}
	if _, err := NewUnitResolver("file"); err == nil {
		t.Errorf("expected an error for an unknown strategy")
	}
}

func TestClassResolversNeedClassMembers(t *testing.T) {
	if u := ClassUnitResolver.Resolve(plainMethod("run")); u != UnknownUnit {
		t.Errorf("expected the unknown unit, got %s", u)
	}
	if u := PackageUnitResolver.Resolve(plainMethod("run")); u != UnknownUnit {
		t.Errorf("expected the unknown unit, got %s", u)
	}
	if u := MethodUnitResolver.Resolve(plainMethod("run")); u != "method:run" {
		t.Errorf("unexpected unit %s", u)
	}
}

func TestPackageOf(t *testing.T) {
	for class, pkg := range map[string]string{
		"com.example.Main": "com.example",
		"Main":             "",
		"a.B":              "a",
	} {
		if got := PackageOf(class); got != pkg {
			t.Errorf("PackageOf(%q) = %q, want %q", class, got, pkg)
		}
	}
}
