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
	"fmt"
	"strings"
)

// UnitID identifies a unit: a set of methods analyzed together by the same runner.
type UnitID string

const (
	// SingletonUnit is the only unit of the singleton strategy
	SingletonUnit UnitID = "singleton"
	// UnknownUnit is returned for methods a resolver cannot place
	UnknownUnit UnitID = "unknown"
)

func (u UnitID) String() string { return string(u) }

// UnitResolver maps methods to units. Resolve must be pure and stable: the same method always maps to the same
// unit during an analysis.
type UnitResolver interface {
	Resolve(m Method) UnitID
}

// UnitResolverFunc adapts a function to the UnitResolver interface
type UnitResolverFunc func(m Method) UnitID

// Resolve calls f(m)
func (f UnitResolverFunc) Resolve(m Method) UnitID { return f(m) }

// MethodUnitResolver puts every method in its own unit
var MethodUnitResolver UnitResolver = UnitResolverFunc(func(m Method) UnitID {
	return UnitID("method:" + m.String())
})

// ClassUnitResolver groups the methods by declaring class
var ClassUnitResolver UnitResolver = UnitResolverFunc(func(m Method) UnitID {
	if cm, ok := m.(ClassMember); ok {
		return UnitID("class:" + cm.ClassName())
	}
	return UnknownUnit
})

// PackageUnitResolver groups the methods by the package of their declaring class
var PackageUnitResolver UnitResolver = UnitResolverFunc(func(m Method) UnitID {
	if cm, ok := m.(ClassMember); ok {
		return UnitID("package:" + PackageOf(cm.ClassName()))
	}
	return UnknownUnit
})

// SingletonUnitResolver puts all methods in the same unit
var SingletonUnitResolver UnitResolver = UnitResolverFunc(func(Method) UnitID {
	return SingletonUnit
})

// NewUnitResolver returns the resolver of the given strategy: method, class, package or singleton.
func NewUnitResolver(strategy string) (UnitResolver, error) {
	switch strategy {
	case "method", "":
		return MethodUnitResolver, nil
	case "class":
		return ClassUnitResolver, nil
	case "package":
		return PackageUnitResolver, nil
	case "singleton":
		return SingletonUnitResolver, nil
	default:
		return nil, fmt.Errorf("unknown unit strategy %q", strategy)
	}
}

// PackageOf returns the package part of a fully qualified class name
func PackageOf(className string) string {
	if i := strings.LastIndex(className, "."); i >= 0 {
		return className[:i]
	}
	return ""
}
