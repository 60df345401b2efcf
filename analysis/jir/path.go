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

package jir

import (
	"strings"
)

// Path is an access path: a local variable followed by a possibly empty sequence of fields, e.g. x.f.g
// The zero Path denotes no location.
type Path struct {
	Base string
	// Fields are the dot separated field names
	Fields string
}

// P parses a dot separated access path
func P(s string) Path {
	base, fields, _ := strings.Cut(s, ".")
	return Path{Base: base, Fields: fields}
}

// Local returns the access path of a local variable
func Local(name string) Path {
	return Path{Base: name}
}

func (p Path) String() string {
	if p.Fields == "" {
		return p.Base
	}
	return p.Base + "." + p.Fields
}

// IsZero returns true for the path of no location
func (p Path) IsZero() bool {
	return p.Base == ""
}

// IsOnHeap returns true if the path goes through at least one field
func (p Path) IsOnHeap() bool {
	return p.Fields != ""
}

// Depth returns the number of fields of the path
func (p Path) Depth() int {
	if p.Fields == "" {
		return 0
	}
	return strings.Count(p.Fields, ".") + 1
}

// Field returns the path p.f
func (p Path) Field(f string) Path {
	if p.Fields == "" {
		return Path{Base: p.Base, Fields: f}
	}
	return Path{Base: p.Base, Fields: p.Fields + "." + f}
}

// HasPrefix returns true if q is a prefix of p, field-wise: x.f is a prefix of x.f.g but not of x.fg
func (p Path) HasPrefix(q Path) bool {
	if p.Base != q.Base || q.IsZero() {
		return false
	}
	return q.Fields == "" || p.Fields == q.Fields || strings.HasPrefix(p.Fields, q.Fields+".")
}

// HasProperPrefix returns true if q is a prefix of p different from p
func (p Path) HasProperPrefix(q Path) bool {
	return p != q && p.HasPrefix(q)
}

// ReplacePrefix replaces the prefix old of p by new. p must have old as prefix.
func (p Path) ReplacePrefix(old, new Path) Path {
	suffix := strings.TrimPrefix(strings.TrimPrefix(p.Fields, old.Fields), ".")
	switch {
	case suffix == "":
		return new
	case new.Fields == "":
		return Path{Base: new.Base, Fields: suffix}
	default:
		return Path{Base: new.Base, Fields: new.Fields + "." + suffix}
	}
}

// Truncate returns p with at most depth fields
func (p Path) Truncate(depth int) Path {
	if p.Depth() <= depth {
		return p
	}
	fields := strings.Split(p.Fields, ".")
	return Path{Base: p.Base, Fields: strings.Join(fields[:depth], ".")}
}

// ValueKind is the kind of a value
type ValueKind int

const (
	// NoValue is the kind of the zero Value, e.g. the value returned by a void method
	NoValue ValueKind = iota
	// PathValue is the value stored at an access path
	PathValue
	// ConstValue is a literal constant
	ConstValue
	// NullValue is the null reference
	NullValue
	// NewValue is a newly allocated object
	NewValue
)

// Value is an operand of an instruction
type Value struct {
	Kind ValueKind
	Path Path
	// Text is the literal of a constant or the class of an allocation
	Text string
}

// V returns the value at the access path s
func V(s string) Value { return Value{Kind: PathValue, Path: P(s)} }

// Const returns a constant value
func Const(text string) Value { return Value{Kind: ConstValue, Text: text} }

// Null returns the null value
func Null() Value { return Value{Kind: NullValue} }

// New returns a new object of class
func New(class string) Value { return Value{Kind: NewValue, Text: class} }

// IsPath returns true if the value is read from an access path
func (v Value) IsPath() bool { return v.Kind == PathValue }

func (v Value) String() string {
	switch v.Kind {
	case PathValue:
		return v.Path.String()
	case ConstValue:
		return v.Text
	case NullValue:
		return "null"
	case NewValue:
		return "new " + v.Text
	default:
		return ""
	}
}
