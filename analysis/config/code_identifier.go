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

import (
	"fmt"
	"regexp"
)

// CodeIdentifier identifies a method of the analyzed program by its package, class and name.
// Empty fields match anything.
type CodeIdentifier struct {
	Package string `yaml:"package"`
	Class   string `yaml:"class"`
	Method  string `yaml:"method"`
	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	packageRegex *regexp.Regexp
	classRegex   *regexp.Regexp
	methodRegex  *regexp.Regexp
}

func (cid CodeIdentifier) String() string {
	return fmt.Sprintf("%s.%s.%s", cid.Package, cid.Class, cid.Method)
}

// compileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func compileRegexes(cid CodeIdentifier) CodeIdentifier {
	packageRegex, err := regexp.Compile(cid.Package)
	if err != nil {
		return cid
	}
	classRegex, err := regexp.Compile(cid.Class)
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(cid.Method)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{packageRegex, classRegex, methodRegex}
	return cid
}

// equalOnNonEmptyFields returns true if each of the receiver's fields are either equal to the corresponding
// argument's field (or matched by its regex), or the argument's field is empty
func (cid CodeIdentifier) equalOnNonEmptyFields(cidRef CodeIdentifier) bool {
	if r := cidRef.computedRegexs; r != nil {
		return (cidRef.Package == "" || r.packageRegex.MatchString(cid.Package)) &&
			(cidRef.Class == "" || r.classRegex.MatchString(cid.Class)) &&
			(cidRef.Method == "" || r.methodRegex.MatchString(cid.Method))
	}
	return (cidRef.Package == "" || cid.Package == cidRef.Package) &&
		(cidRef.Class == "" || cid.Class == cidRef.Class) &&
		(cidRef.Method == "" || cid.Method == cidRef.Method)
}

// MatchesAny returns true if cid is matched by some identifier in refs.
func (cid CodeIdentifier) MatchesAny(refs []CodeIdentifier) bool {
	for _, ref := range refs {
		if cid.equalOnNonEmptyFields(ref) {
			return true
		}
	}
	return false
}
