// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package interpolate resolves ${NAME} and ${NAME:default} references in
// configuration values.
package interpolate

import (
	"fmt"
	"strings"
)

// VariableResolver looks up the value of a variable. The boolean reports
// whether the variable is set.
type VariableResolver func(name string) (value string, ok bool)

// String is a parsed string whose variable references are resolved when it
// is rendered. Obtain one from Parse.
type String []segment

// segment is either literal text or a reference to a variable.
type segment struct {
	text string // literal text, or the variable name if ref is set
	ref  bool

	def    string
	hasDef bool
}

func literal(s string) segment { return segment{text: s} }

func ref(name string) segment { return segment{text: name, ref: true} }

func refOr(name, def string) segment {
	return segment{text: name, ref: true, def: def, hasDef: true}
}

// Render resolves every variable and returns the resulting string. A
// variable that is unset and has no default is an error.
func (s String) Render(resolve VariableResolver) (string, error) {
	var b strings.Builder
	for _, seg := range s {
		if !seg.ref {
			b.WriteString(seg.text)
			continue
		}
		if v, ok := resolve(seg.text); ok {
			b.WriteString(v)
			continue
		}
		if !seg.hasDef {
			return "", fmt.Errorf("variable %q does not have a value or a default", seg.text)
		}
		b.WriteString(seg.def)
	}
	return b.String(), nil
}

// Variables returns the names of the referenced variables in order of first
// appearance.
func (s String) Variables() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, seg := range s {
		if !seg.ref {
			continue
		}
		if _, ok := seen[seg.text]; ok {
			continue
		}
		seen[seg.text] = struct{}{}
		names = append(names, seg.text)
	}
	return names
}
