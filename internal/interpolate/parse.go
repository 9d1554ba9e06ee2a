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

package interpolate

import (
	"fmt"
	"strings"
)

// Parse parses a string for interpolation.
//
// Variables may be specified anywhere in the string in the format ${foo} or
// ${foo:default} where 'default' will be used if the variable foo was unset.
// A literal "$" followed by "{" is written as `\${`.
func Parse(s string) (String, error) {
	var (
		out String
		lit strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, literal(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\$`):
			lit.WriteByte('$')
			i += 2
		case strings.HasPrefix(s[i:], "${"):
			v, n, err := parseVariable(s[i+2:])
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q at offset %d: %v", s, i, err)
			}
			flush()
			out = append(out, v)
			i += 2 + n
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	flush()
	return out, nil
}

// parseVariable parses the remainder of a variable after "${" and returns
// the number of bytes it consumed, including the closing brace.
func parseVariable(s string) (segment, int, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return segment{}, 0, fmt.Errorf("unterminated variable")
	}

	body := s[:end]
	v := ref(body)
	if colon := strings.IndexByte(body, ':'); colon >= 0 {
		v = refOr(body[:colon], body[colon+1:])
	}
	if err := validateName(v.text); err != nil {
		return segment{}, 0, err
	}
	return v, end + 1, nil
}

// validateName accepts names made of letters, digits and underscores, in
// groups joined by single dashes, that do not start with a digit.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("variable name is empty")
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return fmt.Errorf("variable name %q starts with a digit", name)
	}
	for _, group := range strings.Split(name, "-") {
		if group == "" {
			return fmt.Errorf("variable name %q has an empty segment", name)
		}
		for _, c := range group {
			if !isNameChar(c) {
				return fmt.Errorf("variable name %q contains %q", name, c)
			}
		}
	}
	return nil
}

func isNameChar(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
