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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapResolver(m map[string]string) VariableResolver {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		give string
		want String
	}{
		{give: "", want: nil},
		{give: "500ms", want: String{literal("500ms")}},
		{
			give: "${QUOTA}/s",
			want: String{ref("QUOTA"), literal("/s")},
		},
		{
			give: "${QUOTA:100}",
			want: String{refOr("QUOTA", "100")},
		},
		{
			give: "${QUOTA:}",
			want: String{refOr("QUOTA", "")},
		},
		{
			give: "${WINDOW::1s}",
			want: String{refOr("WINDOW", ":1s")},
		},
		{
			give: "$ {QUOTA} and $QUOTA",
			want: String{literal("$ {QUOTA} and $QUOTA")},
		},
		{
			give: `cost \${QUOTA:1} in ${REGION}`,
			want: String{literal("cost ${QUOTA:1} in "), ref("REGION")},
		},
		{
			give: "${max-in-flight}${MAX_IN_FLIGHT_2}",
			want: String{ref("max-in-flight"), ref("MAX_IN_FLIGHT_2")},
		},
		{
			give: "${HOST:localhost}:${PORT:8080}",
			want: String{refOr("HOST", "localhost"), literal(":"), refOr("PORT", "8080")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			got, err := Parse(tt.give)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		give    string
		wantErr string
	}{
		{"${QUOTA", "unterminated variable"},
		{"${}", "variable name is empty"},
		{"${:1}", "variable name is empty"},
		{"${1QUOTA}", "starts with a digit"},
		{"${QUOTA-}", "empty segment"},
		{"${max--in-flight}", "empty segment"},
		{"${QUOTA.MAX}", `contains '.'`},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			_, err := Parse(tt.give)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), fmt.Sprintf("%q", tt.give))
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		desc    string
		give    string
		vars    map[string]string
		want    string
		wantErr string
	}{
		{desc: "literal only", give: "1s", want: "1s"},
		{desc: "set", give: "${WINDOW}", vars: map[string]string{"WINDOW": "2s"}, want: "2s"},
		{desc: "set wins over default", give: "${WINDOW:1s}", vars: map[string]string{"WINDOW": "2s"}, want: "2s"},
		{desc: "set to empty", give: "${WINDOW:1s}", vars: map[string]string{"WINDOW": ""}, want: ""},
		{desc: "default", give: "${WINDOW:1s}", want: "1s"},
		{desc: "pieces", give: "${N:5}${UNIT:ms}", vars: map[string]string{"UNIT": "s"}, want: "5s"},
		{desc: "unset", give: "${WINDOW}", wantErr: `variable "WINDOW" does not have a value or a default`},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			s, err := Parse(tt.give)
			require.NoError(t, err)

			got, err := s.Render(mapResolver(tt.vars))
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariables(t *testing.T) {
	s, err := Parse("${HOST}:${PORT:80}/${HOST}")
	require.NoError(t, err)
	assert.Equal(t, []string{"HOST", "PORT"}, s.Variables())

	s, err = Parse("no references")
	require.NoError(t, err)
	assert.Empty(t, s.Variables())
}

func ExampleString_Render() {
	s, err := Parse("${QUOTA:100} per ${WINDOW:1s}")
	if err != nil {
		panic(err)
	}

	out, err := s.Render(mapResolver(map[string]string{"WINDOW": "1m"}))
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output: 100 per 1m
}
