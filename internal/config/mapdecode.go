// Copyright (c) 2020 Uber Technologies, Inc.
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

package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/uber-go/mapdecode"
	"go.uber.org/svc/internal/interpolate"
)

const (
	_tagName           = "config"
	_interpolateOption = "interpolate"
)

// DecodeInto decodes src into dst using `config` struct tags. Keys of src
// that match no field are an error.
func DecodeInto(dst interface{}, src interface{}, opts ...mapdecode.Option) error {
	opts = append(opts, mapdecode.TagName(_tagName))
	return mapdecode.Decode(dst, src, opts...)
}

// InterpolateWith resolves ${NAME} and ${NAME:default} references in string
// values bound for fields tagged with the interpolate option, like
//
//	Window time.Duration `config:"window,interpolate"`
//
// Values that are not strings are left alone, so an interpolated int field
// still accepts a plain int.
func InterpolateWith(resolver interpolate.VariableResolver) mapdecode.Option {
	return mapdecode.FieldHook(func(dest reflect.StructField, srcData reflect.Value) (reflect.Value, error) {
		if !hasTagOption(dest, _interpolateOption) {
			return srcData, nil
		}

		// srcData is often an interface{} holding the string.
		v, ok := srcData.Interface().(string)
		if !ok {
			return srcData, nil
		}

		s, err := interpolate.Parse(v)
		if err != nil {
			return srcData, fmt.Errorf("failed to parse %q for interpolation: %v", v, err)
		}
		rendered, err := s.Render(resolver)
		if err != nil {
			return srcData, fmt.Errorf("failed to render %q: %v", v, err)
		}
		return reflect.ValueOf(rendered), nil
	})
}

func hasTagOption(f reflect.StructField, option string) bool {
	opts := strings.Split(f.Tag.Get(_tagName), ",")
	for _, o := range opts[1:] {
		if o == option {
			return true
		}
	}
	return false
}
