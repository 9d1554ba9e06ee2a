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

// Package testtime stretches the waits in tests by the factor in
// TEST_TIME_SCALE, for machines too slow for the default timings.
package testtime

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

var factor = parseFactor(os.Getenv("TEST_TIME_SCALE"))

// Millisecond and Second are stretched by TEST_TIME_SCALE.
var (
	Millisecond = Scale(time.Millisecond)
	Second      = Scale(time.Second)
)

// Scale stretches d by TEST_TIME_SCALE.
func Scale(d time.Duration) time.Duration {
	return time.Duration(factor * float64(d))
}

func parseFactor(v string) float64 {
	if v == "" {
		return 1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		panic(fmt.Sprintf("TEST_TIME_SCALE must be a positive number, got %q", v))
	}
	return f
}
