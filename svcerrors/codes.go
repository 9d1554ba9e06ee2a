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

package svcerrors

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CodeOK means no error.
	CodeOK Code = 0

	// CodeInner means the wrapped service failed. Errors that do not carry
	// a Status are reported with this code by FromError.
	CodeInner Code = 1

	// CodeCapacityExceeded means an overload guard shed the request because
	// the wrapped service was not ready for it.
	CodeCapacityExceeded Code = 2

	// CodeRateExceeded means a non-blocking rate guard had no token for the
	// request.
	CodeRateExceeded Code = 3

	// CodeRejected means an admission predicate refused the request.
	CodeRejected Code = 4

	// CodeTimedOut means the call did not complete within its deadline. The
	// wrapped service may or may not have seen the request.
	CodeTimedOut Code = 5

	// CodeConnectionFailed means a connection to the backend could not be
	// established. It stays in effect until a reconnect is permitted.
	CodeConnectionFailed Code = 6

	// CodeNoBackends means a balancer had no ready backend for the request.
	CodeNoBackends Code = 7

	// CodeCancelled means the caller abandoned the call before it resolved.
	CodeCancelled Code = 8

	// CodeClosed means the service was shut down before the request could
	// be dispatched.
	CodeClosed Code = 9
)

var (
	_codeToString = map[Code]string{
		CodeOK:               "ok",
		CodeInner:            "inner",
		CodeCapacityExceeded: "capacity-exceeded",
		CodeRateExceeded:     "rate-exceeded",
		CodeRejected:         "rejected",
		CodeTimedOut:         "timed-out",
		CodeConnectionFailed: "connection-failed",
		CodeNoBackends:       "no-backends",
		CodeCancelled:        "cancelled",
		CodeClosed:           "closed",
	}
	_stringToCode = map[string]Code{
		"ok":                CodeOK,
		"inner":             CodeInner,
		"capacity-exceeded": CodeCapacityExceeded,
		"rate-exceeded":     CodeRateExceeded,
		"rejected":          CodeRejected,
		"timed-out":         CodeTimedOut,
		"connection-failed": CodeConnectionFailed,
		"no-backends":       CodeNoBackends,
		"cancelled":         CodeCancelled,
		"closed":            CodeClosed,
	}

	// Requests that fail with these codes never reached the wrapped backend.
	_notSentCodes = map[Code]struct{}{
		CodeCapacityExceeded: {},
		CodeRateExceeded:     {},
		CodeRejected:         {},
		CodeConnectionFailed: {},
		CodeNoBackends:       {},
		CodeClosed:           {},
	}
)

// Code represents the kind of failure of a call.
type Code int

// String returns the the string representation of the Code.
func (c Code) String() string {
	s, ok := _codeToString[c]
	if ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	s, ok := _codeToString[c]
	if ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unknown code: %d", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	i, ok := _stringToCode[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("unknown code string: %s", string(text))
	}
	*c = i
	return nil
}
