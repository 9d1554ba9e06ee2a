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
	"bytes"
	"errors"
	"fmt"
)

// Newf returns a new Status.
//
// The Code should never be CodeOK, if it is, this will return nil. Use %w in
// the format to keep the cause reachable through errors.Is and errors.As.
func Newf(code Code, format string, args ...interface{}) *Status {
	if code == CodeOK {
		return nil
	}

	var err error
	if len(args) == 0 {
		err = errors.New(format)
	} else {
		err = fmt.Errorf(format, args...)
	}

	return &Status{
		code: code,
		err:  err,
	}
}

// FromError returns the Status for the provided error.
//
// If the error:
//   - is nil, return nil
//   - is or wraps a Status, return the Status
//
// Otherwise, return a wrapped error with code CodeInner.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}

	var st *Status
	if errors.As(err, &st) {
		return st
	}

	return &Status{
		code: CodeInner,
		err:  &wrapError{err: err},
	}
}

// IsStatus returns whether the provided error is or wraps a Status.
//
// This is false if the error is nil.
func IsStatus(err error) bool {
	var st *Status
	return errors.As(err, &st)
}

// Status is an error produced by a layer enforcing its own policy.
type Status struct {
	code Code
	err  error
}

// Unwrap supports errors.Unwrap.
func (s *Status) Unwrap() error {
	if s == nil {
		return nil
	}
	return errors.Unwrap(s.err)
}

// Code returns the error code for this Status.
func (s *Status) Code() Code {
	if s == nil {
		return CodeOK
	}
	return s.code
}

// Message returns the error message for this Status.
func (s *Status) Message() string {
	if s == nil {
		return ""
	}
	return s.err.Error()
}

// Error implements the error interface.
func (s *Status) Error() string {
	buffer := bytes.NewBuffer(nil)
	_, _ = buffer.WriteString(`code:`)
	_, _ = buffer.WriteString(s.code.String())
	if s.err != nil && s.err.Error() != "" {
		_, _ = buffer.WriteString(` message:`)
		_, _ = buffer.WriteString(s.err.Error())
	}
	return buffer.String()
}

type wrapError struct {
	err error
}

func (e *wrapError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *wrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// NotSent reports whether the error proves that the request never reached
// the wrapped backend, which makes it safe to send again.
//
// Inner failures, timeouts and cancellations are not covered: the backend may
// have seen those requests.
func NotSent(err error) bool {
	if err == nil {
		return false
	}
	_, ok := _notSentCodes[FromError(err).Code()]
	return ok
}

// CapacityExceededErrorf returns a new Status with code CodeCapacityExceeded
// by calling Newf(CodeCapacityExceeded, format, args...).
func CapacityExceededErrorf(format string, args ...interface{}) error {
	return Newf(CodeCapacityExceeded, format, args...)
}

// RateExceededErrorf returns a new Status with code CodeRateExceeded
// by calling Newf(CodeRateExceeded, format, args...).
func RateExceededErrorf(format string, args ...interface{}) error {
	return Newf(CodeRateExceeded, format, args...)
}

// RejectedErrorf returns a new Status with code CodeRejected
// by calling Newf(CodeRejected, format, args...).
func RejectedErrorf(format string, args ...interface{}) error {
	return Newf(CodeRejected, format, args...)
}

// TimedOutErrorf returns a new Status with code CodeTimedOut
// by calling Newf(CodeTimedOut, format, args...).
func TimedOutErrorf(format string, args ...interface{}) error {
	return Newf(CodeTimedOut, format, args...)
}

// ConnectionFailedErrorf returns a new Status with code CodeConnectionFailed
// by calling Newf(CodeConnectionFailed, format, args...).
func ConnectionFailedErrorf(format string, args ...interface{}) error {
	return Newf(CodeConnectionFailed, format, args...)
}

// NoBackendsErrorf returns a new Status with code CodeNoBackends
// by calling Newf(CodeNoBackends, format, args...).
func NoBackendsErrorf(format string, args ...interface{}) error {
	return Newf(CodeNoBackends, format, args...)
}

// CancelledErrorf returns a new Status with code CodeCancelled
// by calling Newf(CodeCancelled, format, args...).
func CancelledErrorf(format string, args ...interface{}) error {
	return Newf(CodeCancelled, format, args...)
}

// ClosedErrorf returns a new Status with code CodeClosed
// by calling Newf(CodeClosed, format, args...).
func ClosedErrorf(format string, args ...interface{}) error {
	return Newf(CodeClosed, format, args...)
}

// IsInner returns true if FromError(err).Code() == CodeInner.
func IsInner(err error) bool {
	return FromError(err).Code() == CodeInner
}

// IsCapacityExceeded returns true if FromError(err).Code() == CodeCapacityExceeded.
func IsCapacityExceeded(err error) bool {
	return FromError(err).Code() == CodeCapacityExceeded
}

// IsRateExceeded returns true if FromError(err).Code() == CodeRateExceeded.
func IsRateExceeded(err error) bool {
	return FromError(err).Code() == CodeRateExceeded
}

// IsRejected returns true if FromError(err).Code() == CodeRejected.
func IsRejected(err error) bool {
	return FromError(err).Code() == CodeRejected
}

// IsTimedOut returns true if FromError(err).Code() == CodeTimedOut.
func IsTimedOut(err error) bool {
	return FromError(err).Code() == CodeTimedOut
}

// IsConnectionFailed returns true if FromError(err).Code() == CodeConnectionFailed.
func IsConnectionFailed(err error) bool {
	return FromError(err).Code() == CodeConnectionFailed
}

// IsNoBackends returns true if FromError(err).Code() == CodeNoBackends.
func IsNoBackends(err error) bool {
	return FromError(err).Code() == CodeNoBackends
}

// IsCancelled returns true if FromError(err).Code() == CodeCancelled.
func IsCancelled(err error) bool {
	return FromError(err).Code() == CodeCancelled
}

// IsClosed returns true if FromError(err).Code() == CodeClosed.
func IsClosed(err error) bool {
	return FromError(err).Code() == CodeClosed
}
