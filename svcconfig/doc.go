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

// Package svcconfig builds layer stacks from configuration.
//
// A stack lists its layers outermost first. Each entry names a layer kind
// and its attributes:
//
//	layers:
//	  - concurrency:
//	      maxInFlight: 64
//	  - rateLimit:
//	      quota: 100
//	      window: 1s
//	  - retry:
//	      retries: 3
//	      backoff:
//	        exponential:
//	          base: 50ms
//	          max: 1s
//	  - timeout:
//	      duration: ${CALL_TIMEOUT:500ms}
//	  - loadShed
//	  - buffer:
//	      capacity: 128
//
// Numbers and durations may refer to environment variables as ${NAME} or
// ${NAME:default}.
//
// The built-in kinds are concurrency, rateLimit, loadShed, timeout, buffer
// and retry. Register other kinds, such as admission filters, with
// RegisterLayer.
package svcconfig
