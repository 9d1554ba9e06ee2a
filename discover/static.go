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

package discover

import "context"

// Static is a Source with fixed membership.
type Static[Req, Res any] struct {
	backends []Backend[Req, Res]
}

var _ Source[string, string] = (*Static[string, string])(nil)

// NewStatic returns a Source that inserts each backend in order and never
// changes afterwards.
func NewStatic[Req, Res any](backends ...Backend[Req, Res]) *Static[Req, Res] {
	return &Static[Req, Res]{backends: append([]Backend[Req, Res](nil), backends...)}
}

// Watch sends an insert for every backend and a Synced change, then holds
// the stream open until ctx ends.
func (s *Static[Req, Res]) Watch(ctx context.Context) (<-chan Change[Req, Res], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan Change[Req, Res])
	go func() {
		defer close(ch)
		changes := make([]Change[Req, Res], 0, len(s.backends)+1)
		for _, b := range s.backends {
			changes = append(changes, InsertOf(b.ID, b.New))
		}
		changes = append(changes, SyncedOf[Req, Res]())

		for _, change := range changes {
			select {
			case ch <- change:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch, nil
}
