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

import (
	"context"
	"fmt"

	"go.uber.org/svc"
)

// Kind is the kind of a membership Change.
type Kind int

const (
	// Insert adds a backend, replacing any backend with the same identity.
	Insert Kind = iota + 1

	// Remove drops the backend with the identity.
	Remove

	// Synced ends the replay of the membership at the start of a stream.
	// Backends not inserted since the stream started are no longer members.
	Synced
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	case Synced:
		return "synced"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Factory builds the service for a backend.
type Factory[Req, Res any] func(ctx context.Context) (svc.Service[Req, Res], error)

// Change is a single membership event.
type Change[Req, Res any] struct {
	Kind Kind

	// ID identifies the backend. It is empty for Synced.
	ID string

	// New builds the backend. It is only set for inserts.
	New Factory[Req, Res]
}

// InsertOf returns a change that inserts the backend id built by f.
func InsertOf[Req, Res any](id string, f Factory[Req, Res]) Change[Req, Res] {
	return Change[Req, Res]{Kind: Insert, ID: id, New: f}
}

// RemoveOf returns a change that removes the backend id.
func RemoveOf[Req, Res any](id string) Change[Req, Res] {
	return Change[Req, Res]{Kind: Remove, ID: id}
}

// SyncedOf returns the change that ends a membership replay.
func SyncedOf[Req, Res any]() Change[Req, Res] {
	return Change[Req, Res]{Kind: Synced}
}

// Backend pairs an identity with the factory for its service.
type Backend[Req, Res any] struct {
	ID  string
	New Factory[Req, Res]
}

// Of returns a factory that always yields s.
func Of[Req, Res any](s svc.Service[Req, Res]) Factory[Req, Res] {
	return func(context.Context) (svc.Service[Req, Res], error) { return s, nil }
}

// Source is a restartable stream of membership changes.
type Source[Req, Res any] interface {
	// Watch starts a stream of changes. A stream opens with an insert for
	// every current member followed by a Synced change. The returned channel
	// is closed when ctx ends or the source drops the stream.
	Watch(ctx context.Context) (<-chan Change[Req, Res], error)
}
