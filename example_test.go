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

package svc_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.uber.org/svc"
	"go.uber.org/svc/concurrency"
	"go.uber.org/svc/filter"
)

func ExampleBuilder() {
	leaf := svc.Func[string, string](func(_ context.Context, req string) (string, error) {
		return strings.ToUpper(req), nil
	})

	limit, err := concurrency.NewLayer[string, string](4)
	if err != nil {
		log.Fatal(err)
	}
	client := svc.NewBuilder[string, string]().
		With(filter.NewLayer[string, string](filter.PredicateFunc[string](func(_ context.Context, req string) error {
			if req == "" {
				return fmt.Errorf("empty request")
			}
			return nil
		}))).
		With(limit).
		Service(leaf)

	res, err := svc.Oneshot(context.Background(), client, "hello")
	fmt.Println(res, err)

	_, err = svc.Oneshot(context.Background(), client, "")
	fmt.Println(err)
	// Output:
	// HELLO <nil>
	// code:rejected message:request rejected: empty request
}

func ExampleMap() {
	leaf := svc.Func[int, int](func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	logged := svc.Map[int, int](leaf, func(ctx context.Context, n int, next svc.Service[int, int]) (int, error) {
		fmt.Println("calling with", n)
		return next.Call(ctx, n)
	})

	res, _ := svc.Oneshot(context.Background(), logged, 7)
	fmt.Println(res)
	// Output:
	// calling with 7
	// 49
}
