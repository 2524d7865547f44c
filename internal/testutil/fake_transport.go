// Package testutil provides configurable test fakes for linear interfaces.
package testutil

import (
	"context"
	"sync"

	linear "github.com/eugener/linear/internal"
)

// FakeTransport is a configurable linear.Transport for testing. It records
// every request it receives.
type FakeTransport struct {
	DoFn func(ctx context.Context, req linear.Request) ([]byte, error)

	mu       sync.Mutex
	requests []linear.Request
}

// Do records req and delegates to DoFn or returns an empty data payload.
func (f *FakeTransport) Do(ctx context.Context, req linear.Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.DoFn != nil {
		return f.DoFn(ctx, req)
	}
	return []byte(`{"data":{}}`), nil
}

// Calls returns the number of requests received.
func (f *FakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of the received requests in arrival order.
func (f *FakeTransport) Requests() []linear.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]linear.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Responses returns a DoFn serving a fixed payload per operation name.
// Unknown operations get an empty data payload.
func Responses(byOperation map[string]string) func(context.Context, linear.Request) ([]byte, error) {
	return func(_ context.Context, req linear.Request) ([]byte, error) {
		if body, ok := byOperation[req.OperationName]; ok {
			return []byte(body), nil
		}
		return []byte(`{"data":{}}`), nil
	}
}
