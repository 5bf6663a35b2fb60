package demo

import (
	"context"

	"github.com/kitchenops/platecost/internal/store"
)

type contextKey string

const storeContextKey contextKey = "demo_store"

// WithStore returns a context carrying st for the dynamic extent of one
// logical request. Nested calls shadow the outer binding; code running after
// the request (detached goroutines with their own contexts) does not inherit
// it, which matters because the store may be evicted once the request ends.
func WithStore(ctx context.Context, st store.Store) context.Context {
	return context.WithValue(ctx, storeContextKey, st)
}

// StoreFromContext returns the store bound to the context, if any.
func StoreFromContext(ctx context.Context) (store.Store, bool) {
	st, ok := ctx.Value(storeContextKey).(store.Store)
	return st, ok
}

// Resolve selects the backing store for a business operation: the explicit
// argument when given, else the context binding, else the shared default.
// This precedence is what lets the same service code run against the durable
// store in normal operation and against a per-session ephemeral store in
// demo mode with no call-site changes.
func Resolve(ctx context.Context, explicit, shared store.Store) store.Store {
	if explicit != nil {
		return explicit
	}
	if st, ok := StoreFromContext(ctx); ok {
		return st
	}
	return shared
}
