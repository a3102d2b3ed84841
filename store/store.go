package store

import (
	"context"
	"time"
)

// Collection provides filtered access to typed documents. A nil expression
// matches every document.
type Collection[T Document] interface {
	// Find returns all documents matching expr.
	Find(ctx context.Context, expr Expr, opts ...QueryOption) ([]T, error)

	// Insert stores a new document.
	Insert(ctx context.Context, doc T) error

	// Update applies mutate to every matching document and returns the
	// number of documents changed. The mutation runs under the store's
	// write lock, so read-modify-write through Update is atomic.
	Update(ctx context.Context, expr Expr, mutate func(T) T) (int, error)

	// Delete removes matching documents and returns the number removed.
	Delete(ctx context.Context, expr Expr) (int, error)

	// Count returns the number of matching documents.
	Count(ctx context.Context, expr Expr) (int64, error)
}

// KV provides keyed load/save/delete for single-document state.
// Load returns (nil, nil) when the key does not exist.
type KV[C any] interface {
	Load(ctx context.Context, key string) (*C, error)
	Save(ctx context.Context, key string, val *C, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// QueryOption adjusts a Find call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	limit int
}

// WithLimit caps the number of documents returned by Find.
func WithLimit(n int) QueryOption {
	return func(o *queryOptions) { o.limit = n }
}

func applyOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
