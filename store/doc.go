// Package store defines the persistence capability the authentication core
// depends on, without binding to a specific database product.
//
// Two access shapes are provided:
//
//   - Collection[T]: filtered reads (equality, range, set membership),
//     insert, update, delete, and count over typed documents, queried
//     through explicit expression constructors (Eq, Gte, Lte, In, And, Or).
//   - KV[C]: keyed load/save/delete with TTL for single-document state
//     such as rate-limit windows and IP reputation entries.
//
// Memory-backed implementations of both live here and serve tests and
// single-node deployments; the redis package provides a shared KV backend.
package store
