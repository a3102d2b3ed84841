// Package ratelimit enforces sliding-window request limits per identifier
// and tracks IP reputation.
//
// Limits are organized into named classes (DEFAULT, LOGIN, SENSITIVE,
// QUERY, UPLOAD), each with its own window, request cap, and optional
// block duration. Window state lives behind a store.KV so it can be held
// in process memory or shared through Redis across instances.
//
// Checks for the same identifier are serialized through striped locks;
// the count-then-append sequence is atomic per identifier. When the
// backing store is unreachable the limiter follows its configured failure
// policy, admitting requests by default.
package ratelimit
