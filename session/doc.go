// Package session manages authenticated login sessions.
//
// A session moves from active to exactly one of expired, terminated, or
// kicked_out; terminal states never transition again. Each user holds at
// most MaxConcurrent active sessions: a login at the cap either extends
// an existing session from the same device or evicts the least recently
// active one.
//
// Per-user operations run under striped locks, so the count-and-evict
// sequence is atomic and the cap holds under concurrent logins. Login
// attempts are recorded and inspected over a trailing window to flag
// high-frequency logins, IP churn, and device churn.
package session
