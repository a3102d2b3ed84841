// Package gateway is the authentication surface consumed by the
// business CRUD handlers.
//
// It composes the token service, session manager, rate limiter, input
// validator, and credential hasher into the operations a handler calls:
// Login, VerifyToken, Refresh, Logout, ChangePassword, Validate, and
// per-class rate-limit checks. The gateway owns the orchestration rules:
// login attempts are rate limited and screened against IP reputation,
// credential failures are indistinguishable between unknown users and
// wrong passwords, and a password change ends every session.
package gateway
