// Package errors provides unified error handling for the authentication
// core. It implements structured error types with machine-readable codes,
// HTTP status mapping, and retryable detection following RFC 7807.
//
// Every error returned across the gateway boundary is an *AppError with a
// stable ErrorCode and a safe user-facing message. Internal causes are
// attached via WithCause and surface in responses only when the debug
// flag is enabled.
package errors
