package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable, safe-to-surface error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// --- Token Errors ---

// TokenInvalid creates an error for a malformed or badly signed token.
func TokenInvalid() *AppError {
	return &AppError{
		Code: ErrCodeTokenInvalid, Message: "Invalid authentication token. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenExpired creates an error for an expired authentication token.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "Your session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenNotYetValid creates an error for a token used before its validity window.
func TokenNotYetValid() *AppError {
	return &AppError{
		Code: ErrCodeTokenNotYetValid, Message: "Token is not valid yet.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenTypeMismatch creates an error for a token of the wrong type.
func TokenTypeMismatch(expected, got string) *AppError {
	return &AppError{
		Code: ErrCodeTokenTypeMismatch, Message: "Token type is not valid for this operation.",
		HTTPStatus: http.StatusUnauthorized,
		Details:    map[string]any{"expected": expected, "got": got},
	}
}

// InvalidRefreshToken creates an error for a refresh token that failed verification.
func InvalidRefreshToken() *AppError {
	return &AppError{
		Code: ErrCodeInvalidRefreshToken, Message: "Refresh token is invalid or expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// EmptyToken creates an error for a request carrying no token at all.
func EmptyToken() *AppError {
	return &AppError{
		Code: ErrCodeEmptyToken, Message: "Authentication token is required.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// --- Session Errors ---

// SessionNotFound creates an error for a missing or inactive session.
func SessionNotFound() *AppError {
	return &AppError{
		Code: ErrCodeSessionNotFound, Message: "Session not found. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// SessionExpired creates an error for a session past its expiry.
func SessionExpired() *AppError {
	return &AppError{
		Code: ErrCodeSessionExpired, Message: "Session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// ConcurrentSessionLimit creates an error for the per-user session cap.
func ConcurrentSessionLimit(limit int) *AppError {
	return &AppError{
		Code: ErrCodeConcurrentSessionLimit, Message: "Too many active sessions for this account.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"limit": limit},
	}
}

// --- Rate Limiting Errors ---

// RateLimitExceeded creates an error for an exhausted sliding window.
// retryAfter is the number of seconds until the window resets.
func RateLimitExceeded(message string, retryAfter int) *AppError {
	if message == "" {
		message = "Too many requests. Please wait a moment and try again."
	}
	return &AppError{
		Code: ErrCodeRateLimitExceeded, Message: message,
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"retry_after": retryAfter},
	}
}

// IPBlocked creates an error for a client IP with an active block.
func IPBlocked() *AppError {
	return &AppError{
		Code: ErrCodeIPBlocked, Message: "Access temporarily blocked. Please try again later.",
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Validation and Credential Errors ---

// ValidationFailed creates an aggregated validation error. The fields value
// is stored under the "fields" detail key so every offending field can be
// reported to the caller at once.
func ValidationFailed(message string, fields any) *AppError {
	return &AppError{
		Code: ErrCodeValidationFailed, Message: message,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"fields": fields},
	}
}

// CredentialMismatch creates an error for failed login credentials.
// The message is deliberately identical for unknown user and wrong password.
func CredentialMismatch() *AppError {
	return &AppError{
		Code: ErrCodeCredentialMismatch, Message: "Incorrect organization code, username, or password.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// WeakPassword creates an error for a password below the configured minimum.
func WeakPassword(minLength int) *AppError {
	return &AppError{
		Code: ErrCodeWeakPassword, Message: fmt.Sprintf("Password must be at least %d characters.", minLength),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"min_length": minLength},
	}
}

// --- Infrastructure Errors ---

// StoreUnavailable creates an error for an unreachable backing store.
func StoreUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreUnavailable, Message: "Service is temporarily unavailable. Please try again.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true, Cause: cause,
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
