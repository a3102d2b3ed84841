package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Token errors
const (
	// ErrCodeTokenInvalid indicates a malformed or badly signed token.
	ErrCodeTokenInvalid ErrorCode = "TOKEN_INVALID"
	// ErrCodeTokenExpired indicates the token's exp claim has passed.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeTokenNotYetValid indicates the token's nbf/iat claim is in the future.
	ErrCodeTokenNotYetValid ErrorCode = "TOKEN_NOT_YET_VALID"
	// ErrCodeTokenTypeMismatch indicates an access token was presented where a
	// refresh token was expected, or vice versa.
	ErrCodeTokenTypeMismatch ErrorCode = "TOKEN_TYPE_MISMATCH"
	// ErrCodeInvalidRefreshToken indicates the refresh token failed verification.
	ErrCodeInvalidRefreshToken ErrorCode = "INVALID_REFRESH_TOKEN"
	// ErrCodeEmptyToken indicates no token was supplied.
	ErrCodeEmptyToken ErrorCode = "EMPTY_TOKEN"
)

// Session errors
const (
	// ErrCodeSessionNotFound indicates no active session matches the request.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeSessionExpired indicates the session passed its expiry.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	// ErrCodeConcurrentSessionLimit indicates the per-user session cap was hit.
	ErrCodeConcurrentSessionLimit ErrorCode = "CONCURRENT_SESSION_LIMIT"
)

// Rate limiting errors
const (
	// ErrCodeRateLimitExceeded indicates the sliding-window limit was exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeIPBlocked indicates the client IP carries an active block.
	ErrCodeIPBlocked ErrorCode = "IP_BLOCKED"
)

// Validation and credential errors
const (
	// ErrCodeValidationFailed indicates one or more fields failed validation.
	// The Details map carries the full field error list.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeCredentialMismatch indicates a wrong org code, username, or password.
	ErrCodeCredentialMismatch ErrorCode = "CREDENTIAL_MISMATCH"
	// ErrCodeWeakPassword indicates a password below the configured minimum.
	ErrCodeWeakPassword ErrorCode = "WEAK_PASSWORD"
)

// Infrastructure errors
const (
	// ErrCodeStoreUnavailable indicates the backing store could not be reached.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimitExceeded: true,
	ErrCodeStoreUnavailable:  true,
	ErrCodeInternal:          false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
