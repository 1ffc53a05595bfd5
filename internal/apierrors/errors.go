// Package apierrors defines the error contract exposed to API clients:
// an HTTP status, a stable machine-readable code and a human message.
package apierrors

import "net/http"

// Stable error codes returned in response bodies.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeUserExists          = "USER_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeNoToken             = "NO_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
)

// APIError is an error with a client-facing HTTP status and code.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// NewErrValidation marks malformed input.
func NewErrValidation(detail string) *APIError {
	return &APIError{HTTPStatus: http.StatusBadRequest, Code: CodeValidationError, Message: detail}
}

// NewErrUserExists marks a registration against a taken email.
func NewErrUserExists() *APIError {
	return &APIError{HTTPStatus: http.StatusConflict, Code: CodeUserExists, Message: "user already exists"}
}

// NewErrInvalidCredentials covers both unknown email and wrong password so
// responses cannot be used to enumerate users.
func NewErrInvalidCredentials() *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "invalid credentials"}
}

// NewErrMissingToken marks a protected request without a bearer token.
func NewErrMissingToken() *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Code: CodeNoToken, Message: "access token required"}
}

// NewErrInvalidToken marks an access token that failed verification.
func NewErrInvalidToken() *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Code: CodeInvalidToken, Message: "invalid token"}
}

// NewErrTokenExpired marks an access token past its expiry. Distinct from
// NewErrInvalidToken so clients know to attempt a refresh.
func NewErrTokenExpired() *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Code: CodeTokenExpired, Message: "token expired"}
}

// NewErrInvalidRefreshToken covers not-found, revoked, expired and
// owner-mismatch without distinguishing which.
func NewErrInvalidRefreshToken() *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Code: CodeInvalidRefreshToken, Message: "invalid or expired refresh token"}
}

// NewErrUserNotFound marks a token whose owner no longer exists or is
// deactivated.
func NewErrUserNotFound() *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, Code: CodeUserNotFound, Message: "user not found or inactive"}
}

// NewErrTooManyRequests marks a rate limited source address.
func NewErrTooManyRequests() *APIError {
	return &APIError{HTTPStatus: http.StatusTooManyRequests, Code: CodeTooManyRequests, Message: "too many requests from this IP, please try again later"}
}
