// Package apierrors provides structured API error codes and responses.
// All codes are namespaced (e.g., "session:ip_mismatch", "login:failed").
package apierrors

import "net/http"

// Core error codes - registered automatically at init
const (
	// Request errors
	CodeInvalidRequest   = "core:invalid_request"
	CodeMissingParameter = "core:missing_parameter"
	CodeUnknownAction    = "core:unknown_action"

	// Server errors
	CodeInternalError      = "core:internal_error"
	CodeServiceUnavailable = "core:service_unavailable"
	CodeRateLimited        = "core:rate_limited"
)

// Session error codes
const (
	CodeSessionExpired    = "session:expired"
	CodeSessionIPMismatch = "session:ip_mismatch"
	CodeSecretMismatch    = "session:secret_mismatch"
)

// Login error codes
const (
	CodeLoginFailed     = "login:failed"
	CodeAccountDisabled = "login:account_disabled"
	CodeAutologinFailed = "login:autologin_failed"
	CodeTokenInvalid    = "login:token_invalid"
)

// Folder error codes
const (
	CodeFolderUnavailable = "folder:unavailable"
)

// registeredErrors defines all error codes with default messages and HTTP status
var registeredErrors = []ErrorCode{
	{Code: CodeInvalidRequest, Message: "Invalid request", HTTPStatus: http.StatusBadRequest},
	{Code: CodeMissingParameter, Message: "Missing request parameter", HTTPStatus: http.StatusBadRequest},
	{Code: CodeUnknownAction, Message: "Unknown action", HTTPStatus: http.StatusBadRequest},

	{Code: CodeInternalError, Message: "Internal server error", HTTPStatus: http.StatusInternalServerError},
	{Code: CodeServiceUnavailable, Message: "Service temporarily unavailable", HTTPStatus: http.StatusServiceUnavailable},
	{Code: CodeRateLimited, Message: "Too many requests", HTTPStatus: http.StatusTooManyRequests},

	{Code: CodeSessionExpired, Message: "Session expired", HTTPStatus: http.StatusForbidden},
	{Code: CodeSessionIPMismatch, Message: "Request IP does not match session IP", HTTPStatus: http.StatusForbidden},
	{Code: CodeSecretMismatch, Message: "Session secret does not match", HTTPStatus: http.StatusForbidden},

	{Code: CodeLoginFailed, Message: "Login failed", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeAccountDisabled, Message: "Account is disabled", HTTPStatus: http.StatusForbidden},
	{Code: CodeAutologinFailed, Message: "Auto-login failed", HTTPStatus: http.StatusForbidden},
	{Code: CodeTokenInvalid, Message: "Invalid or expired token", HTTPStatus: http.StatusForbidden},

	{Code: CodeFolderUnavailable, Message: "Folder is not available", HTTPStatus: http.StatusServiceUnavailable},
}

func init() {
	for _, e := range registeredErrors {
		Registry.Register(e)
	}
}
