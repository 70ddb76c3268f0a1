// Package pdperrors defines the error taxonomy shared by the policy-engine
// client, cache backends and HTTP surface: typed internal errors that carry
// enough context for logs, plus the two client-facing shapes (APIError for
// the native/Trino surfaces, AuthZenError for the AuthZen surface) that
// render them without leaking upstream detail.
package pdperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Forwarding errors returned by the policy-engine client. Each maps to
// exactly one outward status via FromForwardingError.
var (
	ErrBuildRequest  = errors.New("failed to build policy engine request")
	ErrRequestFailed = errors.New("failed to reach policy engine")
	ErrParseResponse = errors.New("failed to parse policy engine response")
)

// InvalidStatusError records a non-2xx response from the policy engine or
// the supervised child, carrying the upstream status for logs without
// exposing the upstream body to callers.
type InvalidStatusError struct {
	Upstream   string
	StatusCode int
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("%s returned unexpected status %d", e.Upstream, e.StatusCode)
}

// APIError is the native/Trino-surface error shape: serialized as
// {"detail": "..."} with StatusCode as the HTTP status.
type APIError struct {
	Detail     string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Detail
}

func NewAPIError(statusCode int, detail string) *APIError {
	return &APIError{Detail: detail, StatusCode: statusCode}
}

func Internal(detail string) *APIError {
	return NewAPIError(http.StatusInternalServerError, detail)
}

func BadGateway(detail string) *APIError {
	return NewAPIError(http.StatusBadGateway, detail)
}

func BadRequest(detail string) *APIError {
	return NewAPIError(http.StatusBadRequest, detail)
}

// FromForwardingError maps a policy-engine client error to the public
// API error per the fixed taxonomy: BuildError/ParseError -> 500,
// RequestError/InvalidStatus -> 502.
func FromForwardingError(err error) *APIError {
	var invalidStatus *InvalidStatusError
	switch {
	case errors.As(err, &invalidStatus):
		return BadGateway(fmt.Sprintf("policy engine returned status %d", invalidStatus.StatusCode))
	case errors.Is(err, ErrRequestFailed):
		return BadGateway("failed to reach policy engine")
	case errors.Is(err, ErrBuildRequest), errors.Is(err, ErrParseResponse):
		return Internal("internal error processing policy engine response")
	default:
		return Internal("internal error")
	}
}

// AuthZenErrorCode is the fixed AuthZen error vocabulary.
type AuthZenErrorCode string

const (
	AuthZenInvalidRequest AuthZenErrorCode = "invalid_request"
	AuthZenUnauthorized   AuthZenErrorCode = "unauthorized"
	AuthZenForbidden      AuthZenErrorCode = "forbidden"
	AuthZenInternalError  AuthZenErrorCode = "internal_error"
)

func (c AuthZenErrorCode) StatusCode() int {
	switch c {
	case AuthZenInvalidRequest:
		return http.StatusBadRequest
	case AuthZenUnauthorized:
		return http.StatusUnauthorized
	case AuthZenForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AuthZenError is the AuthZen-surface error shape: a plain-text body at
// Code.StatusCode(). Message must never contain upstream or internal
// detail for AuthZenInternalError - construct it with the fixed generic
// text via NewAuthZenInternalError.
type AuthZenError struct {
	Code    AuthZenErrorCode
	Message string
}

func (e *AuthZenError) Error() string {
	return e.Message
}

func NewAuthZenError(code AuthZenErrorCode, message string) *AuthZenError {
	return &AuthZenError{Code: code, Message: message}
}

// genericInternalMessage is the fixed text returned for every internal
// error on the AuthZen surface; callers must log the real error themselves
// before calling this, since the message itself carries nothing useful.
const genericInternalMessage = "Internal server error"

func NewAuthZenInternalError() *AuthZenError {
	return &AuthZenError{Code: AuthZenInternalError, Message: genericInternalMessage}
}

// AuthZenFromAPIError maps an APIError onto the AuthZen taxonomy, matching
// the permitted codes exactly; anything that isn't one of the three known
// statuses becomes a generic internal error so no detail leaks.
func AuthZenFromAPIError(err *APIError) *AuthZenError {
	switch err.StatusCode {
	case http.StatusUnauthorized:
		return NewAuthZenError(AuthZenUnauthorized, err.Detail)
	case http.StatusForbidden:
		return NewAuthZenError(AuthZenForbidden, err.Detail)
	case http.StatusBadRequest:
		return NewAuthZenError(AuthZenInvalidRequest, err.Detail)
	default:
		return NewAuthZenInternalError()
	}
}

// AuthZenFromForwardingError always collapses to a generic internal error:
// the AuthZen surface never reveals policy-engine transport detail.
func AuthZenFromForwardingError(err error) *AuthZenError {
	return NewAuthZenInternalError()
}
