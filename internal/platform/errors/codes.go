// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidState marks caller contract violations: appending a seventh
	// line, or deriving attributes from an incomplete hexagram.
	CodeInvalidState Code = "INVALID_STATE"
	// CodeCatalogIntegrity marks a binary code with no catalog record.
	CodeCatalogIntegrity Code = "CATALOG_INTEGRITY"
	// CodeInvalidArgument marks malformed caller input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Journal errors
	CodeNotFound              Code = "NOT_FOUND"
	CodeUnauthenticated       Code = "UNAUTHENTICATED"
	CodeSubscriptionCompleted Code = "SUBSCRIPTION_COMPLETED"

	// Collaborator errors
	CodeInterpretationUnavailable Code = "INTERPRETATION_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeInvalidState, CodeSubscriptionCompleted:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInterpretationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
