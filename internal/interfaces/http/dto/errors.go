package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller's role may not perform the operation
	ErrCodeForbidden = "FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "CONCURRENT_MODIFICATION"
)

// domainErrorHTTPStatus maps domain error codes to HTTP status codes.
// Codes produced by the order and stock domains fall into four families:
// missing resources, permission failures, write conflicts and business
// rules the current order or ledger state does not allow.
var domainErrorHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeValidation: http.StatusBadRequest,
	"INVALID_INPUT":   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:     http.StatusNotFound,
	"PRODUCT_NOT_FOUND": http.StatusNotFound,
	"STOCK_NOT_FOUND":   http.StatusNotFound,

	ErrCodeConcurrencyConflict: http.StatusConflict,
	"LEDGER_EXISTS":            http.StatusConflict,

	"INVALID_TRANSITION":       http.StatusUnprocessableEntity,
	"INVALID_STATE":            http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":       http.StatusUnprocessableEntity,
	"ORDER_NOT_DELETABLE":      http.StatusUnprocessableEntity,
	"PRODUCT_INACTIVE":         http.StatusUnprocessableEntity,
	"BELOW_MIN_ORDER_QUANTITY": http.StatusUnprocessableEntity,
	"REASON_REQUIRED":          http.StatusUnprocessableEntity,
	"NOT_DISPUTED":             http.StatusUnprocessableEntity,
	"INVALID_LEDGER_KIND":      http.StatusUnprocessableEntity,
	"INVALID_THRESHOLD":        http.StatusUnprocessableEntity,
	"INVALID_QUANTITY":         http.StatusUnprocessableEntity,
	"INVALID_ACTION":           http.StatusUnprocessableEntity,
	"INVALID_ASSIGNMENT_TYPE":  http.StatusUnprocessableEntity,

	"SIDE_EFFECT_FAILED": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Unknown codes are treated as internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := domainErrorHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
