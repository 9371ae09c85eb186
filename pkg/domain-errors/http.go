package errors

import "net/http"

// ToHTTPStatus maps a domain error code to an HTTP status. Keeping the
// mapping here gives every handler the same envelope semantics.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTransferFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
