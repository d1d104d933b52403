package shared

import (
	"errors"
	"fmt"
)

// Failure classes shared by every step of a submission. Callers match them
// with errors.Is; the wrapping error carries the detail.
var (
	ErrConfigMissing      = errors.New("configuration missing")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAuthentication     = errors.New("authentication failed")
	ErrSigning            = errors.New("signing failed")
	ErrRejectedByNetwork  = errors.New("rejected by network")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// APIError is a non-2xx reply from the wallet daemon or the ledger node.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: %s returned status %d", e.kind, e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s returned status %d: %s", e.kind, e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// NewAPIError classifies a failed reply. kind is the class for 4xx replies;
// 5xx replies are always ErrServiceUnavailable.
func NewAPIError(service string, status int, message string, kind error) *APIError {
	if status >= 500 || kind == nil {
		kind = ErrServiceUnavailable
	}
	return &APIError{Service: service, StatusCode: status, Message: message, kind: kind}
}
