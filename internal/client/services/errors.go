package services

import (
	"errors"

	"github.com/dmitrijs2005/cyphervault/internal/client/advisory"
)

var (
	ErrMissingFields      = errors.New("all fields required")
	ErrCredentialMismatch = errors.New("credential confirmation does not match")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDecryptionFailed   = errors.New("master key rejected")
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrAuditInProgress    = errors.New("an audit is already running")
	ErrRecordNotFound     = errors.New("record not found")

	// ErrAdvisoryUnavailable is recovered inside the advisory client and
	// never reaches gate callers; it is re-exported for log matching.
	ErrAdvisoryUnavailable = advisory.ErrUnavailable
)

// CodeInternal is the code of every error the user cannot act on.
const CodeInternal = "INTERNAL_ERROR"

// ErrorCode maps an error to the short code shown to the user.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFields):
		return "ALL_FIELDS_REQUIRED"
	case errors.Is(err, ErrCredentialMismatch):
		return "PASSWORD_MISMATCH"
	case errors.Is(err, ErrAccountExists):
		return "USER_EXISTS"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrDecryptionFailed):
		return "DECRYPTION_FAILED"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrAuditInProgress):
		return "AUDIT_IN_PROGRESS"
	case errors.Is(err, ErrRecordNotFound):
		return "RECORD_NOT_FOUND"
	case errors.Is(err, ErrAdvisoryUnavailable):
		return "ADVISORY_UNAVAILABLE"
	default:
		return CodeInternal
	}
}
