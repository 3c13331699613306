package coreapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized indicates the bearer token was rejected by the core.
	// Callers must clear stored credentials when they see it.
	ErrUnauthorized = errors.New("core: unauthorized")

	// ErrForbidden indicates the authenticated user may not perform the operation.
	ErrForbidden = errors.New("core: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("core: not found")

	// ErrUnavailable covers network failures and 5xx responses. Operations
	// failing with it are safe to retry manually.
	ErrUnavailable = errors.New("core: unavailable")
)

// BusinessError is a core-side rule rejection (4xx with a message), e.g. a
// withdrawal before maturity. Friendly holds a user-presentable text derived
// from the raw backend message.
type BusinessError struct {
	Message  string
	Friendly string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("core: business rule: %s", e.Message)
}

// friendlyPatterns maps backend message fragments to user-facing texts. The
// match is best effort; unmatched messages fall back to a generic text.
var friendlyPatterns = []struct {
	fragment string
	text     string
}{
	{"maturity", "This account has not reached its maturity date yet."},
	{"minimum", "The amount is below the product's minimum deposit."},
	{"insufficient", "The account balance is not sufficient for this withdrawal."},
	{"closed", "This account is closed and can no longer be used."},
	{"exists", "An account with this email already exists."},
	{"password", "The password does not meet the security requirements."},
}

const genericBusinessMessage = "The request was rejected by the bank. Please review the details and try again."

func newBusinessError(message string) *BusinessError {
	lower := strings.ToLower(message)
	for _, p := range friendlyPatterns {
		if strings.Contains(lower, p.fragment) {
			return &BusinessError{Message: message, Friendly: p.text}
		}
	}
	return &BusinessError{Message: message, Friendly: genericBusinessMessage}
}

// Friendly extracts a user-presentable message from any core client error.
func Friendly(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Friendly
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action."
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	default:
		return "The bank service is temporarily unavailable. Please try again."
	}
}
