package api

import (
	"fmt"
	"net/http"
	"strings"

	"viveo/internal/domain"
)

// StatusError carries a backend rejection: the transport status plus the
// structured code/message from the response envelope, when present. It
// unwraps to the matching sentinel in the domain error taxonomy so callers
// match with errors.Is and never branch on raw status codes.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%s)", msg, e.Code)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, msg)
}

func (e *StatusError) Unwrap() error {
	// The backend signals an insufficient balance either with 402 or with a
	// dedicated code on another status; both must surface identically.
	if e.StatusCode == http.StatusPaymentRequired || e.Code == "INSUFFICIENT_CREDITS" {
		return domain.ErrInsufficientCredits
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return domain.ErrValidation
	}
	return domain.ErrTransient
}
