package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured    = errors.New("wallet custodian credential not configured")
	ErrNetwork          = errors.New("wallet custodian unreachable")
	ErrService          = errors.New("wallet custodian request failed")
	ErrTimeout          = errors.New("pairing request timed out")
	ErrMalformedSession = errors.New("malformed session record")
	ErrAccountMissing   = errors.New("signed request has no wallet account")
	ErrRejected         = errors.New("sign-in rejected in wallet app")
	ErrRequestExpired   = errors.New("pairing request expired")
	ErrAlreadyConnected = errors.New("wallet already connected")
	ErrNotConnected     = errors.New("wallet not connected")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token has expired")
)

// ServiceError reports a non-success answer from the wallet custodian
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wallet custodian error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("wallet custodian error (%d)", e.StatusCode)
}

// Is lets errors.Is(err, ErrService) match any ServiceError
func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}
