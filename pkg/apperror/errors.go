package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed, as with
// an unresolved write race (WAL_004) or a provider fetch failure (WAL_003).
func (e *AppError) Retryable() bool {
	switch e.HTTPStatus {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	}
	return false
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Wallet subsystem (WAL) ----

func ErrNotFound(entity string) *AppError {
	return New("WAL_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrUnknownProvider(provider string) *AppError {
	return New("WAL_002", fmt.Sprintf("no client configured for provider %s", provider), http.StatusUnprocessableEntity)
}

// ErrProviderFetch wraps a provider fetch failure. The sync attempt aborts
// cleanly; the caller may retry the whole operation later.
func ErrProviderFetch(err error) *AppError {
	return Wrap("WAL_003", "Provider balance fetch failed", http.StatusBadGateway, err)
}

// ErrRaceUnresolved wraps the original duplicate error when re-resolution
// after a constraint violation still finds nothing. Fatal for this request;
// the caller must retry.
func ErrRaceUnresolved(err error) *AppError {
	return Wrap("WAL_004", "Concurrent write could not be resolved, retry the request", http.StatusBadGateway, err)
}

func ErrWalletInactive() *AppError {
	return New("WAL_005", "Wallet registration is deactivated", http.StatusUnprocessableEntity)
}

// ---- Escrow (ESC) ----

func ErrInvalidAmount() *AppError {
	return New("ESC_001", "Invalid amount", http.StatusBadRequest)
}

func ErrInvalidTransition(from, to string) *AppError {
	return New("ESC_002", fmt.Sprintf("milestone cannot move from %s to %s", from, to), http.StatusConflict)
}

// ---- KYC ----

func ErrKYCNotSubmitted() *AppError {
	return New("KYC_001", "No KYC submission on file", http.StatusNotFound)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("SYS_002", message, http.StatusBadRequest)
}
