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

// ---- Validation (VAL) ----

// Validation returns a VAL_001 error carrying the given message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidID(field string) *AppError {
	return New("VAL_002", fmt.Sprintf("invalid %s format", field), http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("NOT_FOUND", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Wallet roles (ROLE) ----

func ErrRoleNameExists(name string) *AppError {
	return New("ROLE_001", fmt.Sprintf("wallet role with name %q already exists", name), http.StatusConflict)
}

// ---- Wallets (WAL) ----

func ErrAddressExists(address string) *AppError {
	return New("WAL_001", fmt.Sprintf("wallet with address %s already exists", address), http.StatusConflict)
}

func ErrLastRole() *AppError {
	return New("WAL_002", "cannot remove the last role from a wallet", http.StatusBadRequest)
}

func ErrInvalidRoles() *AppError {
	return New("WAL_003", "one or more roles do not exist or are inactive", http.StatusBadRequest)
}

func ErrRoleAlreadyAssigned() *AppError {
	return New("WAL_004", "role is already assigned to this wallet", http.StatusBadRequest)
}

func ErrRoleNotAssigned() *AppError {
	return New("WAL_004", "role is not assigned to this wallet", http.StatusBadRequest)
}

func ErrRolesChanged() *AppError {
	return New("WAL_005", "wallet roles were changed by another request, reload and retry", http.StatusConflict)
}

func ErrRoleLimit(max int) *AppError {
	return New("WAL_006", fmt.Sprintf("a wallet can hold at most %d roles", max), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrAccountDisabled() *AppError {
	return New("AUTH_002", "Admin account is disabled", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
