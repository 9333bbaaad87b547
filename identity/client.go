// Package identity is the wire client for the club's external Identity
// Service. The service owns user records, credential checking, OTP
// issuance, and token minting; this package only speaks its HTTP+JSON
// contract and reports failures in a form the engine can classify.
//
// Callers distinguish two failure shapes: a structured rejection decodes
// into [*APIError], while anything without a structured payload (refused
// connection, timeout, non-JSON body) wraps [ErrUnreachable].
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Purpose values accepted by the resend-OTP operation. These are wire
// strings owned by the Identity Service.
const (
	PurposeRegistration  = "registration"
	PurposePasswordReset = "password-reset"
)

// ErrUnreachable marks a call that failed without a structured service
// response. The remedy is "try again later", unlike an APIError where
// the remedy depends on the code.
var ErrUnreachable = errors.New("identity service unreachable")

// Error codes returned in structured rejections. The set is part of the
// service contract; unknown codes are treated as unreachable-equivalent
// by the engine.
const (
	CodeDuplicateEmail     = "duplicate_email"
	CodeValidationFailed   = "validation_failed"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnverifiedEmail    = "unverified_email"
	CodeAccountDeactivated = "account_deactivated"
	CodeInvalidOTP         = "invalid_otp"
	CodeExpiredOTP         = "expired_otp"
	CodeUnknownEmail       = "unknown_email"
	CodeRateLimited        = "rate_limited"
	CodeWeakPassword       = "weak_password"
)

// APIError is a structured rejection from the Identity Service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity service rejected request: %s (%d)", e.Code, e.Status)
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	FullName string            `json:"full_name"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Profile  map[string]string `json:"profile,omitempty"`
}

// Account is the service's view of an authenticated user, returned with
// issued credentials.
type Account struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Credentials is the issued token plus the account it belongs to.
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   Account   `json:"account"`
}

// Client is the set of Identity Service operations the auth flows need.
// The engine receives an implementation at construction time; there is
// no ambient default.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) error
	ResendOTP(ctx context.Context, email, purpose string) error
	VerifyRegistrationOTP(ctx context.Context, email, otp string) (*Credentials, error)
	Login(ctx context.Context, email, password string) (*Credentials, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}
