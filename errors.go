package clubauth

import "errors"

// Local validation errors. These never reach the network.
var (
	// ErrMissingFields is returned when a required form field is absent.
	ErrMissingFields = errors.New("required fields missing")
	// ErrPasswordTooShort is returned when a password fails the minimum
	// length rule.
	ErrPasswordTooShort = errors.New("password below minimum length")
	// ErrPasswordMismatch is returned when the new password and its
	// confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrOTPFormat is returned when a submitted code is not exactly the
	// configured number of numeric digits.
	ErrOTPFormat = errors.New("otp must be numeric digits of the configured length")
)

// Classified Identity Service rejections. Each class implies a
// different next action for the user, so they are distinct contracts,
// not incidental strings.
var (
	// ErrInvalidCredentials is the deliberately generic login rejection;
	// it does not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountUnverified means registration OTP verification was never
	// completed; the remedy is resuming verification, not retrying the
	// password.
	ErrAccountUnverified = errors.New("account email not verified")
	// ErrAccountDeactivated is terminal for the user; the remedy is
	// contacting support.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrEmailExists is returned when registering an address the service
	// already knows.
	ErrEmailExists = errors.New("email already registered")
	// ErrUnknownEmail is returned when a password-reset request names an
	// address the service does not know.
	ErrUnknownEmail = errors.New("email not registered")
	// ErrOTPInvalid covers wrong and expired codes; the flow stays on
	// the OTP step and the entered digits are discarded.
	ErrOTPInvalid = errors.New("invalid or expired otp")
	// ErrOTPResendRateLimited is returned when a resend is requested
	// before the cooldown elapses, locally or per the service.
	ErrOTPResendRateLimited = errors.New("otp resend rate limited")
	// ErrPasswordRejected is a service-side weak-password rejection at
	// the reset step.
	ErrPasswordRejected = errors.New("password rejected by policy")
	// ErrServiceUnavailable is any failure without a structured service
	// response; the remedy is trying again later.
	ErrServiceUnavailable = errors.New("identity service unavailable")
)

// Flow lifecycle errors.
var (
	// ErrFlowBusy is returned when an operation is submitted while a
	// network call for the same flow is still in flight. The duplicate
	// is rejected without issuing a second call.
	ErrFlowBusy = errors.New("flow operation already in flight")
	// ErrFlowState is returned when an operation is not valid in the
	// flow's current state, including operating on no flow at all.
	ErrFlowState = errors.New("operation not valid in current flow state")
	// ErrFlowStale is returned when a flow was superseded or abandoned
	// while its network call was in flight; the result is discarded.
	ErrFlowStale = errors.New("flow superseded")
	// ErrResetNotAuthorized is returned when the new-password step is
	// reached without a verified email+otp pair, e.g. by direct
	// navigation. Callers redirect to the start of the recovery flow.
	ErrResetNotAuthorized = errors.New("password reset not authorized")
	// ErrEngineNotReady is returned when the engine is missing required
	// wiring.
	ErrEngineNotReady = errors.New("engine not initialized")
)
