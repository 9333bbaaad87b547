package clubauth

import (
	"time"

	"github.com/google/uuid"
)

// FlowState names a position in a credential flow's state machine.
type FlowState uint8

const (
	// FlowIdle means no flow is active.
	FlowIdle FlowState = iota
	// FlowSubmitting means the initial request is in flight.
	FlowSubmitting
	// FlowAwaitingOTP means the service acknowledged the request and an
	// OTP email is (presumed) on its way.
	FlowAwaitingOTP
	// FlowVerifying means an OTP submission is in flight.
	FlowVerifying
	// FlowAwaitingNewPassword is recovery-only: the OTP verified and the
	// new password has not been submitted yet.
	FlowAwaitingNewPassword
	// FlowCompleted is terminal. Registration completion authenticates
	// the session; recovery completion redirects to login instead.
	FlowCompleted
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowSubmitting:
		return "submitting"
	case FlowAwaitingOTP:
		return "awaiting_otp"
	case FlowVerifying:
		return "verifying"
	case FlowAwaitingNewPassword:
		return "awaiting_new_password"
	case FlowCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// FlowPurpose distinguishes the two multi-step flows.
type FlowPurpose uint8

const (
	// PurposeNone means no flow is active.
	PurposeNone FlowPurpose = iota
	// PurposeRegistration is the register → verify → authenticated flow.
	PurposeRegistration
	// PurposePasswordReset is the forgot → verify → reset flow.
	PurposePasswordReset
)

func (p FlowPurpose) String() string {
	switch p {
	case PurposeRegistration:
		return "registration"
	case PurposePasswordReset:
		return "password-reset"
	default:
		return "none"
	}
}

// FlowStatus is a read-only snapshot of the active flow, for rendering
// the right step and for tests.
type FlowStatus struct {
	State   FlowState
	Purpose FlowPurpose
	Email   string
}

// flowInstance is the single active flow. Exactly one exists per
// engine at a time; beginning a flow of either purpose replaces any
// previous instance, which makes the old one stale (its in-flight
// results are discarded on return).
type flowInstance struct {
	id      string
	purpose FlowPurpose
	state   FlowState
	email   string

	// resetOTP and resetAuthorized gate the new-password step: the
	// verified code is re-presented to the service, which checks it a
	// second time. Both verification calls are treated as independently
	// authoritative.
	resetOTP        string
	resetAuthorized bool

	lastResend time.Time
}

func newFlowInstance(purpose FlowPurpose, email string) *flowInstance {
	return &flowInstance{
		id:      uuid.NewString(),
		purpose: purpose,
		state:   FlowSubmitting,
		email:   email,
	}
}

func (f *flowInstance) inFlight() bool {
	return f.state == FlowSubmitting || f.state == FlowVerifying
}
