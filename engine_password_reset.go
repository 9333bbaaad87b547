package clubauth

import (
	"context"
	"errors"
	"strings"
)

// BeginPasswordReset starts the recovery flow for the given address.
// On acceptance the flow moves to FlowAwaitingOTP. An unknown address
// is reported as [ErrUnknownEmail]; the flow does not advance.
func (e *Engine) BeginPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.identity == nil {
		return ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingFields
	}

	e.mu.Lock()
	if e.flow != nil && e.flow.inFlight() {
		e.mu.Unlock()
		return ErrFlowBusy
	}
	f := newFlowInstance(PurposePasswordReset, email)
	e.flow = f
	e.mu.Unlock()

	start := e.now()
	err := e.identity.RequestPasswordReset(ctx, email)
	e.observeIdentity(start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flow != f {
		e.metricInc(MetricFlowStaleDiscard)
		return ErrFlowStale
	}

	if err != nil {
		classified := e.classify(err)
		e.flow = nil
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", email, f.id, classified)
		return classified
	}

	f.state = FlowAwaitingOTP
	f.lastResend = e.now()

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", email, f.id, nil)
	return nil
}

// SubmitResetOTP verifies the recovery code. Success moves the flow to
// FlowAwaitingNewPassword and authorizes the reset step; a rejected
// code returns the flow to FlowAwaitingOTP for re-entry.
func (e *Engine) SubmitResetOTP(ctx context.Context, otp string) error {
	if e == nil || e.identity == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	f := e.flow
	if f == nil || f.purpose != PurposePasswordReset {
		e.mu.Unlock()
		return ErrFlowState
	}
	if f.inFlight() {
		e.mu.Unlock()
		return ErrFlowBusy
	}
	if f.state != FlowAwaitingOTP {
		e.mu.Unlock()
		return ErrFlowState
	}
	if !e.validOTP(otp) {
		e.mu.Unlock()
		return ErrOTPFormat
	}
	f.state = FlowVerifying
	e.mu.Unlock()

	start := e.now()
	err := e.identity.VerifyResetOTP(ctx, f.email, otp)
	e.observeIdentity(start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flow != f {
		e.metricInc(MetricFlowStaleDiscard)
		return ErrFlowStale
	}

	if err != nil {
		classified := e.classify(err)
		f.state = FlowAwaitingOTP
		if errors.Is(classified, ErrOTPInvalid) {
			e.metricInc(MetricResetOTPFailure)
		}
		e.emitAudit(ctx, auditEventPasswordResetOTPVerify, false, "", f.email, f.id, classified)
		return classified
	}

	f.state = FlowAwaitingNewPassword
	f.resetOTP = otp
	f.resetAuthorized = true

	e.metricInc(MetricResetOTPVerified)
	e.emitAudit(ctx, auditEventPasswordResetOTPVerify, true, "", f.email, f.id, nil)
	return nil
}

// SubmitNewPassword completes recovery. The verified code is presented
// to the service again alongside the new password, so both checks must
// pass. Completion leaves the session anonymous; the user signs in with
// the new password.
//
// Reaching this step without a verified email and code pair, for
// example by direct navigation, returns [ErrResetNotAuthorized].
func (e *Engine) SubmitNewPassword(ctx context.Context, password, confirm string) error {
	if e == nil || e.identity == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	f := e.flow
	if f == nil || f.purpose != PurposePasswordReset {
		e.mu.Unlock()
		return ErrResetNotAuthorized
	}
	if f.inFlight() {
		e.mu.Unlock()
		return ErrFlowBusy
	}
	if f.state != FlowAwaitingNewPassword || !f.resetAuthorized {
		e.mu.Unlock()
		return ErrResetNotAuthorized
	}
	if password != confirm {
		e.mu.Unlock()
		return ErrPasswordMismatch
	}
	if len(password) < e.config.Password.MinLength {
		e.mu.Unlock()
		return ErrPasswordTooShort
	}
	f.state = FlowVerifying
	e.mu.Unlock()

	start := e.now()
	err := e.identity.ResetPassword(ctx, f.email, f.resetOTP, password)
	e.observeIdentity(start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flow != f {
		e.metricInc(MetricFlowStaleDiscard)
		return ErrFlowStale
	}

	if err != nil {
		classified := e.classify(err)
		switch {
		case errors.Is(classified, ErrOTPInvalid):
			// The code expired between verification and submission.
			// Authorization is revoked and the user re-verifies.
			f.state = FlowAwaitingOTP
			f.resetOTP = ""
			f.resetAuthorized = false
		default:
			f.state = FlowAwaitingNewPassword
		}
		e.emitAudit(ctx, auditEventPasswordResetComplete, false, "", f.email, f.id, classified)
		return classified
	}

	f.state = FlowCompleted
	f.resetOTP = ""
	e.flow = nil

	e.metricInc(MetricResetComplete)
	e.emitAudit(ctx, auditEventPasswordResetComplete, true, "", f.email, f.id, nil)
	return nil
}
