package clubauth

import (
	"context"
	"errors"
	"strings"

	"github.com/ridersclub/clubauth/identity"
	"github.com/ridersclub/clubauth/session"
)

// BeginRegistration submits the registration form and, on acceptance,
// moves the flow to FlowAwaitingOTP. Beginning a new flow supersedes
// any previous one; a begin while this flow's own call is in flight
// returns [ErrFlowBusy].
func (e *Engine) BeginRegistration(ctx context.Context, input RegistrationInput) error {
	if e == nil || e.identity == nil {
		return ErrEngineNotReady
	}

	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	if input.FullName == "" || input.Email == "" || input.Password == "" {
		return ErrMissingFields
	}
	if len(input.Password) < e.config.Password.MinLength {
		return ErrPasswordTooShort
	}

	e.mu.Lock()
	if e.flow != nil && e.flow.inFlight() {
		e.mu.Unlock()
		return ErrFlowBusy
	}
	f := newFlowInstance(PurposeRegistration, input.Email)
	e.flow = f
	e.mu.Unlock()

	start := e.now()
	err := e.identity.Register(ctx, identity.RegisterRequest{
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
		Profile:  input.Profile,
	})
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
		e.emitAudit(ctx, auditEventRegistrationRequest, false, "", input.Email, f.id, classified)
		return classified
	}

	f.state = FlowAwaitingOTP
	f.lastResend = e.now()

	e.metricInc(MetricRegistrationRequest)
	e.emitAudit(ctx, auditEventRegistrationRequest, true, "", input.Email, f.id, nil)
	return nil
}

// SubmitRegistrationOTP verifies the emailed code. Success completes
// the flow and authenticates the session; a rejected code returns the
// flow to FlowAwaitingOTP for re-entry.
func (e *Engine) SubmitRegistrationOTP(ctx context.Context, otp string) (*LoginResult, error) {
	if e == nil || e.identity == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	e.mu.Lock()
	f := e.flow
	if f == nil || f.purpose != PurposeRegistration {
		e.mu.Unlock()
		return nil, ErrFlowState
	}
	if f.inFlight() {
		e.mu.Unlock()
		return nil, ErrFlowBusy
	}
	if f.state != FlowAwaitingOTP {
		e.mu.Unlock()
		return nil, ErrFlowState
	}
	if !e.validOTP(otp) {
		e.mu.Unlock()
		return nil, ErrOTPFormat
	}
	f.state = FlowVerifying
	e.mu.Unlock()

	start := e.now()
	creds, err := e.identity.VerifyRegistrationOTP(ctx, f.email, otp)
	e.observeIdentity(start)

	e.mu.Lock()
	if e.flow != f {
		e.mu.Unlock()
		e.metricInc(MetricFlowStaleDiscard)
		return nil, ErrFlowStale
	}

	if err != nil {
		classified := e.classify(err)
		// Wrong code and transient failure both leave the flow on the
		// OTP step with the entered digits discarded.
		f.state = FlowAwaitingOTP
		e.mu.Unlock()
		if errors.Is(classified, ErrOTPInvalid) {
			e.metricInc(MetricRegistrationOTPFailure)
		}
		e.emitAudit(ctx, auditEventRegistrationOTPVerify, false, "", f.email, f.id, classified)
		return nil, classified
	}

	f.state = FlowCompleted
	e.flow = nil
	e.mu.Unlock()

	ident := session.Identity{
		UserID:   creds.Account.UserID,
		Email:    creds.Account.Email,
		FullName: creds.Account.FullName,
		Role:     creds.Account.Role,
	}

	var persistNote string
	if err := e.sessions.SetAuthenticated(ctx, ident, creds.Token, creds.ExpiresAt); err != nil {
		if !errors.Is(err, session.ErrPersist) {
			return nil, err
		}
		persistNote = err.Error()
	}

	redirect := e.config.Flow.DefaultPostLoginPath
	if e.intents != nil {
		if intent, ok := e.intents.Consume(); ok {
			redirect = intent.TargetPath
		}
	}

	e.metricInc(MetricRegistrationVerified)
	e.emitAudit(ctx, auditEventRegistrationOTPVerify, true, ident.UserID, ident.Email, f.id, nil, func(m map[string]string) {
		m["redirect_to"] = redirect
		if persistNote != "" {
			m["persist_error"] = persistNote
		}
	})

	return &LoginResult{
		Identity:   ident,
		RedirectTo: redirect,
	}, nil
}

// ResendOTP asks the service to send a fresh code for the active flow.
// A local cooldown rejects rapid repeats before any network call; the
// service applies its own limit on top.
func (e *Engine) ResendOTP(ctx context.Context) error {
	if e == nil || e.identity == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	f := e.flow
	if f == nil || f.state != FlowAwaitingOTP {
		e.mu.Unlock()
		return ErrFlowState
	}
	if e.now().Sub(f.lastResend) < e.config.Flow.ResendCooldown {
		e.mu.Unlock()
		e.metricInc(MetricOTPResendRateLimited)
		return ErrOTPResendRateLimited
	}

	// Stamp before the call so a concurrent duplicate hits the
	// cooldown instead of issuing a second request.
	previous := f.lastResend
	f.lastResend = e.now()

	purpose := identity.PurposeRegistration
	if f.purpose == PurposePasswordReset {
		purpose = identity.PurposePasswordReset
	}
	e.mu.Unlock()

	start := e.now()
	err := e.identity.ResendOTP(ctx, f.email, purpose)
	e.observeIdentity(start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flow != f {
		e.metricInc(MetricFlowStaleDiscard)
		return ErrFlowStale
	}

	if err != nil {
		classified := e.classify(err)
		if errors.Is(classified, ErrServiceUnavailable) {
			// The send never happened; let the user retry immediately.
			f.lastResend = previous
		}
		if errors.Is(classified, ErrOTPResendRateLimited) {
			e.metricInc(MetricOTPResendRateLimited)
		}
		e.emitAudit(ctx, auditEventOTPResend, false, "", f.email, f.id, classified)
		return classified
	}

	e.metricInc(MetricOTPResend)
	e.emitAudit(ctx, auditEventOTPResend, true, "", f.email, f.id, nil)
	return nil
}
