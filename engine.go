package clubauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ridersclub/clubauth/guard"
	"github.com/ridersclub/clubauth/identity"
	"github.com/ridersclub/clubauth/session"
)

// Engine drives the credential flows against the Identity Service and
// owns the single active flow instance. All methods are safe for
// concurrent use; at most one network call per flow is in flight at a
// time, and duplicates are rejected with [ErrFlowBusy].
type Engine struct {
	config   Config
	identity identity.Client
	sessions *session.Store
	guardian *guard.Guard
	intents  *guard.IntentStore
	audit    *auditDispatcher
	metrics  *Metrics

	mu            sync.Mutex
	flow          *flowInstance
	loginInFlight bool

	timeNow func() time.Time
}

// Sessions exposes the session store for subscribers and the route
// guard.
func (e *Engine) Sessions() *session.Store {
	if e == nil {
		return nil
	}
	return e.sessions
}

// Guard exposes the route guard wired to this engine's session store.
func (e *Engine) Guard() *guard.Guard {
	if e == nil {
		return nil
	}
	return e.guardian
}

// Close stops the audit worker after draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e.timeNow != nil {
		return e.timeNow()
	}
	return time.Now()
}

// FlowStatus snapshots the active flow for rendering the current step.
// With no active flow it reports FlowIdle.
func (e *Engine) FlowStatus() FlowStatus {
	if e == nil {
		return FlowStatus{State: FlowIdle, Purpose: PurposeNone}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flow == nil {
		return FlowStatus{State: FlowIdle, Purpose: PurposeNone}
	}
	return FlowStatus{
		State:   e.flow.state,
		Purpose: e.flow.purpose,
		Email:   e.flow.email,
	}
}

// Abandon discards the active flow. A network call already in flight
// for that flow keeps running but its result is discarded when it
// returns. Abandoning with no active flow is a no-op.
func (e *Engine) Abandon() {
	if e == nil {
		return
	}

	e.mu.Lock()
	had := e.flow != nil
	e.flow = nil
	e.mu.Unlock()

	if had {
		e.metricInc(MetricFlowAbandoned)
	}
}

// Restore rehydrates the session from durable storage, typically once
// at startup. A missing, corrupt, or locally expired record leaves the
// session anonymous without error.
func (e *Engine) Restore(ctx context.Context) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.Load(ctx); err != nil {
		return err
	}

	sess := e.sessions.Current()
	if sess.Authenticated() {
		e.metricInc(MetricSessionRestored)
		e.emitAudit(ctx, auditEventSessionRestored, true, sess.Identity.UserID, sess.Identity.Email, "", nil)
	}
	return nil
}

// Login performs the single-step credential exchange. On success the
// session becomes authenticated, subscribers are notified, and the
// returned RedirectTo is the consumed navigation intent when one was
// pending, else the configured post-login path. Failures come back as
// one of the classified sentinels.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || e.identity == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	e.mu.Lock()
	if e.loginInFlight {
		e.mu.Unlock()
		return nil, ErrFlowBusy
	}
	e.loginInFlight = true
	e.mu.Unlock()

	start := e.now()
	creds, err := e.identity.Login(ctx, email, password)
	e.observeIdentity(start)

	e.mu.Lock()
	e.loginInFlight = false
	e.mu.Unlock()

	if err != nil {
		classified := e.classify(err)
		e.countLoginFailure(classified)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, "", classified)
		return nil, classified
	}

	ident := session.Identity{
		UserID:   creds.Account.UserID,
		Email:    creds.Account.Email,
		FullName: creds.Account.FullName,
		Role:     creds.Account.Role,
	}

	// Persistence failure never blocks authentication; the session is
	// live in memory and will simply not survive a restart.
	var persistNote string
	if err := e.sessions.SetAuthenticated(ctx, ident, creds.Token, creds.ExpiresAt); err != nil {
		if !errors.Is(err, session.ErrPersist) {
			return nil, err
		}
		persistNote = err.Error()
	}

	// A successful login supersedes any pending registration or
	// recovery flow.
	e.mu.Lock()
	e.flow = nil
	e.mu.Unlock()

	redirect := e.config.Flow.DefaultPostLoginPath
	if e.intents != nil {
		if intent, ok := e.intents.Consume(); ok {
			redirect = intent.TargetPath
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, ident.UserID, ident.Email, "", nil, func(m map[string]string) {
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

// Logout clears the session and any pending flow or navigation intent.
// Idempotent: logging out an anonymous session still succeeds.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	e.flow = nil
	e.mu.Unlock()

	if e.intents != nil {
		e.intents.Discard()
	}

	if err := e.sessions.Clear(ctx); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", "", "", nil)
	return nil
}

func (e *Engine) countLoginFailure(err error) {
	switch {
	case errors.Is(err, ErrAccountUnverified):
		e.metricInc(MetricLoginUnverified)
	case errors.Is(err, ErrAccountDeactivated):
		e.metricInc(MetricLoginDeactivated)
	case errors.Is(err, ErrServiceUnavailable):
		e.metricInc(MetricLoginUnavailable)
	default:
		e.metricInc(MetricLoginFailure)
	}
}

func (e *Engine) observeIdentity(start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricIdentityLatency, e.now().Sub(start))
}

// classify maps an Identity Service failure onto the package sentinels.
// Unknown structured codes and transport failures both land on
// ErrServiceUnavailable.
func (e *Engine) classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *identity.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case identity.CodeInvalidCredentials:
			return ErrInvalidCredentials
		case identity.CodeUnverifiedEmail:
			return ErrAccountUnverified
		case identity.CodeAccountDeactivated:
			return ErrAccountDeactivated
		case identity.CodeDuplicateEmail:
			return ErrEmailExists
		case identity.CodeUnknownEmail:
			return ErrUnknownEmail
		case identity.CodeInvalidOTP, identity.CodeExpiredOTP:
			return ErrOTPInvalid
		case identity.CodeRateLimited:
			return ErrOTPResendRateLimited
		case identity.CodeWeakPassword:
			return ErrPasswordRejected
		case identity.CodeValidationFailed:
			return ErrMissingFields
		default:
			return ErrServiceUnavailable
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return ErrServiceUnavailable
}

// validOTP enforces the local digit format before any network call.
func (e *Engine) validOTP(otp string) bool {
	if len(otp) != e.config.Flow.OTPDigits {
		return false
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
