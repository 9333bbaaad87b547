package clubauth

import (
	"context"
	"time"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLogout                 = "logout"
	auditEventRegistrationRequest    = "registration_request"
	auditEventRegistrationOTPVerify  = "registration_otp_verify"
	auditEventOTPResend              = "otp_resend"
	auditEventPasswordResetRequest   = "password_reset_request"
	auditEventPasswordResetOTPVerify = "password_reset_otp_verify"
	auditEventPasswordResetComplete  = "password_reset_complete"
	auditEventSessionRestored        = "session_restored"
)

// emitAudit builds and queues one event. The optional meta funcs fill
// the metadata map; err, when set, becomes the event's error string.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	flowID string,
	err error,
	meta ...func(map[string]string),
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if len(meta) > 0 {
		metadata = make(map[string]string)
		for _, fn := range meta {
			if fn != nil {
				fn(metadata)
			}
		}
		if len(metadata) == 0 {
			metadata = nil
		}
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		FlowID:    flowID,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}
