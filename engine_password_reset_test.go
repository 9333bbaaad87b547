package clubauth

import (
	"context"
	"errors"
	"testing"
)

func TestPasswordResetHappyPath(t *testing.T) {
	fake := newFakeIdentity()
	engine := newTestEngine(t, fake)

	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}

	status := engine.FlowStatus()
	if status.State != FlowAwaitingOTP || status.Purpose != PurposePasswordReset {
		t.Fatalf("status after begin = %+v", status)
	}

	if err := engine.SubmitResetOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitResetOTP failed: %v", err)
	}
	if engine.FlowStatus().State != FlowAwaitingNewPassword {
		t.Fatalf("state = %v, want FlowAwaitingNewPassword", engine.FlowStatus().State)
	}

	if err := engine.SubmitNewPassword(context.Background(), "new-secret", "new-secret"); err != nil {
		t.Fatalf("SubmitNewPassword failed: %v", err)
	}

	// Recovery never authenticates; the user signs in afterwards.
	if engine.Sessions().Current().Authenticated() {
		t.Fatal("session authenticated by password reset")
	}
	if engine.FlowStatus().State != FlowIdle {
		t.Fatalf("flow not idle after completion: %v", engine.FlowStatus().State)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	fake := newFakeIdentity()
	fake.resetReqErr = apiErr(404, "unknown_email")
	engine := newTestEngine(t, fake)

	err := engine.BeginPasswordReset(context.Background(), "nobody@club.test")
	if !errors.Is(err, ErrUnknownEmail) {
		t.Fatalf("err = %v, want ErrUnknownEmail", err)
	}
	if engine.FlowStatus().State != FlowIdle {
		t.Fatalf("flow advanced on unknown email: %v", engine.FlowStatus().State)
	}
}

func TestNewPasswordRequiresVerifiedOTP(t *testing.T) {
	fake := newFakeIdentity()
	engine := newTestEngine(t, fake)

	// No flow at all, as with direct navigation to the reset form.
	if err := engine.SubmitNewPassword(context.Background(), "new-secret", "new-secret"); !errors.Is(err, ErrResetNotAuthorized) {
		t.Fatalf("no flow: err = %v, want ErrResetNotAuthorized", err)
	}

	// Flow exists but the code was never verified.
	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}
	if err := engine.SubmitNewPassword(context.Background(), "new-secret", "new-secret"); !errors.Is(err, ErrResetNotAuthorized) {
		t.Fatalf("unverified: err = %v, want ErrResetNotAuthorized", err)
	}
	if got := fake.count("reset"); got != 0 {
		t.Fatalf("reset reached the service %d times without authorization", got)
	}
}

func TestNewPasswordLocalValidation(t *testing.T) {
	fake := newFakeIdentity()
	engine := newTestEngine(t, fake)

	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}
	if err := engine.SubmitResetOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitResetOTP failed: %v", err)
	}

	if err := engine.SubmitNewPassword(context.Background(), "new-secret", "different"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("mismatch: err = %v", err)
	}
	if err := engine.SubmitNewPassword(context.Background(), "abc", "abc"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short: err = %v", err)
	}

	if got := fake.count("reset"); got != 0 {
		t.Fatalf("reset called %d times for local validation failures", got)
	}
	if engine.FlowStatus().State != FlowAwaitingNewPassword {
		t.Fatalf("state changed by local validation: %v", engine.FlowStatus().State)
	}
}

func TestResetOTPRejectedAllowsReentry(t *testing.T) {
	fake := newFakeIdentity()
	fake.verifyResetErr = apiErr(400, "expired_otp")
	engine := newTestEngine(t, fake)

	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}
	if err := engine.SubmitResetOTP(context.Background(), "123456"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("err = %v, want ErrOTPInvalid", err)
	}
	if engine.FlowStatus().State != FlowAwaitingOTP {
		t.Fatalf("state = %v, want FlowAwaitingOTP", engine.FlowStatus().State)
	}

	fake.verifyResetErr = nil
	if err := engine.SubmitResetOTP(context.Background(), "654321"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if engine.FlowStatus().State != FlowAwaitingNewPassword {
		t.Fatalf("state = %v after retry", engine.FlowStatus().State)
	}
}

func TestWeakPasswordStaysOnPasswordStep(t *testing.T) {
	fake := newFakeIdentity()
	fake.resetErr = apiErr(422, "weak_password")
	engine := newTestEngine(t, fake)

	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}
	if err := engine.SubmitResetOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitResetOTP failed: %v", err)
	}

	if err := engine.SubmitNewPassword(context.Background(), "password", "password"); !errors.Is(err, ErrPasswordRejected) {
		t.Fatalf("err = %v, want ErrPasswordRejected", err)
	}
	if engine.FlowStatus().State != FlowAwaitingNewPassword {
		t.Fatalf("state = %v, want FlowAwaitingNewPassword", engine.FlowStatus().State)
	}

	// A stronger password on the same flow completes it.
	fake.resetErr = nil
	if err := engine.SubmitNewPassword(context.Background(), "much-stronger-9", "much-stronger-9"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestExpiredCodeAtResetStepRevokesAuthorization(t *testing.T) {
	fake := newFakeIdentity()
	fake.resetErr = apiErr(400, "expired_otp")
	engine := newTestEngine(t, fake)

	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}
	if err := engine.SubmitResetOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("SubmitResetOTP failed: %v", err)
	}

	if err := engine.SubmitNewPassword(context.Background(), "new-secret", "new-secret"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("err = %v, want ErrOTPInvalid", err)
	}
	if engine.FlowStatus().State != FlowAwaitingOTP {
		t.Fatalf("state = %v, want FlowAwaitingOTP after expiry", engine.FlowStatus().State)
	}

	// The revoked authorization blocks a direct retry of the password
	// step.
	if err := engine.SubmitNewPassword(context.Background(), "new-secret", "new-secret"); !errors.Is(err, ErrResetNotAuthorized) {
		t.Fatalf("retry err = %v, want ErrResetNotAuthorized", err)
	}
}

func TestBeginResetSupersedesRegistration(t *testing.T) {
	fake := newFakeIdentity()
	engine := newTestEngine(t, fake)

	if err := engine.BeginRegistration(context.Background(), validRegistration()); err != nil {
		t.Fatalf("BeginRegistration failed: %v", err)
	}
	if err := engine.BeginPasswordReset(context.Background(), "alice@club.test"); err != nil {
		t.Fatalf("BeginPasswordReset failed: %v", err)
	}

	status := engine.FlowStatus()
	if status.Purpose != PurposePasswordReset {
		t.Fatalf("purpose = %v, want PurposePasswordReset", status.Purpose)
	}

	// The superseded registration flow no longer accepts its code.
	if _, err := engine.SubmitRegistrationOTP(context.Background(), "123456"); !errors.Is(err, ErrFlowState) {
		t.Fatalf("registration submit err = %v, want ErrFlowState", err)
	}
}
