package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// HTTPClient implements [Client] against a base URL.
type HTTPClient struct {
	base   string
	client *http.Client
}

// NewHTTPClient creates a client rooted at baseURL. A nil httpClient
// falls back to [http.DefaultClient].
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		base:   strings.TrimRight(baseURL, "/"),
		client: httpClient,
	}
}

// Register submits the registration form. Success is an acknowledgement
// only; the service mails the OTP out of band.
func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	return c.post(ctx, "/auth/register", req, nil)
}

// ResendOTP re-requests an OTP email for the given address and purpose.
func (c *HTTPClient) ResendOTP(ctx context.Context, email, purpose string) error {
	body := struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}{email, purpose}
	return c.post(ctx, "/auth/otp/resend", body, nil)
}

// VerifyRegistrationOTP confirms the emailed code and returns issued
// credentials on success.
func (c *HTTPClient) VerifyRegistrationOTP(ctx context.Context, email, otp string) (*Credentials, error) {
	body := struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}{email, otp}
	var creds Credentials
	if err := c.post(ctx, "/auth/register/verify", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Login exchanges email+password for issued credentials.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var creds Credentials
	if err := c.post(ctx, "/auth/login", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// RequestPasswordReset asks the service to mail a reset OTP.
func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{email}
	return c.post(ctx, "/auth/password/forgot", body, nil)
}

// VerifyResetOTP checks a reset code. Success is an acknowledgement, not
// a token; the same email+otp pair must accompany the reset call.
func (c *HTTPClient) VerifyResetOTP(ctx context.Context, email, otp string) error {
	body := struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}{email, otp}
	return c.post(ctx, "/auth/password/verify", body, nil)
}

// ResetPassword sets a new password, re-presenting the verified OTP for
// a second server-side check.
func (c *HTTPClient) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	body := struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}{email, otp, newPassword}
	return c.post(ctx, "/auth/password/reset", body, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: malformed success body: %v", ErrUnreachable, err)
		}
		return nil
	}

	return decodeErrorResponse(resp)
}

func decodeErrorResponse(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%w: reading error body: %v", ErrUnreachable, err)
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Code == "" {
		// No structured payload: a proxy error page, a crash, anything
		// but the service saying "no". Surfaced as unavailability.
		return fmt.Errorf("%w: status %d without structured error", ErrUnreachable, resp.StatusCode)
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    payload.Code,
		Message: payload.Message,
	}
}
