package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "github.com/dmitrijs2005/hireloop/internal/client/client"
	maxResponseBytes = 1 << 20
)

// envelope is the JSON shape of every credential store response.
type envelope struct {
	Success     *bool           `json:"success,omitempty"`
	Message     string          `json:"message,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	BackupCodes []string        `json:"backupCodes,omitempty"`
}

type authPayload struct {
	User               models.Identity `json:"user"`
	Token              string          `json:"token"`
	RequiresOnboarding bool            `json:"requiresOnboarding"`
}

// HTTPClient talks to the credential store JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	tracer  trace.Tracer
}

// NewHTTPClient builds a client for serverURL (scheme://host[:port]).
// timeout bounds every request end to end; tokens may be nil when only
// anonymous operations are used.
func NewHTTPClient(serverURL string, timeout time.Duration, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(serverURL, "/") + common.APIBasePath,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		tracer:  otel.Tracer(tracerName),
	}
}

type call struct {
	method   string
	path     string
	body     any
	auth     bool
	fallback string
}

type response struct {
	status int
	env    envelope
}

func (r *response) ok() bool {
	if r.status < 200 || r.status >= 300 {
		return false
	}
	return r.env.Success == nil || *r.env.Success
}

func (c *HTTPClient) send(ctx context.Context, cl call) (*response, error) {
	ctx, span := c.tracer.Start(ctx, "credentialstore "+cl.path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", cl.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", cl.path, err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	if cl.auth {
		var token string
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		// no session, nothing to send
		if token == "" {
			return nil, ErrUnauthorized
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	out := &response{status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out.env); err != nil {
		// A non-JSON error page still counts as a rejection with the fallback text.
		if out.ok() {
			return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		out.env = envelope{}
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, cl call) (*response, error) {
	r, err := c.send(ctx, cl)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, rejection(cl, r)
	}
	return r, nil
}

func rejection(cl call, r *response) error {
	if cl.auth && r.status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	msg := r.env.Message
	if msg == "" {
		msg = cl.fallback
	}
	return &APIError{Status: r.status, Message: msg}
}

func decodeData(r *response, v any) error {
	if len(r.env.Data) == 0 {
		return fmt.Errorf("%w: response has no data", ErrUnavailable)
	}
	if err := json.Unmarshal(r.env.Data, v); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrUnavailable, err)
	}
	return nil
}

func decodeSession(r *response) (authPayload, models.Session, error) {
	var p authPayload
	if err := decodeData(r, &p); err != nil {
		return p, models.Session{}, err
	}
	s := models.Session{Token: p.Token, Identity: p.User}
	if err := s.Validate(); err != nil {
		return p, models.Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return p, s, nil
}

// decodeSignIn turns a sign-in style response into a SignInResult. Sentinels
// are checked before anything is treated as a rejection.
func decodeSignIn(r *response, role models.Role, fallback string) (SignInResult, error) {
	if !r.ok() {
		switch r.env.Message {
		case sentinelRequires2FA:
			return SignInResult{Kind: SignInNeedsSecondFactor, Role: role}, nil
		case sentinelRequiresOnboarding:
			return SignInResult{Kind: SignInNeedsOnboarding, Role: role}, nil
		}
		reason := r.env.Message
		if reason == "" {
			reason = fallback
		}
		return SignInResult{Kind: SignInRejected, Reason: reason}, nil
	}

	_, s, err := decodeSession(r)
	if err != nil {
		return SignInResult{}, err
	}
	return SignInResult{Kind: SignInAuthenticated, Session: s}, nil
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	_, err := c.do(ctx, call{method: http.MethodPost, path: "/register", body: req, fallback: "Registration failed"})
	return err
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, code string, role models.Role) (*VerifyOTPResult, error) {
	body := map[string]string{"email": email, "otp": code, "role": string(role)}
	r, err := c.do(ctx, call{method: http.MethodPost, path: "/verify-otp", body: body, fallback: "Verification failed"})
	if err != nil {
		return nil, err
	}
	p, s, err := decodeSession(r)
	if err != nil {
		return nil, err
	}
	return &VerifyOTPResult{Session: s, RequiresOnboarding: p.RequiresOnboarding}, nil
}

func (c *HTTPClient) ResendOTP(ctx context.Context, email string, purpose OTPPurpose) error {
	body := map[string]string{"email": email, "purpose": string(purpose)}
	_, err := c.do(ctx, call{method: http.MethodPost, path: "/resend-otp", body: body, fallback: "Failed to resend code"})
	return err
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string, role models.Role) (SignInResult, error) {
	const fallback = "Sign in failed"
	body := map[string]string{"email": email, "password": password, "role": string(role)}
	r, err := c.send(ctx, call{method: http.MethodPost, path: "/signin", body: body, fallback: fallback})
	if err != nil {
		return SignInResult{}, err
	}
	return decodeSignIn(r, role, fallback)
}

func (c *HTTPClient) VerifySecondFactor(ctx context.Context, proof SecondFactorProof) (SignInResult, error) {
	const fallback = "Verification failed"
	r, err := c.send(ctx, call{method: http.MethodPost, path: "/verify-2fa", body: proof, fallback: fallback})
	if err != nil {
		return SignInResult{}, err
	}
	res, err := decodeSignIn(r, proof.Role, fallback)
	if err != nil {
		return SignInResult{}, err
	}
	// a second REQUIRES_2FA here means the code did not satisfy the challenge
	if res.Kind == SignInNeedsSecondFactor {
		return SignInResult{Kind: SignInRejected, Reason: fallback}, nil
	}
	return res, nil
}

func (c *HTTPClient) EnableSecondFactor(ctx context.Context) error {
	_, err := c.do(ctx, call{method: http.MethodPost, path: "/enable-2fa", auth: true, fallback: "Failed to initiate 2FA setup"})
	return err
}

func (c *HTTPClient) VerifySecondFactorSetup(ctx context.Context, code string) ([]string, error) {
	body := map[string]string{"otp": code}
	r, err := c.do(ctx, call{method: http.MethodPost, path: "/verify-2fa-setup", body: body, auth: true, fallback: "Invalid verification code"})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), r.env.BackupCodes...), nil
}

func (c *HTTPClient) DisableSecondFactor(ctx context.Context) error {
	_, err := c.do(ctx, call{method: http.MethodPost, path: "/disable-2fa", auth: true, fallback: "Failed to disable 2FA"})
	return err
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, password string) error {
	body := map[string]string{"password": password}
	_, err := c.do(ctx, call{method: http.MethodPost, path: "/delete-account", body: body, auth: true, fallback: "Failed to delete account"})
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*models.Identity, error) {
	r, err := c.do(ctx, call{method: http.MethodGet, path: "/me", auth: true, fallback: "Failed to load profile"})
	if err != nil {
		return nil, err
	}
	var ident models.Identity
	if err := decodeData(r, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	_, err := c.do(ctx, call{method: http.MethodPut, path: "/change-password", body: body, auth: true, fallback: "Failed to change password"})
	return err
}
