package flows

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn_Authenticated(t *testing.T) {
	h := newHarness(t)
	h.store.SignInRes = client.SignInResult{Kind: client.SignInAuthenticated, Session: models.Session{Token: "tok-e", Identity: employer()}}
	s := NewSignIn(h.deps)

	require.NoError(t, s.Submit(context.Background(), " boss@example.com ", "pw", models.RoleEmployer))

	assert.Equal(t, SignInAuthenticated, s.View().State)
	assert.Equal(t, [3]string{"boss@example.com", "pw", "employer"}, h.store.LastSignIn)
	assert.Equal(t, "tok-e", h.holder.Token())
	last, _ := h.nav.Last()
	assert.Equal(t, nav.Route{Destination: nav.RecruiterDashboard, Role: models.RoleEmployer}, last)
	assert.Nil(t, s.Challenge())
}

func TestSignIn_RequiresSecondFactor(t *testing.T) {
	h := newHarness(t)
	h.store.SignInRes = client.SignInResult{Kind: client.SignInNeedsSecondFactor, Role: models.RoleJobSeeker}
	s := NewSignIn(h.deps)

	err := s.Submit(context.Background(), "jane@example.com", "pw", models.RoleJobSeeker)
	require.NoError(t, err)

	v := s.View()
	assert.Equal(t, SignInAwaitingSecondFactor, v.State)
	assert.Nil(t, v.Err)

	// no token anywhere
	_, ok := h.holder.Current()
	assert.False(t, ok)
	assert.Empty(t, h.holder.Token())
	assert.Empty(t, h.storedToken(t))

	assert.Equal(t, []nav.Route{{Destination: nav.VerifySecondFactor, Role: models.RoleJobSeeker}}, h.nav.Routes())

	c := s.Challenge()
	require.NotNil(t, c)
	assert.Equal(t, "jane@example.com", c.View().Email)
	assert.Equal(t, models.RoleJobSeeker, c.View().Role)
}

func TestSignIn_RequiresOnboarding(t *testing.T) {
	h := newHarness(t)
	h.store.SignInRes = client.SignInResult{Kind: client.SignInNeedsOnboarding, Role: models.RoleEmployer}
	s := NewSignIn(h.deps)

	require.NoError(t, s.Submit(context.Background(), "boss@example.com", "pw", models.RoleEmployer))

	assert.Equal(t, SignInAwaitingOnboarding, s.View().State)
	assert.Empty(t, h.holder.Token())
	last, _ := h.nav.Last()
	assert.Equal(t, nav.Route{Destination: nav.RecruiterOnboard, Role: models.RoleEmployer}, last)
}

func TestSignIn_OnboardingForJobSeekerIsRejected(t *testing.T) {
	h := newHarness(t)
	h.store.SignInRes = client.SignInResult{Kind: client.SignInNeedsOnboarding, Role: models.RoleJobSeeker}
	s := NewSignIn(h.deps)

	err := s.Submit(context.Background(), "jane@example.com", "pw", models.RoleJobSeeker)
	require.Error(t, err)
	assert.Equal(t, SignInFormEntry, s.View().State)
	assert.Empty(t, h.nav.Routes())
}

func TestSignIn_RejectedShowsReason(t *testing.T) {
	h := newHarness(t)
	h.store.SignInRes = client.SignInResult{Kind: client.SignInRejected, Reason: "Invalid email or password"}
	s := NewSignIn(h.deps)

	err := s.Submit(context.Background(), "jane@example.com", "bad", models.RoleJobSeeker)
	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Invalid email or password", fe.Message)
	assert.Equal(t, SignInFormEntry, s.View().State)
	assert.Empty(t, h.nav.Routes())
	assert.Empty(t, h.holder.Token())
}

func TestSignIn_TransportFailure(t *testing.T) {
	h := newHarness(t)
	h.store.SignInErr = fmt.Errorf("%w: dial tcp: refused", client.ErrUnavailable)
	s := NewSignIn(h.deps)

	err := s.Submit(context.Background(), "jane@example.com", "pw", models.RoleJobSeeker)
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, "Sign in failed", err.Error())
	assert.Empty(t, h.nav.Routes())
}

func TestSignIn_LocalValidation(t *testing.T) {
	h := newHarness(t)
	s := NewSignIn(h.deps)
	ctx := context.Background()

	var ve *ValidationError
	require.ErrorAs(t, s.Submit(ctx, "", "pw", models.RoleJobSeeker), &ve)
	require.ErrorAs(t, s.Submit(ctx, "a@b.c", "", models.RoleJobSeeker), &ve)
	require.ErrorAs(t, s.Submit(ctx, "a@b.c", "pw", ""), &ve)
	assert.Zero(t, h.store.Total())
}

func TestSignIn_DoubleSubmitMakesOneCall(t *testing.T) {
	h := newHarness(t)
	h.store.block = make(chan struct{})
	h.store.entered = make(chan struct{}, 1)
	h.store.SignInRes = client.SignInResult{Kind: client.SignInAuthenticated, Session: models.Session{Token: "t", Identity: jobSeeker()}}
	s := NewSignIn(h.deps)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Submit(ctx, "jane@example.com", "pw", models.RoleJobSeeker) }()

	select {
	case <-h.store.entered:
	case <-time.After(time.Second):
		t.Fatal("first submit never reached the store")
	}
	assert.True(t, s.Loading())
	assert.Equal(t, SignInSubmitting, s.View().State)

	err := s.Submit(ctx, "jane@example.com", "pw", models.RoleJobSeeker)
	require.ErrorIs(t, err, ErrInFlight)

	close(h.store.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, h.store.Calls("signin"))
	assert.False(t, s.Loading())
	assert.Len(t, h.nav.Routes(), 1)
}

func TestSignIn_TimeoutIsTransportFailure(t *testing.T) {
	h := newHarness(t)
	h.store.block = make(chan struct{})
	h.deps.Timeout = 20 * time.Millisecond
	s := NewSignIn(h.deps)

	err := s.Submit(context.Background(), "jane@example.com", "pw", models.RoleJobSeeker)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Sign in failed", err.Error())
	assert.False(t, s.Loading())
	assert.Empty(t, h.holder.Token())
}

func TestSignIn_ForgotPassword(t *testing.T) {
	h := newHarness(t)
	s := NewSignIn(h.deps)

	s.ForgotPassword(context.Background(), models.RoleEmployer)
	last, _ := h.nav.Last()
	assert.Equal(t, nav.Route{Destination: nav.ForgotPassword, Role: models.RoleEmployer}, last)
	assert.Zero(t, h.store.Total())
}

func challengeFor(t *testing.T, h *harness, role models.Role) *Challenge {
	t.Helper()
	h.store.SignInRes = client.SignInResult{Kind: client.SignInNeedsSecondFactor, Role: role}
	s := NewSignIn(h.deps)
	require.NoError(t, s.Submit(context.Background(), "jane@example.com", "pw", role))
	c := s.Challenge()
	require.NotNil(t, c)
	return c
}

func TestChallenge_VerifyCode(t *testing.T) {
	h := newHarness(t)
	c := challengeFor(t, h, models.RoleJobSeeker)
	h.store.VerifySecondRes = client.SignInResult{Kind: client.SignInAuthenticated, Session: models.Session{Token: "tok-2fa", Identity: jobSeeker()}}

	require.NoError(t, c.Verify(context.Background(), "123456"))

	assert.Equal(t, client.SecondFactorProof{Email: "jane@example.com", Role: models.RoleJobSeeker, Code: "123456"}, h.store.LastSecondFactor)
	assert.Equal(t, ChallengeCompleted, c.View().State)
	assert.Equal(t, "tok-2fa", h.holder.Token())
	last, _ := h.nav.Last()
	assert.Equal(t, nav.JobSeekerDashboard, last.Destination)
}

func TestChallenge_VerifyBackupCode(t *testing.T) {
	h := newHarness(t)
	c := challengeFor(t, h, models.RoleEmployer)
	h.store.VerifySecondRes = client.SignInResult{Kind: client.SignInAuthenticated, Session: models.Session{Token: "t", Identity: employer()}}

	require.NoError(t, c.VerifyBackupCode(context.Background(), " ABCD-EFGH "))
	assert.Equal(t, "ABCD-EFGH", h.store.LastSecondFactor.BackupCode)
	assert.Empty(t, h.store.LastSecondFactor.Code)
	last, _ := h.nav.Last()
	assert.Equal(t, nav.RecruiterDashboard, last.Destination)
}

func TestChallenge_ThenOnboarding(t *testing.T) {
	h := newHarness(t)
	c := challengeFor(t, h, models.RoleEmployer)
	h.store.VerifySecondRes = client.SignInResult{Kind: client.SignInNeedsOnboarding, Role: models.RoleEmployer}

	require.NoError(t, c.Verify(context.Background(), "123456"))
	assert.Empty(t, h.holder.Token())
	last, _ := h.nav.Last()
	assert.Equal(t, nav.RecruiterOnboard, last.Destination)
}

func TestChallenge_Rejected(t *testing.T) {
	h := newHarness(t)
	c := challengeFor(t, h, models.RoleJobSeeker)
	h.store.VerifySecondRes = client.SignInResult{Kind: client.SignInRejected, Reason: "Invalid or expired OTP"}
	routes := len(h.nav.Routes())

	err := c.Verify(context.Background(), "999999")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired OTP", err.Error())
	assert.Equal(t, ChallengeAwaitingCode, c.View().State)
	assert.Empty(t, h.holder.Token())
	assert.Len(t, h.nav.Routes(), routes)
}

func TestChallenge_LocalValidation(t *testing.T) {
	h := newHarness(t)
	c := challengeFor(t, h, models.RoleJobSeeker)
	ctx := context.Background()

	var ve *ValidationError
	require.ErrorAs(t, c.Verify(ctx, "12"), &ve)
	assert.Equal(t, "Please enter a valid 6-digit OTP", ve.Message)
	require.ErrorAs(t, c.VerifyBackupCode(ctx, "  "), &ve)
	assert.Zero(t, h.store.Calls("verify-2fa"))
}

func TestChallenge_ResendAndCancel(t *testing.T) {
	h := newHarness(t)
	c := challengeFor(t, h, models.RoleEmployer)
	ctx := context.Background()

	require.NoError(t, c.Resend(ctx))
	assert.Equal(t, client.PurposeLogin, h.store.LastResendFor)

	require.NoError(t, c.Cancel(ctx))
	assert.Equal(t, ChallengeCancelled, c.View().State)
	last, _ := h.nav.Last()
	assert.Equal(t, nav.Route{Destination: nav.Auth, Role: models.RoleEmployer}, last)

	require.ErrorIs(t, c.Verify(ctx, "123456"), ErrWrongState)
	require.True(t, errors.Is(c.Resend(ctx), ErrWrongState))
}
