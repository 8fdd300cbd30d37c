package flows

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janeForm() RegistrationForm {
	return RegistrationForm{
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		Password:        "abc123",
		ConfirmPassword: "abc123",
		Role:            models.RoleJobSeeker,
	}
}

func TestRegistration_HappyPath(t *testing.T) {
	h := newHarness(t)
	h.store.VerifyOTPRes = &client.VerifyOTPResult{Session: models.Session{Token: "tok-jane", Identity: jobSeeker()}}
	r := NewRegistration(h.deps)
	ctx := context.Background()

	require.NoError(t, r.Submit(ctx, janeForm()))
	v := r.View()
	assert.Equal(t, RegistrationAwaitingOTP, v.State)
	assert.Equal(t, "jane@example.com", v.Email)
	assert.Equal(t, "Jane Doe", h.store.LastRegister.FullName)

	// no session between register and verify-otp
	_, ok := h.holder.Current()
	assert.False(t, ok)
	assert.Empty(t, h.storedToken(t))
	assert.Empty(t, h.nav.Routes())

	require.NoError(t, r.VerifyOTP(ctx, "482913"))
	assert.Equal(t, "jane@example.com", h.store.LastOTPEmail)
	assert.Equal(t, "482913", h.store.LastOTPCode)
	assert.Equal(t, models.RoleJobSeeker, h.store.LastOTPRole)

	assert.Equal(t, RegistrationActivated, r.View().State)
	cur, ok := h.holder.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-jane", cur.Token)
	assert.Equal(t, "tok-jane", h.storedToken(t))

	last, ok := h.nav.Last()
	require.True(t, ok)
	assert.Equal(t, nav.Route{Destination: nav.JobSeekerDashboard, Role: models.RoleJobSeeker}, last)
}

func TestRegistration_LocalValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(f *RegistrationForm)
		field string
		msg   string
	}{
		{"mismatched passwords", func(f *RegistrationForm) { f.Password, f.ConfirmPassword = "abc123", "abc124" }, "confirmPassword", "Passwords do not match"},
		{"blank name", func(f *RegistrationForm) { f.FullName = "   " }, "fullName", "Full name is required"},
		{"blank email", func(f *RegistrationForm) { f.Email = "" }, "email", "Email is required"},
		{"unknown role", func(f *RegistrationForm) { f.Role = "admin" }, "role", "Please choose an account type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			r := NewRegistration(h.deps)
			form := janeForm()
			tt.edit(&form)

			err := r.Submit(context.Background(), form)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.msg, ve.Message)
			assert.Zero(t, h.store.Total())
			assert.Equal(t, RegistrationFormEntry, r.View().State)
			assert.Equal(t, err, r.View().Err)
		})
	}
}

func TestRegistration_RegisterRejectedShowsServerMessage(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterErr = &client.APIError{Status: 409, Message: "User already exists"}
	r := NewRegistration(h.deps)

	err := r.Submit(context.Background(), janeForm())
	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "User already exists", fe.Message)
	assert.Equal(t, RegistrationFormEntry, r.View().State)
	assert.False(t, r.Loading())
}

func TestRegistration_TransportFailureUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterErr = fmt.Errorf("%w: connection refused", client.ErrUnavailable)
	r := NewRegistration(h.deps)

	err := r.Submit(context.Background(), janeForm())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, "Registration failed", err.Error())
}

func TestRegistration_VerifyRequiresSixDigits(t *testing.T) {
	h := newHarness(t)
	r := NewRegistration(h.deps)
	ctx := context.Background()
	require.NoError(t, r.Submit(ctx, janeForm()))

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		err := r.VerifyOTP(ctx, code)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, code)
		assert.Equal(t, "Please enter a valid 6-digit OTP", ve.Message)
	}
	assert.Zero(t, h.store.Calls("verify-otp"))
	assert.Equal(t, RegistrationAwaitingOTP, r.View().State)
}

func TestRegistration_VerifyRejectedStaysAwaiting(t *testing.T) {
	h := newHarness(t)
	h.store.VerifyOTPErr = &client.APIError{Status: 400, Message: "Invalid or expired OTP"}
	r := NewRegistration(h.deps)
	ctx := context.Background()
	require.NoError(t, r.Submit(ctx, janeForm()))

	err := r.VerifyOTP(ctx, "000000")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired OTP", err.Error())

	v := r.View()
	assert.Equal(t, RegistrationAwaitingOTP, v.State)
	assert.Equal(t, "jane@example.com", v.Email)
	_, ok := h.holder.Current()
	assert.False(t, ok)
	assert.Empty(t, h.nav.Routes())

	// a second attempt is allowed
	h.store.VerifyOTPErr = nil
	h.store.VerifyOTPRes = &client.VerifyOTPResult{Session: models.Session{Token: "t", Identity: jobSeeker()}}
	require.NoError(t, r.VerifyOTP(ctx, "482913"))
	assert.Equal(t, 2, h.store.Calls("verify-otp"))
}

func TestRegistration_EmployerRouting(t *testing.T) {
	tests := []struct {
		name       string
		onboarding bool
		want       nav.Destination
	}{
		{"needs onboarding", true, nav.RecruiterOnboard},
		{"already onboarded", false, nav.RecruiterDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.store.VerifyOTPRes = &client.VerifyOTPResult{
				Session:            models.Session{Token: "t", Identity: employer()},
				RequiresOnboarding: tt.onboarding,
			}
			r := NewRegistration(h.deps)
			form := janeForm()
			form.Role = models.RoleEmployer
			ctx := context.Background()

			require.NoError(t, r.Submit(ctx, form))
			require.NoError(t, r.VerifyOTP(ctx, "123456"))

			last, ok := h.nav.Last()
			require.True(t, ok)
			assert.Equal(t, tt.want, last.Destination)
			assert.Equal(t, models.RoleEmployer, last.Role)
			assert.Equal(t, models.RoleEmployer, h.store.LastOTPRole)
		})
	}
}

func TestRegistration_IncompleteSessionIsNotStored(t *testing.T) {
	h := newHarness(t)
	h.store.VerifyOTPRes = &client.VerifyOTPResult{Session: models.Session{Identity: jobSeeker()}}
	r := NewRegistration(h.deps)
	ctx := context.Background()
	require.NoError(t, r.Submit(ctx, janeForm()))

	err := r.VerifyOTP(ctx, "482913")
	require.ErrorIs(t, err, models.ErrEmptyToken)
	assert.Equal(t, RegistrationAwaitingOTP, r.View().State)
	assert.Empty(t, h.nav.Routes())
}

func TestRegistration_ChangeEmail(t *testing.T) {
	h := newHarness(t)
	r := NewRegistration(h.deps)
	ctx := context.Background()

	require.ErrorIs(t, r.ChangeEmail(ctx), ErrWrongState)
	require.NoError(t, r.Submit(ctx, janeForm()))
	require.NoError(t, r.ChangeEmail(ctx))

	v := r.View()
	assert.Equal(t, RegistrationFormEntry, v.State)
	assert.Empty(t, v.Email)
	require.ErrorIs(t, r.VerifyOTP(ctx, "123456"), ErrWrongState)

	form := janeForm()
	form.Email = "jane.doe@example.com"
	require.NoError(t, r.Submit(ctx, form))
	assert.Equal(t, "jane.doe@example.com", r.View().Email)
}

func TestRegistration_ResendOTP(t *testing.T) {
	h := newHarness(t)
	r := NewRegistration(h.deps)
	ctx := context.Background()

	require.ErrorIs(t, r.ResendOTP(ctx), ErrWrongState)
	require.NoError(t, r.Submit(ctx, janeForm()))
	require.NoError(t, r.ResendOTP(ctx))
	assert.Equal(t, client.PurposeRegistration, h.store.LastResendFor)
	assert.Contains(t, r.View().Notice, "jane@example.com")

	h.store.ResendErr = errors.New("boom")
	err := r.ResendOTP(ctx)
	require.Error(t, err)
	assert.Equal(t, "Failed to resend OTP", err.Error())
	assert.Equal(t, RegistrationAwaitingOTP, r.View().State)
}
