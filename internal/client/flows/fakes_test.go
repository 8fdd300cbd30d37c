package flows

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
	"github.com/dmitrijs2005/hireloop/internal/client/session"
)

// fakeStore implements client.CredentialStore. Results are preset per
// operation; every call is counted and its arguments captured.
type fakeStore struct {
	mu    sync.Mutex
	calls map[string]int

	// block, when set, holds SignIn until it is closed; entered is
	// signalled once the call is inside.
	block   chan struct{}
	entered chan struct{}

	RegisterErr  error
	LastRegister client.RegisterRequest

	VerifyOTPRes *client.VerifyOTPResult
	VerifyOTPErr error
	LastOTPEmail string
	LastOTPCode  string
	LastOTPRole  models.Role

	ResendErr     error
	LastResendFor client.OTPPurpose

	SignInRes  client.SignInResult
	SignInErr  error
	LastSignIn [3]string

	VerifySecondRes  client.SignInResult
	VerifySecondErr  error
	LastSecondFactor client.SecondFactorProof

	EnableErr error

	SetupCodes    []string
	SetupErr      error
	LastSetupCode string

	DisableErr error

	DeleteErr          error
	LastDeletePassword string

	MeRes *models.Identity
	MeErr error

	ChangeErr error
	LastOld   string
	LastNew   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: map[string]int{}}
}

func (f *fakeStore) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) Register(ctx context.Context, req client.RegisterRequest) error {
	f.hit("register")
	f.LastRegister = req
	return f.RegisterErr
}

func (f *fakeStore) VerifyOTP(ctx context.Context, email, code string, role models.Role) (*client.VerifyOTPResult, error) {
	f.hit("verify-otp")
	f.LastOTPEmail, f.LastOTPCode, f.LastOTPRole = email, code, role
	return f.VerifyOTPRes, f.VerifyOTPErr
}

func (f *fakeStore) ResendOTP(ctx context.Context, email string, purpose client.OTPPurpose) error {
	f.hit("resend-otp")
	f.LastResendFor = purpose
	return f.ResendErr
}

func (f *fakeStore) SignIn(ctx context.Context, email, password string, role models.Role) (client.SignInResult, error) {
	f.hit("signin")
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return client.SignInResult{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.LastSignIn = [3]string{email, password, string(role)}
	f.mu.Unlock()
	return f.SignInRes, f.SignInErr
}

func (f *fakeStore) VerifySecondFactor(ctx context.Context, proof client.SecondFactorProof) (client.SignInResult, error) {
	f.hit("verify-2fa")
	f.LastSecondFactor = proof
	return f.VerifySecondRes, f.VerifySecondErr
}

func (f *fakeStore) EnableSecondFactor(ctx context.Context) error {
	f.hit("enable-2fa")
	return f.EnableErr
}

func (f *fakeStore) VerifySecondFactorSetup(ctx context.Context, code string) ([]string, error) {
	f.hit("verify-2fa-setup")
	f.LastSetupCode = code
	if f.SetupErr != nil {
		return nil, f.SetupErr
	}
	return append([]string(nil), f.SetupCodes...), nil
}

func (f *fakeStore) DisableSecondFactor(ctx context.Context) error {
	f.hit("disable-2fa")
	return f.DisableErr
}

func (f *fakeStore) DeleteAccount(ctx context.Context, password string) error {
	f.hit("delete-account")
	f.LastDeletePassword = password
	return f.DeleteErr
}

func (f *fakeStore) Me(ctx context.Context) (*models.Identity, error) {
	f.hit("me")
	return f.MeRes, f.MeErr
}

func (f *fakeStore) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	f.hit("change-password")
	f.LastOld, f.LastNew = oldPassword, newPassword
	return f.ChangeErr
}

type harness struct {
	store  *fakeStore
	holder *session.Holder
	tokens *session.MemoryStore
	nav    *nav.Recorder
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:  newFakeStore(),
		tokens: session.NewMemoryStore(),
		nav:    &nav.Recorder{},
	}
	h.holder = session.NewHolder(h.tokens, nil)
	h.deps = Deps{
		Store:     h.store,
		Session:   h.holder,
		Navigator: h.nav,
		Timeout:   time.Second,
	}
	return h
}

// signedIn gives the harness an established session.
func (h *harness) signedIn(t *testing.T, ident models.Identity) {
	t.Helper()
	if err := h.holder.Establish(context.Background(), models.Session{Token: "tok", Identity: ident}); err != nil {
		t.Fatalf("establish: %v", err)
	}
}

func (h *harness) storedToken(t *testing.T) string {
	t.Helper()
	tok, err := h.tokens.Load(context.Background())
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	return tok
}

func jobSeeker() models.Identity {
	return models.Identity{ID: "u-js", Email: "jane@example.com", Role: models.RoleJobSeeker, FullName: "Jane Doe"}
}

func employer() models.Identity {
	return models.Identity{ID: "u-em", Email: "boss@example.com", Role: models.RoleEmployer, FullName: "Big Boss", OnboardingCompleted: true}
}
