package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
	"github.com/storefront/shop-api/internal/pkg/security"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextID  int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byID[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubRevoker struct {
	revoked map[string]time.Time
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Time)}
}

func (r *stubRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = until
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testSecret = "test-secret"

func newTestAuthService(t *testing.T, repo ports.UserRepository, revoker ports.TokenRevoker, opts ...security.SignerOption) *AuthService {
	t.Helper()
	svc, err := NewAuthService(
		repo,
		security.NewBcryptHasher(bcrypt.MinCost),
		security.NewJWTSigner(testSecret, time.Hour, opts...),
		revoker,
		discardLogger,
	)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func registerAlice(t *testing.T, svc *AuthService) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Alice", Email: "a@x.com", Password: "pw123", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_HashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, newStubRevoker())

	user := registerAlice(t, svc)

	if user.PasswordHash == "pw123" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_DefaultsRoleAndNormalizesEmail(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Bob", Email: "  Bob@Example.COM ", Password: "pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}
	if user.Email != "bob@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())

	cases := []ports.RegisterInput{
		{Name: "", Email: "a@x.com", Password: "pw"},
		{Name: "A", Email: "", Password: "pw"},
		{Name: "A", Email: "a@x.com", Password: ""},
		{Name: "A", Email: "a@x.com", Password: "pw", Role: "superuser"},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Register(%+v): expected ErrValidation, got %v", in, err)
		}
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Alice 2", Email: "a@x.com", Password: "other"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("duplicate registration must be a persistence error")
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())
	alice := registerAlice(t, svc)

	res, err := svc.Login(context.Background(), "a@x.com", "pw123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected token")
	}
	if res.User.Name != "Alice" || res.User.Role != domain.RoleUser || res.User.ID != alice.ID {
		t.Errorf("unexpected summary: %+v", res.User)
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Errorf("expiry must be in the future, got %v", res.ExpiresAt)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())
	registerAlice(t, svc)

	_, wrongPw := svc.Login(context.Background(), "a@x.com", "pw124")
	_, noUser := svc.Login(context.Background(), "ghost@x.com", "pw123")

	if !errors.Is(wrongPw, domain.ErrInvalidCredentials) || !errors.Is(noUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPw, noUser)
	}
	if wrongPw.Error() != noUser.Error() {
		t.Errorf("error messages differ: %q vs %q", wrongPw, noUser)
	}
}

func TestAuthService_Login_RepoErrorPropagates(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("db down")
	svc := newTestAuthService(t, repo, newStubRevoker())

	_, err := svc.Login(context.Background(), "a@x.com", "pw123")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Verify / Logout
// ---------------------------------------------------------------------------

func TestAuthService_Verify_ClaimsMatchUser(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())
	alice := registerAlice(t, svc)
	res, _ := svc.Login(context.Background(), "a@x.com", "pw123")

	claims, err := svc.Verify(context.Background(), "Bearer "+res.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != alice.ID || claims.Email != "a@x.com" || claims.Role != domain.RoleUser {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Verify_MissingToken(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())

	for _, header := range []string{"", "Bearer", "Bearer   ", "Token abc", "abc"} {
		if _, err := svc.Verify(context.Background(), header); !errors.Is(err, domain.ErrMissingToken) {
			t.Errorf("Verify(%q): expected ErrMissingToken, got %v", header, err)
		}
	}
}

func TestAuthService_Verify_InvalidToken(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), newStubRevoker())

	if _, err := svc.Verify(context.Background(), "Bearer not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Verify_Expired(t *testing.T) {
	repo := newStubUserRepo()
	past := func() time.Time { return time.Now().Add(-3 * time.Hour) }
	issuer := newTestAuthService(t, repo, newStubRevoker(), security.WithClock(past))
	registerAlice(t, issuer)
	res, err := issuer.Login(context.Background(), "a@x.com", "pw123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	verifier := newTestAuthService(t, repo, newStubRevoker())
	if _, err := verifier.Verify(context.Background(), "Bearer "+res.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	revoker := newStubRevoker()
	svc := newTestAuthService(t, newStubUserRepo(), revoker)
	registerAlice(t, svc)
	res, _ := svc.Login(context.Background(), "a@x.com", "pw123")

	claims, err := svc.Verify(context.Background(), "Bearer "+res.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if until := revoker.revoked[claims.TokenID]; !until.Equal(claims.ExpiresAt) {
		t.Errorf("expected revocation until %v, got %v", claims.ExpiresAt, until)
	}
	if _, err := svc.Verify(context.Background(), "Bearer "+res.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestAuthService_Verify_RevocationStoreDown(t *testing.T) {
	revoker := newStubRevoker()
	svc := newTestAuthService(t, newStubUserRepo(), revoker)
	registerAlice(t, svc)
	res, _ := svc.Login(context.Background(), "a@x.com", "pw123")

	revoker.err = errors.New("redis down")
	_, err := svc.Verify(context.Background(), "Bearer "+res.Token)
	if err == nil || errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}
