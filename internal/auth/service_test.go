package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/store/sqlite"
)

func testUser(accountID string) core.User {
	return core.User{AccountID: accountID, FirstName: "Test", LastName: "User", NumericID: 1}
}

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "Ada", "Lovelace"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(ctx, "Ada <ada@example.org>", "Ada", "Lovelace"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for display-name form, got %v", err)
	}
	if _, err := svc.Register(ctx, "ada@example.org", "  ", "Lovelace"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestRegister_CreatesAccountAndRejectsDuplicate(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "ada@example.org", " Ada ", "Lovelace")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}

	user, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.AccountID == "" || user.NumericID == 0 {
		t.Fatalf("expected populated identity, got %+v", user)
	}
	if user.FirstName != "Ada" || user.LastName != "Lovelace" {
		t.Errorf("unexpected names: %+v", user)
	}

	if _, err := svc.Register(ctx, "ADA@example.org", "Ada", "Again"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestIssueToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.IssueToken(ctx, "nobody@example.org"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	first, err := svc.Register(ctx, "grace@example.org", "Grace", "Hopper")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	second, err := svc.IssueToken(ctx, "grace@example.org")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	a, _ := svc.Authenticate(first)
	b, _ := svc.Authenticate(second)
	if a.AccountID != b.AccountID {
		t.Errorf("expected same account, got %q and %q", a.AccountID, b.AccountID)
	}
}

func TestValidateToken(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("secret"), Issuer: "club", Audience: "rooms", TTL: time.Hour}
	token, err := GenerateToken(cfg, testUser("acc-1"))
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	tests := []struct {
		name    string
		cfg     *JWTConfig
		token   string
		wantErr bool
	}{
		{name: "valid", cfg: cfg, token: token},
		{name: "wrong secret", cfg: &JWTConfig{Secret: []byte("other"), Issuer: "club", Audience: "rooms"}, token: token, wantErr: true},
		{name: "wrong issuer", cfg: &JWTConfig{Secret: []byte("secret"), Issuer: "other", Audience: "rooms"}, token: token, wantErr: true},
		{name: "wrong audience", cfg: &JWTConfig{Secret: []byte("secret"), Issuer: "club", Audience: "other"}, token: token, wantErr: true},
		{name: "garbage", cfg: cfg, token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.cfg, tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.AccountID != "acc-1" {
				t.Errorf("expected acc-1, got %q", claims.AccountID)
			}
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("secret"), TTL: -time.Minute}
	token, err := GenerateToken(cfg, testUser("acc-2"))
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(cfg, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
