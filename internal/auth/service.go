package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/store"
)

var (
	// ErrAccountExists is returned when registering an email twice.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidEmail is returned for malformed addresses.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidName is returned when a name is empty or too long.
	ErrInvalidName = errors.New("invalid name")
)

const maxNameLength = 64

// Service registers accounts and issues tokens. Delivering the sign-in link is
// handled outside this server; it only needs the token half.
type Service struct {
	store     store.AccountStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(accounts store.AccountStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     accounts,
		jwtConfig: jwtConfig,
	}
}

// Register creates an account and returns a token for it.
func (s *Service) Register(ctx context.Context, email, firstName, lastName string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if !validName(firstName) || !validName(lastName) {
		return "", ErrInvalidName
	}

	if existing, err := s.store.GetAccountByEmail(ctx, addr.Address); err == nil && existing != nil {
		return "", ErrAccountExists
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("lookup account: %w", err)
	}

	acc, err := s.store.CreateAccount(ctx, addr.Address, firstName, lastName)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}

	return s.token(acc)
}

// IssueToken returns a fresh token for an existing account, as the sign-in
// link does once the email address is confirmed.
func (s *Service) IssueToken(ctx context.Context, email string) (string, error) {
	acc, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}
	return s.token(acc)
}

// ValidateToken validates a token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// Authenticate resolves a token to the caller's identity.
func (s *Service) Authenticate(tokenString string) (core.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return core.User{}, err
	}
	return claims.User(), nil
}

func (s *Service) token(acc *store.Account) (string, error) {
	token, err := GenerateToken(s.jwtConfig, core.User{
		AccountID: acc.AccountID,
		FirstName: acc.FirstName,
		LastName:  acc.LastName,
		NumericID: acc.ID,
	})
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

func validName(s string) bool {
	return s != "" && len(s) <= maxNameLength
}
