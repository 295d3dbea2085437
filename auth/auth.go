/*
Package auth provides user accounts and session tokens.

PURPOSE:
  The ledger core partitions everything by an explicit userID; this
  package is the collaborator that produces those IDs. Registration is
  capped at two accounts per device and passwords are stored as bcrypt
  hashes. A successful login seeds the user's default categories
  (idempotent) and returns a JWT carrying the userID, so no global
  "current user" state exists anywhere.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gudang/stock-engine/ledger"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 4 characters")
	ErrBlankUsername      = errors.New("username must not be blank")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrAccountLimit       = errors.New("at most 2 accounts per device")
)

// maxAccounts caps registrations per device.
const maxAccounts = 2

const minPasswordLen = 4

// User is a registered account. Immutable after creation.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore defines user persistence. Lookups return nil (not an error)
// when no user matches.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

// Authenticator implements password-based registration and login.
type Authenticator struct {
	users    UserStore
	registry *ledger.Registry
	tokens   *JWTManager
}

func NewAuthenticator(users UserStore, registry *ledger.Registry, tokens *JWTManager) *Authenticator {
	return &Authenticator{users: users, registry: registry, tokens: tokens}
}

// Register creates a new account with a hashed password.
func (a *Authenticator) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrBlankUsername
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	count, err := a.users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if count >= maxAccounts {
		return nil, ErrAccountLimit
	}

	existing, err := a.users.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials, seeds default categories (idempotent, done
// on every successful login), and returns the user with a session token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*User, string, error) {
	user, err := a.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := a.registry.SeedDefaults(ctx, user.ID); err != nil {
		return nil, "", fmt.Errorf("failed to seed default categories: %w", err)
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
