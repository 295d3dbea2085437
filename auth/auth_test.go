package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gudang/stock-engine/auth"
	"github.com/gudang/stock-engine/ledger"
	memstore "github.com/gudang/stock-engine/ledger/store"
	"github.com/gudang/stock-engine/store/sqlite"
)

func newTestAuthenticator(t *testing.T) *auth.Authenticator {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := ledger.NewRegistry(memstore.NewMemory())
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	return auth.NewAuthenticator(db, registry, tokens)
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestRegister(t *testing.T) {
	authn := newTestAuthenticator(t)
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := authn.Register(ctx, "  alice ", "secret")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username, "username is trimmed")
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "secret", user.PasswordHash, "password must never be stored in the clear")
	})

	t.Run("rejects blank username", func(t *testing.T) {
		_, err := authn.Register(ctx, "   ", "secret")
		assert.ErrorIs(t, err, auth.ErrBlankUsername)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := authn.Register(ctx, "bob", "abc")
		assert.ErrorIs(t, err, auth.ErrWeakPassword)
	})

	t.Run("four characters is the minimum", func(t *testing.T) {
		_, err := authn.Register(ctx, "bob", "abcd")
		require.NoError(t, err)
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		_, err := authn.Register(ctx, "alice", "secret")
		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	})

	t.Run("enforces account cap", func(t *testing.T) {
		// alice and bob already exist
		_, err := authn.Register(ctx, "carol", "secret")
		assert.ErrorIs(t, err, auth.ErrAccountLimit)
	})
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin(t *testing.T) {
	authn := newTestAuthenticator(t)
	ctx := context.Background()

	registered, err := authn.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, token, err := authn.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := authn.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, _, err := authn.Login(ctx, "nobody", "secret")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestLogin_SeedsDefaultCategories(t *testing.T) {
	// GIVEN: A registered user with no categories
	// WHEN: Logging in twice
	// THEN: The fixed default set exists exactly once

	mem := memstore.NewMemory()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := ledger.NewRegistry(mem)
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	authn := auth.NewAuthenticator(db, registry, tokens)
	ctx := context.Background()

	user, err := authn.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	_, _, err = authn.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	_, _, err = authn.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	cats, err := registry.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cats, len(ledger.DefaultCategories))
}

// =============================================================================
// TOKENS
// =============================================================================

func TestJWTManager_RoundTrip(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	user := &auth.User{ID: "user-1", Username: "alice"}

	signed, err := tokens.Generate(user)
	require.NoError(t, err)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestJWTManager_RejectsBadTokens(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Validate("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTManager("other-secret", time.Hour)
		signed, err := other.Generate(&auth.User{ID: "user-1", Username: "alice"})
		require.NoError(t, err)

		_, err = tokens.Validate(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := auth.NewJWTManager("test-secret", -time.Minute)
		signed, err := expired.Generate(&auth.User{ID: "user-1", Username: "alice"})
		require.NoError(t, err)

		_, err = tokens.Validate(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
