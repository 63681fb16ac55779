package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venlabs/todo-api/auth"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	identity := TestIdentity{id: "user-1", username: "ada", email: "ada@example.com"}

	t.Run("verified credentials mint a token", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("VerifyIdentity", ctx, "ada@example.com", "s3cret-pass").
			Return(identity, nil).Once()

		authenticator := auth.NewAuthenticator(provider, newTestConfig())

		token, err := authenticator.Login(ctx, "ada@example.com", "s3cret-pass")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := authenticator.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "ada", claims.Username())

		provider.AssertExpectations(t)
	})

	t.Run("unknown identifier and wrong password fail identically", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("VerifyIdentity", ctx, "ghost@example.com", "whatever").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()
		provider.On("VerifyIdentity", ctx, "ada@example.com", "wrong-pass").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()

		authenticator := auth.NewAuthenticator(provider, newTestConfig())

		_, errUnknown := authenticator.Login(ctx, "ghost@example.com", "whatever")
		_, errWrong := authenticator.Login(ctx, "ada@example.com", "wrong-pass")

		require.Error(t, errUnknown)
		require.Error(t, errWrong)
		assert.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, auth.ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
		assert.Equal(t, "Invalid credentials, try again", errMessage(t, errUnknown))

		provider.AssertExpectations(t)
	})

	t.Run("nil identity is a credentials failure", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("VerifyIdentity", ctx, "ada@example.com", "s3cret-pass").
			Return(nil, nil).Once()

		authenticator := auth.NewAuthenticator(provider, newTestConfig())

		_, err := authenticator.Login(ctx, "ada@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestSessionFromToken(t *testing.T) {
	identity := TestIdentity{id: "user-1", username: "ada", email: "ada@example.com"}
	provider := new(MockIdentityProvider)
	authenticator := auth.NewAuthenticator(provider, newTestConfig())

	t.Run("valid token decodes to a session", func(t *testing.T) {
		token, _, err := auth.MintToken(authenticator.TokenService(), identity, auth.TokenOptions{})
		require.NoError(t, err)

		session, err := authenticator.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, "ada", session.GetUsername())
		assert.Equal(t, "test-issuer", session.GetIssuer())
		require.NotNil(t, session.GetExpiration())
		assert.True(t, session.GetExpiration().After(time.Now()))
	})

	t.Run("expired token is rejected with the re-login message", func(t *testing.T) {
		token, _, err := auth.MintToken(authenticator.TokenService(), identity, auth.TokenOptions{
			TTL:      time.Minute,
			IssuedAt: time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)

		_, err = authenticator.SessionFromToken(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := authenticator.SessionFromToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestIdentityFromSession(t *testing.T) {
	ctx := context.Background()
	identity := TestIdentity{id: "user-1", username: "ada", email: "ada@example.com"}

	provider := new(MockIdentityProvider)
	provider.On("FindIdentityByIdentifier", ctx, "ada").
		Return(identity, nil).Once()

	authenticator := auth.NewAuthenticator(provider, newTestConfig())

	session := &auth.SessionObject{Username: "ada"}

	got, err := authenticator.IdentityFromSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username())
	assert.Equal(t, "ada@example.com", got.Email())

	provider.AssertExpectations(t)
}
