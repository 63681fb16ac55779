package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venlabs/todo-api/auth"
)

type stubUserStore struct {
	users map[string]*auth.User
}

func (s stubUserStore) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	if user, ok := s.users[identifier]; ok {
		return user, nil
	}
	return nil, errors.New("record not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound)
}

func newStubStore(t *testing.T) stubUserStore {
	t.Helper()

	user, err := auth.NewUser("ada", "ada@example.com", "s3cret-pass")
	require.NoError(t, err)

	return stubUserStore{
		users: map[string]*auth.User{
			"ada@example.com": user,
			"ada":             user,
		},
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	provider := auth.NewUserProvider(newStubStore(t))

	t.Run("correct password resolves the identity", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "ada@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "ada", identity.Username())
		assert.Equal(t, "ada@example.com", identity.Email())
	})

	t.Run("wrong password and missing user share one error", func(t *testing.T) {
		_, errWrong := provider.VerifyIdentity(ctx, "ada@example.com", "nope")
		_, errMissing := provider.VerifyIdentity(ctx, "ghost@example.com", "nope")

		require.Error(t, errWrong)
		require.Error(t, errMissing)
		assert.ErrorIs(t, errWrong, auth.ErrMismatchedHashAndPassword)
		assert.ErrorIs(t, errMissing, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("password comparison goes through the configured authenticator", func(t *testing.T) {
		hasher := &recordingAuthenticator{}
		custom := auth.NewUserProvider(newStubStore(t)).WithPasswordAuthenticator(hasher)

		identity, err := custom.VerifyIdentity(ctx, "ada@example.com", "anything-goes")
		require.NoError(t, err)
		assert.Equal(t, "ada", identity.Username())
		assert.Equal(t, 1, hasher.compares)
	})
}

// recordingAuthenticator accepts every password and counts comparisons.
type recordingAuthenticator struct {
	compares int
}

func (r *recordingAuthenticator) HashPassword(password string) (string, error) {
	return auth.HashPassword(password)
}

func (r *recordingAuthenticator) ComparePasswordAndHash(password, hash string) error {
	r.compares++
	return nil
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	provider := auth.NewUserProvider(newStubStore(t))

	t.Run("resolves by username", func(t *testing.T) {
		identity, err := provider.FindIdentityByIdentifier(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, "ada", identity.Username())
	})

	t.Run("missing user errors", func(t *testing.T) {
		_, err := provider.FindIdentityByIdentifier(ctx, "ghost")
		assert.Error(t, err)
	})
}
