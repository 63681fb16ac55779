package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venlabs/todo-api/auth"
)

// errMessage unwraps the rich error and returns the wire message, which is
// what the HTTP layer serializes. Error() renders with the category prefix.
func errMessage(t *testing.T, err error) string {
	t.Helper()

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	return richErr.Message
}

// TestIdentity implements auth.Identity
type TestIdentity struct {
	id       string
	username string
	email    string
}

func (t TestIdentity) ID() string {
	return t.id
}

func (t TestIdentity) Username() string {
	return t.username
}

func (t TestIdentity) Email() string {
	return t.email
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (auth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

// testConfig implements auth.Config
type testConfig struct {
	signingKey      string
	signingMethod   string
	contextKey      string
	tokenExpiration int
	tokenLookup     string
	authScheme      string
	issuer          string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key-for-tests",
		signingMethod:   "HS256",
		contextKey:      "user",
		tokenExpiration: 1,
		tokenLookup:     "header:Authorization",
		authScheme:      "Bearer",
		issuer:          "test-issuer",
	}
}

func (c testConfig) GetSigningKey() string {
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string {
	return c.signingMethod
}

func (c testConfig) GetContextKey() string {
	return c.contextKey
}

func (c testConfig) GetTokenExpiration() int {
	return c.tokenExpiration
}

func (c testConfig) GetTokenLookup() string {
	return c.tokenLookup
}

func (c testConfig) GetAuthScheme() string {
	return c.authScheme
}

func (c testConfig) GetIssuer() string {
	return c.issuer
}
