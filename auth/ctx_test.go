package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venlabs/todo-api/auth"
)

func TestUserFromRouterContext(t *testing.T) {
	user := &auth.User{Username: "ada", Email: "ada@example.com"}

	t.Run("reads the locals entry", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = user

		got, ok := auth.UserFromRouterContext(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "ada", got.Username)
	})

	t.Run("falls back to the request context", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Context").Return(auth.WithContext(context.Background(), user))

		got, ok := auth.UserFromRouterContext(ctx, "user")
		require.True(t, ok)
		assert.Equal(t, "ada", got.Username)
	})

	t.Run("absent on both paths", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())

		_, ok := auth.UserFromRouterContext(ctx, "user")
		assert.False(t, ok)
	})
}
