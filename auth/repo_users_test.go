package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/venlabs/todo-api/auth"
)

const sqliteCreateUsers = `CREATE TABLE users (
    id uuid NOT NULL PRIMARY KEY,
    username VARCHAR(255) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    phone_number VARCHAR(32),
    password_hash VARCHAR(255) NOT NULL,
    is_staff BOOLEAN NOT NULL DEFAULT FALSE,
    is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

func setupUsersDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return bunDB
}

func seedUser(t *testing.T, repo auth.Users, username, email, password string) *auth.User {
	t.Helper()

	user, err := auth.NewUser(username, email, password)
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), user)
	require.NoError(t, err)

	return created
}

func TestUsersRepositoryCreate(t *testing.T) {
	repo := auth.NewUsersRepository(setupUsersDB(t))

	created := seedUser(t, repo, "ada", "ada@example.com", "s3cret-pass")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "ada", created.Username)
}

func TestUsersRepositoryGetByIdentifier(t *testing.T) {
	repo := auth.NewUsersRepository(setupUsersDB(t))
	ctx := context.Background()

	created := seedUser(t, repo, "ada", "ada@example.com", "s3cret-pass")

	t.Run("by email", func(t *testing.T) {
		user, err := repo.GetByIdentifier(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("by username", func(t *testing.T) {
		user, err := repo.GetByIdentifier(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("by id", func(t *testing.T) {
		user, err := repo.GetByIdentifier(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, created.Username, user.Username)
	})

	t.Run("missing identifier", func(t *testing.T) {
		_, err := repo.GetByIdentifier(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersRepositoryExists(t *testing.T) {
	repo := auth.NewUsersRepository(setupUsersDB(t))
	ctx := context.Background()

	seedUser(t, repo, "ada", "ada@example.com", "s3cret-pass")

	taken, err := repo.ExistsByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.ExistsByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRegisterUserHandler(t *testing.T) {
	db := setupUsersDB(t)
	manager := auth.NewRepositoryManager(db)
	ctx := context.Background()

	handler := auth.RegisterUserHandler{Repo: manager}

	t.Run("creates the user with a hashed password", func(t *testing.T) {
		var created *auth.User
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Username:   "ada",
			Email:      "ada@example.com",
			Password:   "s3cret-pass",
			OnResponse: func(u *auth.User) { created = u },
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotEmpty(t, created.ID)
		assert.NotEqual(t, "s3cret-pass", created.PasswordHash)
		assert.NoError(t, auth.ComparePasswordAndHash("s3cret-pass", created.PasswordHash))
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Username: "ada",
			Email:    "other@example.com",
			Password: "s3cret-pass",
		})
		require.Error(t, err)

		var richErr *errors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, "A user with that username already exists.", richErr.Message)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Username: "grace",
			Email:    "ada@example.com",
			Password: "s3cret-pass",
		})
		require.Error(t, err)

		var richErr *errors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, "A user with that email already exists.", richErr.Message)
	})

	// The test database is capped at one connection, so these queries only
	// complete if they travel through the open transaction.
	t.Run("uniqueness checks share the transaction connection", func(t *testing.T) {
		err := manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			taken, err := manager.Users().ExistsByUsernameTx(ctx, tx, "ada")
			require.NoError(t, err)
			assert.True(t, taken)

			taken, err = manager.Users().ExistsByEmailTx(ctx, tx, "ghost@example.com")
			require.NoError(t, err)
			assert.False(t, taken)

			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rejects an invalid phone number", func(t *testing.T) {
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Username: "grace",
			Email:    "grace@example.com",
			Password: "s3cret-pass",
			Phone:    "not-a-phone",
		})
		require.Error(t, err)
	})

	t.Run("stores phone numbers in E164", func(t *testing.T) {
		var created *auth.User
		err := handler.Execute(ctx, auth.RegisterUserMessage{
			Username:   "grace",
			Email:      "grace@example.com",
			Password:   "s3cret-pass",
			Phone:      "(415) 555-2671",
			OnResponse: func(u *auth.User) { created = u },
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "+14155552671", created.Phone)
	})
}
