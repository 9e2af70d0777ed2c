package users

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/auth"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	return db
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "agrovet-test",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	// Small parameters keep the hashing fast in tests.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func setupUsersService(t *testing.T) Service {
	t.Helper()

	repo := NewRepository(setupUsersTestDB(t))
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		JWT:      testJWTConfig(),
		Password: testPasswordConfig(),
		Logger:   logg,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterIssuesParseableToken(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Farmer@Example.COM",
		Password: "correct horse battery",
		Name:     "Farmer Ahmed",
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "farmer@example.com", result.User.Email)

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.com", Password: "long enough pw", Name: "First"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Name = "Second"
	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterShortPassword(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "short@example.com",
		Password: "short",
		Name:     "Shorty",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestLoginRoundTrip(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "login@example.com",
		Password: "super secret pw",
		Name:     "Login User",
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginInput{Email: "LOGIN@example.com", Password: "super secret pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "wrongpw@example.com",
		Password: "super secret pw",
		Name:     "Wrong PW",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "wrongpw@example.com", Password: "not the password"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever pw"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	svc := setupUsersService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "profile@example.com",
		Password: "super secret pw",
		Name:     "Before",
	})
	require.NoError(t, err)

	phone := "+201001234567"
	updated, err := svc.UpdateProfile(ctx, result.User.ID, "After", &phone)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	_, err = svc.UpdateProfile(ctx, uuid.New(), "Nobody", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
