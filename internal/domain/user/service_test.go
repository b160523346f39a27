package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const goodPassword = "Str0ng!Pwd"

func setupService(t *testing.T) (*Service, sqlmock.Sqlmock, *auth.JWTManager) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	tokens := auth.NewJWTManager(config.JWTConfig{
		Secret:            "0123456789abcdef0123456789abcdef",
		AccessTokenExpiry: time.Hour,
	}, "storefront-test")
	svc := NewService(gormDB, auth.NewPasswordManager(bcrypt.MinCost), tokens, logger.Discard())
	return svc, mock, tokens
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Email:           "Ann@Example.com",
		Password:        goodPassword,
		ConfirmPassword: goodPassword,
		FirstName:       "Ann",
		LastName:        "Lee",
	}
}

func userColumns() []string {
	return []string{"id", "email", "password", "first_name", "last_name", "is_active", "is_admin"}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	svc, mock, _ := setupService(t)

	mismatch := registerRequest()
	mismatch.ConfirmPassword = "Str0ng!Pwx"
	_, err := svc.Register(context.Background(), mismatch)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	weak := registerRequest()
	weak.Password, weak.ConfirmPassword = "short", "short"
	_, err = svc.Register(context.Background(), weak)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_CreatesRegularUser(t *testing.T) {
	svc, mock, tokens := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "profiles"`)).
		WithArgs(3, "Ann", "Lee", "", "ann@example.com", "", "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.Register(context.Background(), registerRequest())

	require.NoError(t, err)
	assert.Equal(t, uint(3), resp.User.ID)
	assert.Equal(t, "ann@example.com", resp.User.Email)
	assert.False(t, resp.User.IsAdmin)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := tokens.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.False(t, claims.IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), registerRequest())

	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(goodPassword), bcrypt.MinCost)
	require.NoError(t, err)
	selectUser := regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 AND is_active = $2`)

	t.Run("unknown email", func(t *testing.T) {
		svc, mock, _ := setupService(t)
		mock.ExpectQuery(selectUser).WillReturnRows(sqlmock.NewRows(userColumns()))

		_, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: goodPassword})

		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock, _ := setupService(t)
		mock.ExpectQuery(selectUser).
			WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(3, "ann@example.com", string(hash), "Ann", "Lee", true, false))

		_, err := svc.Login(context.Background(), &LoginRequest{Email: "ann@example.com", Password: "Wr0ng!Pwd"})

		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		svc, mock, tokens := setupService(t)
		mock.ExpectQuery(selectUser).
			WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(3, "ann@example.com", string(hash), "Ann", "Lee", true, true))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "last_login_at"=$1`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp, err := svc.Login(context.Background(), &LoginRequest{Email: " ANN@example.com", Password: goodPassword})

		require.NoError(t, err)
		assert.NotNil(t, resp.User.LastLoginAt)
		claims, err := tokens.ValidateAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestActive_MissingUserIsUnauthorized(t *testing.T) {
	svc, mock, _ := setupService(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 AND is_active = $2`)).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := svc.Active(context.Background(), 99)

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}
