package user

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

var selectProfile = regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE user_id = $1`)

func profileColumns() []string {
	return []string{"user_id", "first_name", "last_name", "phone", "email", "address", "city", "state", "zip"}
}

func ptr(s string) *string { return &s }

func TestProfile(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc, mock, _ := setupService(t)
		mock.ExpectQuery(selectProfile).
			WillReturnRows(sqlmock.NewRows(profileColumns()).
				AddRow(3, "Ann", "Lee", "555-0100", "ann@example.com", "1 Main St", "Austin", "TX", "78701"))

		p, err := svc.Profile(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, uint(3), p.UserID)
		assert.Equal(t, "Austin", p.City)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		svc, mock, _ := setupService(t)
		mock.ExpectQuery(selectProfile).WillReturnRows(sqlmock.NewRows(profileColumns()))

		_, err := svc.Profile(context.Background(), 3)

		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		svc, mock, _ := setupService(t)
		mock.ExpectQuery(selectProfile).WillReturnError(errors.New("connection reset"))

		_, err := svc.Profile(context.Background(), 3)

		require.Error(t, err)
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProfile_WritesPresentFieldsAndRereads(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles" SET "city"=$1,"email"=$2,"phone"=$3,"updated_at"=$4 WHERE user_id = $5`)).
		WithArgs("Austin", "ann@work.example", "555-0100", sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(selectProfile).
		WillReturnRows(sqlmock.NewRows(profileColumns()).
			AddRow(3, "Ann", "Lee", "555-0100", "ann@work.example", "", "Austin", "", ""))

	p, err := svc.UpdateProfile(context.Background(), 3, &UpdateProfileRequest{
		Phone: ptr("555-0100"),
		Email: ptr(" Ann@Work.example "),
		City:  ptr("Austin"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Austin", p.City)
	assert.Equal(t, "ann@work.example", p.Email)
	assert.Equal(t, "Ann", p.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_MissingProfileIsNotFound(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.UpdateProfile(context.Background(), 3, &UpdateProfileRequest{City: ptr("Austin")})

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_EmptyRequestReturnsCurrent(t *testing.T) {
	svc, mock, _ := setupService(t)
	mock.ExpectQuery(selectProfile).
		WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(3, "Ann", "Lee", "", "", "", "", "", ""))

	p, err := svc.UpdateProfile(context.Background(), 3, &UpdateProfileRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Lee", p.LastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
