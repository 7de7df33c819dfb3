package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectPermissions = `select p.key from permissions p join user_permissions up on up.permission_id = p.id where up.user_id = $1 order by p.key`

func newPermissionMock(t *testing.T) (*PermissionRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(
		func(expectedSQL, actualSQL string) error {
			if normalize(expectedSQL) != normalize(actualSQL) {
				return errors.New("query mismatch: " + normalize(actualSQL))
			}
			return nil
		},
	)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPermissionRepository(db), mock
}

var spaces = regexp.MustCompile(`\s+`)

func normalize(q string) string {
	return spaces.ReplaceAllString(q, " ")
}

func TestPermissionRepository_FindAllByIdentityID(t *testing.T) {
	repo, mock := newPermissionMock(t)
	id := uuid.New()

	mock.ExpectQuery(selectPermissions).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("users.read").AddRow("users.write"))

	perms, err := repo.FindAllByIdentityID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.read", "users.write"}, perms)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepository_FindAllByIdentityID_Empty(t *testing.T) {
	repo, mock := newPermissionMock(t)
	id := uuid.New()

	mock.ExpectQuery(selectPermissions).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"key"}))

	perms, err := repo.FindAllByIdentityID(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, perms)
	assert.Empty(t, perms)
}

func TestPermissionRepository_FindAllByIdentityID_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock := newPermissionMock(t)
		mock.ExpectQuery(selectPermissions).WillReturnError(errors.New("connection refused"))

		_, err := repo.FindAllByIdentityID(context.Background(), uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query permissions")
	})

	t.Run("rows", func(t *testing.T) {
		repo, mock := newPermissionMock(t)
		mock.ExpectQuery(selectPermissions).
			WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("a").RowError(0, errors.New("broken row")))

		_, err := repo.FindAllByIdentityID(context.Background(), uuid.New())
		require.Error(t, err)
	})
}

func TestPermissionRepository_Grant(t *testing.T) {
	repo, mock := newPermissionMock(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`insert into permissions(id, key) values($1, $2) on conflict (key) do update set key = excluded.key returning id`).
		WithArgs(sqlmock.AnyArg(), "users.read").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("3f1c7a5e-4a57-4a0c-8d0e-1e2b3c4d5e6f"))
	mock.ExpectExec(`insert into user_permissions(user_id, permission_id) values($1, $2) on conflict do nothing`).
		WithArgs(userID.String(), "3f1c7a5e-4a57-4a0c-8d0e-1e2b3c4d5e6f").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Grant(context.Background(), userID, "users.read"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepository_Grant_RollsBack(t *testing.T) {
	repo, mock := newPermissionMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`insert into permissions(id, key) values($1, $2) on conflict (key) do update set key = excluded.key returning id`).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.Grant(context.Background(), uuid.New(), "users.read")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
