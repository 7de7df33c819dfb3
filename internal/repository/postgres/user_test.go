package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper/internal/model"
)

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestConflictFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
	}{
		{
			name:      "username taken",
			err:       &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"},
			wantField: "username",
		},
		{
			name:      "email taken",
			err:       fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}),
			wantField: "email",
		},
		{
			name: "other constraint",
			err:  &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_pkey"},
		},
		{
			name: "other code",
			err:  &pgconn.PgError{Code: "23503", ConstraintName: "users_username_key"},
		},
		{
			name: "not a postgres error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := conflictFromError(tt.err)
			if tt.wantField == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantField, got.Field)
			assert.ErrorIs(t, got, model.ErrConflict)
		})
	}
}

func TestUserRepository_UpdateFields_EmptyIsNoop(t *testing.T) {
	repo := NewUserRepository(&Connection{})

	require.NoError(t, repo.UpdateFields(context.Background(), uuid.Nil, model.UserUpdate{}))
}
