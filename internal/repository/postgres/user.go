package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/authkeeper/internal/model"
)

const uniqueViolation = "23505"

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, username, email, display_name, password_hash, status, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user   model.User
		status string
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.DisplayName, &user.PasswordHash,
		&status, &user.CreatedAt, &user.UpdatedAt,
	)
	user.Status = model.UserStatus(status)
	return user, err
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, q string, withPassword bool) (model.User, error) {
	// An exact username match wins over an email match.
	query := `SELECT ` + userColumns + `
			  FROM users WHERE username = $1 OR email = $1
			  ORDER BY (username = $1) DESC LIMIT 1`

	user, err := scanUser(r.db.conn(ctx).QueryRow(ctx, query, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	if !withPassword {
		user = user.Public()
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user.Public(), nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	if err := r.db.conn(ctx).QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	if err := r.db.conn(ctx).QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.NewUser) (model.User, error) {
	query := `INSERT INTO users (id, username, email, display_name, password_hash, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			  RETURNING ` + userColumns

	status := user.Status
	if status == "" {
		status = model.UserStatusPending
	}

	saved, err := scanUser(r.db.conn(ctx).QueryRow(ctx, query,
		uuid.New(), user.Username, user.Email, user.DisplayName, user.PasswordHash, string(status),
	))
	if err != nil {
		if conflict := conflictFromError(err); conflict != nil {
			return model.User{}, conflict
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved.Public(), nil
}

func (r *UserRepository) UpdateFields(ctx context.Context, id uuid.UUID, update model.UserUpdate) error {
	if update.Empty() {
		return nil
	}

	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	query := `UPDATE users SET
			  password_hash = COALESCE($2, password_hash),
			  status = COALESCE($3, status),
			  updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.conn(ctx).Exec(ctx, query, id, update.PasswordHash, status)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// conflictFromError maps a unique violation on users to *model.ConflictError.
func conflictFromError(err error) *model.ConflictError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case "users_username_key":
		return &model.ConflictError{Field: "username"}
	case "users_email_key":
		return &model.ConflictError{Field: "email"}
	default:
		return nil
	}
}
