package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.PermissionStore = (*PermissionRepository)(nil)

// PermissionRepository reads permission grants through database/sql.
type PermissionRepository struct {
	db *sql.DB
}

func NewPermissionRepository(db *sql.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) FindAllByIdentityID(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`select p.key from permissions p
		 join user_permissions up on up.permission_id = p.id
		 where up.user_id = $1
		 order by p.key`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}

	return permissions, nil
}

// Grant binds the permission key to the user, creating the permission if needed.
func (r *PermissionRepository) Grant(ctx context.Context, userID uuid.UUID, key string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin grant: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var permissionID string
	err = tx.QueryRowContext(ctx,
		`insert into permissions(id, key) values($1, $2)
		 on conflict (key) do update set key = excluded.key
		 returning id`,
		uuid.NewString(), key,
	).Scan(&permissionID)
	if err != nil {
		return fmt.Errorf("failed to upsert permission: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`insert into user_permissions(user_id, permission_id) values($1, $2)
		 on conflict do nothing`,
		userID.String(), permissionID,
	)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit grant: %w", err)
	}
	return nil
}
