package model

import (
	"context"

	"github.com/google/uuid"
)

// PermissionStore resolves the permissions currently granted to an identity.
type PermissionStore interface {
	FindAllByIdentityID(ctx context.Context, id uuid.UUID) ([]string, error)
}
