package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.PermissionStore = (*PermissionRepository)(nil)

type PermissionRepository struct {
	s *Store
}

func (r *PermissionRepository) FindAllByIdentityID(_ context.Context, id uuid.UUID) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	keys := make([]string, len(r.s.grants[id]))
	copy(keys, r.s.grants[id])
	return keys, nil
}

// Grant binds key to the user. Granting twice is a no-op.
func (r *PermissionRepository) Grant(_ context.Context, userID uuid.UUID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	keys := r.s.grants[userID]
	if slices.Contains(keys, key) {
		return nil
	}
	keys = append(keys, key)
	slices.Sort(keys)
	r.s.grants[userID] = keys
	return nil
}

// Revoke removes key from the user.
func (r *PermissionRepository) Revoke(_ context.Context, userID uuid.UUID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.grants[userID] = slices.DeleteFunc(r.s.grants[userID], func(k string) bool { return k == key })
	return nil
}
