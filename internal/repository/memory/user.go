package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByUsernameOrEmail(_ context.Context, q string, withPassword bool) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byUsername[q]
	if !ok {
		id, ok = r.s.byEmail[q]
	}
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	user := r.s.users[id]
	if !withPassword {
		user = user.Public()
	}
	return user, nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user.Public(), nil
}

func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.byUsername[username]
	return ok, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.byEmail[email]
	return ok, nil
}

func (r *UserRepository) Create(ctx context.Context, nu model.NewUser) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byUsername[nu.Username]; ok {
		return model.User{}, &model.ConflictError{Field: "username"}
	}
	email := nu.Email
	if _, ok := r.s.byEmail[email]; ok {
		return model.User{}, &model.ConflictError{Field: "email"}
	}

	status := nu.Status
	if status == "" {
		status = model.UserStatusPending
	}

	now := r.s.now()
	user := model.User{
		ID:           uuid.New(),
		Username:     nu.Username,
		Email:        nu.Email,
		DisplayName:  nu.DisplayName,
		PasswordHash: nu.PasswordHash,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.s.users[user.ID] = user
	r.s.byUsername[user.Username] = user.ID
	r.s.byEmail[email] = user.ID

	record(ctx, func() {
		delete(r.s.users, user.ID)
		delete(r.s.byUsername, user.Username)
		delete(r.s.byEmail, email)
	})

	return user.Public(), nil
}

func (r *UserRepository) UpdateFields(ctx context.Context, id uuid.UUID, update model.UserUpdate) error {
	if update.Empty() {
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.users[id]
	if !ok {
		return model.ErrNotFound
	}

	user := prev
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	user.UpdatedAt = r.s.now()
	r.s.users[id] = user

	record(ctx, func() { r.s.users[id] = prev })

	return nil
}
