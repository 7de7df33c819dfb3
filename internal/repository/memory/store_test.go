package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authkeeper/internal/model"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	u, err := users.Create(ctx, model.NewUser{Username: "alice", Email: "alice@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusPending, u.Status)
	assert.Empty(t, u.PasswordHash)

	got, err := users.FindByUsernameOrEmail(ctx, "alice@x.com", true)
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)

	got, err = users.FindByUsernameOrEmail(ctx, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = users.FindByUsernameOrEmail(ctx, "bob", false)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = users.Create(ctx, model.NewUser{Username: "alice", Email: "other@x.com"})
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)

	_, err = users.Create(ctx, model.NewUser{Username: "alice2", Email: "alice@x.com"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	ok, err := users.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = users.ExistsByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	active := model.UserStatusActive
	require.NoError(t, users.UpdateFields(ctx, u.ID, model.UserUpdate{Status: &active}))
	got, err = users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, got.Status)

	assert.ErrorIs(t, users.UpdateFields(ctx, uuid.New(), model.UserUpdate{Status: &active}), model.ErrNotFound)
}

func TestTokenRepository_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tokens := NewStore(WithClock(c.Now)).Tokens()
	owner := uuid.New()

	saved, err := tokens.Create(ctx, model.Token{
		ForeignID: &owner,
		Type:      model.TokenTypeResetPassword,
		Value:     "v1",
		ExpiresAt: c.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TokenStatusActive, saved.Status)
	assert.Equal(t, model.HashTokenValue("v1"), saved.ValueHash)

	found, err := tokens.FindByValue(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, "v1", found.Value)

	_, err = tokens.FindByValue(ctx, "v2")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, tokens.Consume(ctx, saved.ID))
	assert.ErrorIs(t, tokens.Consume(ctx, saved.ID), model.ErrNotFound)

	found, err = tokens.FindByValue(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.TokenStatusInactive, found.Status)
}

func TestTokenRepository_ConsumeExpired(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tokens := NewStore(WithClock(c.Now)).Tokens()

	saved, err := tokens.Create(ctx, model.Token{Type: model.TokenTypeRefresh, Value: "v", ExpiresAt: c.Now().Add(time.Minute)})
	require.NoError(t, err)

	c.Advance(time.Minute)
	assert.ErrorIs(t, tokens.Consume(ctx, saved.ID), model.ErrNotFound)
}

func TestStore_RunInTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := s.Users()
	tokens := s.Tokens()

	u, err := users.Create(ctx, model.NewUser{Username: "alice", Email: "alice@x.com", PasswordHash: "old"})
	require.NoError(t, err)
	tok, err := tokens.Create(ctx, model.Token{ForeignID: &u.ID, Type: model.TokenTypeResetPassword, Value: "v", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, tokens.Consume(ctx, tok.ID))
		hash := "new"
		require.NoError(t, users.UpdateFields(ctx, u.ID, model.UserUpdate{PasswordHash: &hash}))
		_, err := users.Create(ctx, model.NewUser{Username: "bob", Email: "bob@x.com"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	found, err := tokens.FindByValue(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, model.TokenStatusActive, found.Status)

	got, err := users.FindByUsernameOrEmail(ctx, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, "old", got.PasswordHash)

	exists, err := users.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_RunInTx_Nested(t *testing.T) {
	s := NewStore()

	err := s.RunInTx(context.Background(), func(ctx context.Context) error {
		return s.RunInTx(ctx, func(ctx context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestStore_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	tokens := s.Tokens()

	tok, err := tokens.Create(ctx, model.Token{Type: model.TokenTypeResetPassword, Value: "v", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTx(ctx, func(ctx context.Context) error {
				return tokens.Consume(ctx, tok.ID)
			})
			if err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}

func TestPermissionRepository(t *testing.T) {
	ctx := context.Background()
	perms := NewStore().Permissions()
	id := uuid.New()

	got, err := perms.FindAllByIdentityID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, perms.Grant(ctx, id, "b"))
	require.NoError(t, perms.Grant(ctx, id, "a"))
	require.NoError(t, perms.Grant(ctx, id, "a"))

	got, err = perms.FindAllByIdentityID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got[0] = "mutated"
	again, err := perms.FindAllByIdentityID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again)

	require.NoError(t, perms.Revoke(ctx, id, "a"))
	got, err = perms.FindAllByIdentityID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)
}

func TestEmailRepository(t *testing.T) {
	emails := NewStore().Emails()

	require.NoError(t, emails.Save(context.Background(), model.Message{ID: "1", Recipient: "a@x.com"}))
	require.NoError(t, emails.Save(context.Background(), model.Message{ID: "2", Recipient: "b@x.com"}))

	all := emails.All()
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)
}
