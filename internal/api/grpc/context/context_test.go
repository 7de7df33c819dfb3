package context

import (
	stdctx "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/authkeeper/internal/model"
)

func TestManager_SetAndGetPrincipal(t *testing.T) {
	m := NewManager()
	p := model.Principal{UserID: uuid.New(), Permissions: []string{"users.read"}}
	ctx := m.SetPrincipalToContext(stdctx.Background(), p)

	got, ok := m.GetPrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, p, got)
}

func TestManager_GetPrincipal_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetPrincipalFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_GetPrincipal_IgnoresMetadata(t *testing.T) {
	m := NewManager()
	md := metadata.New(map[string]string{"user_id": uuid.NewString()})
	ctx := metadata.NewIncomingContext(stdctx.Background(), md)

	_, ok := m.GetPrincipalFromContext(ctx)
	assert.False(t, ok)
}

func TestManager_SetPrincipal_CopiesPermissions(t *testing.T) {
	m := NewManager()
	perms := []string{"a"}
	ctx := m.SetPrincipalToContext(stdctx.Background(), model.Principal{UserID: uuid.New(), Permissions: perms})
	perms[0] = "b"

	got, ok := m.GetPrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Permissions)
}
