package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deviceauth/internal/modules/auth/domain"
	"deviceauth/internal/modules/auth/infra"
)

func TestResolveIdempotent(t *testing.T) {
	users := infra.NewMemUserRepo()
	r := NewResolver(NewStaticProvider(), users)
	ctx := context.Background()

	u1, ident, err := r.Resolve(ctx, "alice:alice@example.com", Social("google"))
	require.NoError(t, err)
	assert.Equal(t, "alice", u1.ProviderID)
	assert.Equal(t, "alice@example.com", u1.Email)
	require.NotNil(t, ident.SessionID)

	// повторный резолв сходится на той же строке
	u2, _, err := r.Resolve(ctx, "alice:alice@example.com", Social("google"))
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
}

func TestResolveBadToken(t *testing.T) {
	users := infra.NewMemUserRepo()
	r := NewResolver(NewStaticProvider(), users)
	ctx := context.Background()

	_, _, err := r.Resolve(ctx, "", Social("google"))
	assert.ErrorIs(t, err, ErrInvalidProviderSession)

	_, _, err = r.Resolve(ctx, "no-separator", Social("google"))
	assert.ErrorIs(t, err, ErrInvalidProviderSession)
}

func TestResolveAdoptsRowByEmail(t *testing.T) {
	users := infra.NewMemUserRepo()
	r := NewResolver(NewStaticProvider(), users)
	ctx := context.Background()

	// webhook успел создать строку под другим provider_id
	pre, err := users.Create(ctx, domain.CreateUserParams{
		ProviderID: "webhook-placeholder",
		Email:      "bob@example.com",
	})
	require.NoError(t, err)

	u, _, err := r.Resolve(ctx, "bob:bob@example.com", MagicLink())
	require.NoError(t, err)
	assert.Equal(t, pre.ID, u.ID, "строка усыновляется, а не дублируется")
	assert.Equal(t, "bob", u.ProviderID)
}

func TestResolveRestoresDeletedUser(t *testing.T) {
	users := infra.NewMemUserRepo()
	r := NewResolver(NewStaticProvider(), users)
	ctx := context.Background()

	u, _, err := r.Resolve(ctx, "carol:carol@example.com", SSOConnection("conn_1"))
	require.NoError(t, err)
	users.SoftDelete(u.ID)

	restored, _, err := r.Resolve(ctx, "carol:carol@example.com", SSOConnection("conn_1"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, restored.ID)
	assert.False(t, restored.Deleted())
}
