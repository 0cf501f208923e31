package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseid/argos/core"
)

func TestStaticResolverSystemCaller(t *testing.T) {
	resolver := NewStaticResolver()

	grant, err := resolver.Resolve(context.Background(), SystemCaller)
	require.NoError(t, err)
	assert.Equal(t, core.RoleSiteAdmin, grant.Role)
}

func TestStaticResolverGrantAndRevoke(t *testing.T) {
	resolver := NewStaticResolver()
	ctx := context.Background()

	resolver.Grant("alice", core.Grant{Role: core.RoleAlbumAdmin, AlbumIds: []core.ID{1, 2}})

	grant, err := resolver.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAlbumAdmin, grant.Role)
	assert.True(t, grant.AllowsAlbum(2))
	assert.False(t, grant.AllowsAlbum(3))

	resolver.Revoke("alice")
	_, err = resolver.Resolve(ctx, "alice")
	assert.ErrorIs(t, err, ErrUnknownCaller)
}

func TestStaticResolverUnknownCaller(t *testing.T) {
	resolver := NewStaticResolver()

	_, err := resolver.Resolve(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnknownCaller)
}

func TestStaticResolverSystemCannotBeRevoked(t *testing.T) {
	resolver := NewStaticResolver()
	resolver.Revoke(SystemCaller)

	grant, err := resolver.Resolve(context.Background(), SystemCaller)
	require.NoError(t, err)
	assert.Equal(t, core.RoleSiteAdmin, grant.Role)
}
