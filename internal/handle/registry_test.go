package handle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sudhirsriram/bgstudio/internal/domain"
	"github.com/sudhirsriram/bgstudio/internal/infrastructure/blobstore"
)

func TestRegistry_AllocateOpenRevoke(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(blobstore.NewMemoryStore())

	id, err := r.Allocate(ctx, []byte("image-bytes"), "image/jpeg")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 1, r.Live())

	data, mimeType, err := r.Open(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []byte("image-bytes"), data)
	require.Equal(t, "image/jpeg", mimeType)

	require.NoError(t, r.Revoke(ctx, id))
	require.Zero(t, r.Live())

	_, _, err = r.Open(ctx, id)
	require.ErrorIs(t, err, domain.ErrHandleNotFound)
}

func TestRegistry_Allocate_Empty(t *testing.T) {
	r := NewRegistry(blobstore.NewMemoryStore())

	_, err := r.Allocate(context.Background(), nil, "image/png")
	require.Error(t, err)
	require.Zero(t, r.Live())
}

func TestRegistry_Revoke_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(blobstore.NewMemoryStore())

	require.NoError(t, r.Revoke(ctx, "never-allocated"))
	require.NoError(t, r.Revoke(ctx, ""))

	id, err := r.Allocate(ctx, []byte("data"), "image/png")
	require.NoError(t, err)
	require.NoError(t, r.Revoke(ctx, id))
	require.NoError(t, r.Revoke(ctx, id))
	require.Zero(t, r.Live())
}

func TestRegistry_IndependentHandles(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(blobstore.NewMemoryStore())

	original, err := r.Allocate(ctx, []byte("original"), "image/jpeg")
	require.NoError(t, err)
	processed, err := r.Allocate(ctx, []byte("processed"), "image/png")
	require.NoError(t, err)
	require.Equal(t, 2, r.Live())

	require.NoError(t, r.Revoke(ctx, processed))
	require.Equal(t, 1, r.Live())

	data, _, err := r.Open(ctx, original)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), data)
}
