// Package handle owns revocable references over session image bytes.
// A handle is the server-side analog of an object URL: the display layer
// renders it by id, and revoking it frees the underlying blob.
package handle

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sudhirsriram/bgstudio/internal/domain"
	"github.com/sudhirsriram/bgstudio/internal/infrastructure/blobstore"
	"github.com/wb-go/wbf/zlog"
)

type entry struct {
	key      string
	mimeType string
}

type Registry struct {
	mu      sync.Mutex
	store   blobstore.Store
	entries map[string]entry
}

func NewRegistry(store blobstore.Store) *Registry {
	return &Registry{
		store:   store,
		entries: make(map[string]entry),
	}
}

func (r *Registry) Allocate(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty data for handle")
	}

	id := uuid.NewString()
	key := "blobs/" + id

	if err := r.store.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}

	r.mu.Lock()
	r.entries[id] = entry{key: key, mimeType: mimeType}
	r.mu.Unlock()

	zlog.Logger.Info().Str("handle_id", id).Str("mime_type", mimeType).Int("bytes", len(data)).Msg("handle allocated")
	return id, nil
}

func (r *Registry) Open(ctx context.Context, id string) ([]byte, string, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return nil, "", domain.ErrHandleNotFound
	}

	data, err := r.store.Get(ctx, e.key)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("handle_id", id).Msg("failed to read blob behind handle")
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return data, e.mimeType, nil
}

// Revoke releases the handle and its bytes. Revoking an unknown id is a
// no-op so callers can release unconditionally.
func (r *Registry) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if err := r.store.Delete(ctx, e.key); err != nil {
		zlog.Logger.Error().Err(err).Str("handle_id", id).Msg("failed to delete blob behind handle")
		return fmt.Errorf("delete blob: %w", err)
	}

	zlog.Logger.Info().Str("handle_id", id).Msg("handle revoked")
	return nil
}

// Live reports how many handles are currently allocated.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
