package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/wb-go/wbf/zlog"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Put(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty blob for key %s", key)
	}

	// Copy so the caller cannot mutate stored bytes afterwards.
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.data[key] = buf
	s.mu.Unlock()

	zlog.Logger.Debug().Str("key", key).Int("bytes", len(buf)).Msg("blob stored in memory")
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	data, ok := s.data[key]
	if ok {
		delete(s.data, key)
	}
	s.mu.Unlock()

	if ok {
		zlog.Logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("blob memory freed")
	}
	return nil
}
