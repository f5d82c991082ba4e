package session

import (
	"context"
	"io"

	"github.com/sudhirsriram/bgstudio/internal/domain"
)

type mockCompressor struct {
	compressFn func(ctx context.Context, r io.Reader, mimeType string) ([]byte, string, error)
}

func (m *mockCompressor) Compress(ctx context.Context, r io.Reader, mimeType string) ([]byte, string, error) {
	return m.compressFn(ctx, r, mimeType)
}

//----------------------------------

type mockSegmenter struct {
	removeFn func(ctx context.Context, data []byte, progress domain.ProgressFunc) ([]byte, error)
}

func (m *mockSegmenter) RemoveBackground(ctx context.Context, data []byte, progress domain.ProgressFunc) ([]byte, error) {
	return m.removeFn(ctx, data, progress)
}
