package domain

import (
	"context"
	"io"
)

// ProgressFunc reports segmentation progress as a percentage 0-100.
// Implementations must tolerate out-of-order calls; consumers clamp the
// value to be monotonically non-decreasing.
type ProgressFunc func(percent int)

// Compressor is the external compression capability. It returns the
// compressed bytes and the MIME type they were encoded as. Metadata of
// the source image is not preserved.
type Compressor interface {
	Compress(ctx context.Context, r io.Reader, mimeType string) ([]byte, string, error)
}

// Segmenter is the external background-removal capability. The returned
// bytes are always a PNG so transparency survives.
type Segmenter interface {
	RemoveBackground(ctx context.Context, data []byte, progress ProgressFunc) ([]byte, error)
}

// HandleRegistry owns revocable references over in-memory binary data.
// Every allocated handle must be revoked before being overwritten or
// before its session is discarded.
type HandleRegistry interface {
	Allocate(ctx context.Context, data []byte, mimeType string) (string, error)
	Open(ctx context.Context, id string) ([]byte, string, error)
	Revoke(ctx context.Context, id string) error
	Live() int
}

type SessionService interface {
	Upload(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*Session, error)
	Process(ctx context.Context) (*Session, error)
	State(ctx context.Context) (*Session, bool)
	Download(ctx context.Context) ([]byte, string, error)
	Delete(ctx context.Context) error
	SetDragOver(over bool)
	DragOver() bool
}
