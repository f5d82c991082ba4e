package http

import (
	"context"
	"io"

	"github.com/sudhirsriram/bgstudio/internal/domain"
)

type mockSessionService struct {
	uploadFn   func(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error)
	processFn  func(ctx context.Context) (*domain.Session, error)
	stateFn    func(ctx context.Context) (*domain.Session, bool)
	downloadFn func(ctx context.Context) ([]byte, string, error)
	deleteFn   func(ctx context.Context) error
	dragOver   bool
}

func (m *mockSessionService) Upload(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error) {
	return m.uploadFn(ctx, filename, mimeType, size, r)
}

func (m *mockSessionService) Process(ctx context.Context) (*domain.Session, error) {
	return m.processFn(ctx)
}

func (m *mockSessionService) State(ctx context.Context) (*domain.Session, bool) {
	return m.stateFn(ctx)
}

func (m *mockSessionService) Download(ctx context.Context) ([]byte, string, error) {
	return m.downloadFn(ctx)
}

func (m *mockSessionService) Delete(ctx context.Context) error {
	return m.deleteFn(ctx)
}

func (m *mockSessionService) SetDragOver(over bool) { m.dragOver = over }

func (m *mockSessionService) DragOver() bool { return m.dragOver }

//----------------------------------

type mockHandleRegistry struct {
	allocateFn func(ctx context.Context, data []byte, mimeType string) (string, error)
	openFn     func(ctx context.Context, id string) ([]byte, string, error)
	revokeFn   func(ctx context.Context, id string) error
}

func (m *mockHandleRegistry) Allocate(ctx context.Context, data []byte, mimeType string) (string, error) {
	return m.allocateFn(ctx, data, mimeType)
}

func (m *mockHandleRegistry) Open(ctx context.Context, id string) ([]byte, string, error) {
	return m.openFn(ctx, id)
}

func (m *mockHandleRegistry) Revoke(ctx context.Context, id string) error {
	return m.revokeFn(ctx, id)
}

func (m *mockHandleRegistry) Live() int { return 0 }
