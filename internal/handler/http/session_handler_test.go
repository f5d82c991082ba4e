package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/sudhirsriram/bgstudio/internal/domain"
	"github.com/sudhirsriram/bgstudio/internal/dto"
	"github.com/wb-go/wbf/ginext"
)

func newTestRouter(svc *mockSessionService, handles *mockHandleRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSessionHandler(svc, handles)

	r.POST("/session", func(c *gin.Context) { h.UploadImage((*ginext.Context)(c)) })
	r.GET("/session", func(c *gin.Context) { h.GetSession((*ginext.Context)(c)) })
	r.POST("/session/process", func(c *gin.Context) { h.ProcessImage((*ginext.Context)(c)) })
	r.GET("/session/download", func(c *gin.Context) { h.DownloadResult((*ginext.Context)(c)) })
	r.DELETE("/session", func(c *gin.Context) { h.DeleteSession((*ginext.Context)(c)) })
	r.PUT("/session/drag", func(c *gin.Context) { h.SetDragState((*ginext.Context)(c)) })
	r.GET("/blob/:id", func(c *gin.Context) { h.ServeBlob((*ginext.Context)(c)) })
	return r
}

func newUploadRequest(t *testing.T, filename, mimeType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="image"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{mimeType}
	fw, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/session", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func pendingSession() *domain.Session {
	return &domain.Session{
		Epoch:       "e1",
		DisplayName: "photo.jpg",
		MimeType:    "image/jpeg",
		Size:        1024,
		OriginalID:  "orig-1",
		Status:      domain.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestSessionHandler_Upload(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		svc        *mockSessionService
		wantStatus int
		wantError  string
	}{
		{
			name: "success",
			req:  newUploadRequest(t, "photo.jpg", "image/jpeg", []byte("img")),
			svc: &mockSessionService{
				uploadFn: func(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error) {
					require.Equal(t, "photo.jpg", filename)
					require.Equal(t, "image/jpeg", mimeType)
					return pendingSession(), nil
				},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing file",
			req:        httptest.NewRequest(http.MethodPost, "/session", nil),
			svc:        &mockSessionService{},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
		{
			name: "invalid type",
			req:  newUploadRequest(t, "doc.pdf", "application/pdf", []byte("pdf")),
			svc: &mockSessionService{
				uploadFn: func(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error) {
					return nil, domain.ErrInvalidType
				},
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_type",
		},
		{
			name: "too large",
			req:  newUploadRequest(t, "big.jpg", "image/jpeg", []byte("img")),
			svc: &mockSessionService{
				uploadFn: func(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error) {
					return nil, domain.ErrTooLarge
				},
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "too_large",
		},
		{
			name: "compression failure",
			req:  newUploadRequest(t, "broken.jpg", "image/jpeg", []byte("img")),
			svc: &mockSessionService{
				uploadFn: func(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error) {
					return nil, domain.ErrCompressionFailed
				},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "compression_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.svc, &mockHandleRegistry{})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				var body dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Equal(t, tt.wantError, body.Error)
			}
		})
	}
}

func TestSessionHandler_GetSession(t *testing.T) {
	svc := &mockSessionService{
		stateFn: func(ctx context.Context) (*domain.Session, bool) {
			s := pendingSession()
			s.Status = domain.StatusCompleted
			s.ProcessedID = "proc-1"
			s.Progress = 100
			return s, true
		},
	}

	r := newTestRouter(svc, &mockHandleRegistry{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body dto.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "completed", body.Status)
	require.Equal(t, "/blob/orig-1", body.OriginalURL)
	require.Equal(t, "/blob/proc-1", body.ProcessedURL)
	require.Equal(t, "/session/download", body.DownloadURL)
}

func TestSessionHandler_GetSession_Empty(t *testing.T) {
	svc := &mockSessionService{
		stateFn: func(ctx context.Context) (*domain.Session, bool) { return nil, false },
	}

	r := newTestRouter(svc, &mockHandleRegistry{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Process(t *testing.T) {
	tests := []struct {
		name       string
		svc        *mockSessionService
		wantStatus int
	}{
		{
			name: "accepted",
			svc: &mockSessionService{
				processFn: func(ctx context.Context) (*domain.Session, error) {
					s := pendingSession()
					s.Status = domain.StatusProcessing
					s.Countdown = 20
					return s, nil
				},
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "no session",
			svc: &mockSessionService{
				processFn: func(ctx context.Context) (*domain.Session, error) {
					return nil, domain.ErrNoSession
				},
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.svc, &mockHandleRegistry{})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/session/process", nil))

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSessionHandler_Download(t *testing.T) {
	svc := &mockSessionService{
		downloadFn: func(ctx context.Context) ([]byte, string, error) {
			return []byte("png-bytes"), "processed_photo.png", nil
		},
	}

	r := newTestRouter(svc, &mockHandleRegistry{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/download", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	require.Contains(t, w.Header().Get("Content-Disposition"), "processed_photo.png")
	require.Equal(t, "png-bytes", w.Body.String())
}

func TestSessionHandler_Download_NotReady(t *testing.T) {
	svc := &mockSessionService{
		downloadFn: func(ctx context.Context) ([]byte, string, error) {
			return nil, "", domain.ErrNotCompleted
		},
	}

	r := newTestRouter(svc, &mockHandleRegistry{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/download", nil))

	require.Equal(t, http.StatusNotFound, w.Code)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_ready", body.Error)
}

func TestSessionHandler_Delete(t *testing.T) {
	svc := &mockSessionService{
		deleteFn: func(ctx context.Context) error { return nil },
	}

	r := newTestRouter(svc, &mockHandleRegistry{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/session", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestSessionHandler_Delete_Failure(t *testing.T) {
	svc := &mockSessionService{
		deleteFn: func(ctx context.Context) error { return domain.ErrDeleteFailed },
	}

	r := newTestRouter(svc, &mockHandleRegistry{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/session", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSessionHandler_SetDragState(t *testing.T) {
	svc := &mockSessionService{}
	r := newTestRouter(svc, &mockHandleRegistry{})

	req := httptest.NewRequest(http.MethodPut, "/session/drag", strings.NewReader(`{"over":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, svc.DragOver())

	req = httptest.NewRequest(http.MethodPut, "/session/drag", strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_ServeBlob(t *testing.T) {
	handles := &mockHandleRegistry{
		openFn: func(ctx context.Context, id string) ([]byte, string, error) {
			if id == "live-1" {
				return []byte("jpeg-bytes"), "image/jpeg", nil
			}
			return nil, "", domain.ErrHandleNotFound
		},
	}

	r := newTestRouter(&mockSessionService{}, handles)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blob/live-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	require.Equal(t, "jpeg-bytes", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blob/revoked", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
