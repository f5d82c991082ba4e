package dto

import (
	"time"

	"github.com/sudhirsriram/bgstudio/internal/domain"
)

type SessionResponse struct {
	DisplayName  string     `json:"display_name"`
	MimeType     string     `json:"mime_type"`
	Size         int64      `json:"size"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	Countdown    int        `json:"countdown"`
	DragOver     bool       `json:"drag_over"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`

	// URLs
	OriginalURL  string `json:"original_url"`
	ProcessedURL string `json:"processed_url,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func MapSessionToResponse(s *domain.Session, dragOver bool) *SessionResponse {
	if s == nil {
		return nil
	}

	resp := &SessionResponse{
		DisplayName:  s.DisplayName,
		MimeType:     s.MimeType,
		Size:         s.Size,
		Status:       string(s.Status),
		Progress:     s.Progress,
		Countdown:    s.Countdown,
		DragOver:     dragOver,
		ErrorMessage: s.ErrorMessage,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ProcessedAt:  s.ProcessedAt,
		OriginalURL:  "/blob/" + s.OriginalID,
	}

	if s.IsCompleted() {
		resp.ProcessedURL = "/blob/" + s.ProcessedID
		resp.DownloadURL = "/session/download"
	}

	return resp
}
