package domain

import (
	"path/filepath"
	"time"
)

type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Session is the single active image: its original (post-compression)
// bytes and, once background removal succeeds, the processed result.
// Bytes live behind revocable handles in the registry; the session only
// carries the handle identifiers.
type Session struct {
	Epoch        string        `json:"epoch"`
	DisplayName  string        `json:"display_name"`
	MimeType     string        `json:"mime_type"`
	Size         int64         `json:"size"`
	OriginalID   string        `json:"original_id"`
	ProcessedID  string        `json:"processed_id,omitempty"`
	Status       SessionStatus `json:"status"`
	Progress     int           `json:"progress"`
	Countdown    int           `json:"countdown"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
}

func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

func (s *Session) CanBeProcessed() bool {
	return s.Status == StatusPending || s.Status == StatusCompleted || s.Status == StatusFailed
}

// MarkAsProcessing enters the processing state. A previous processed
// result is dropped here so that the processed handle is only ever set
// on a completed session.
func (s *Session) MarkAsProcessing(countdown int) {
	s.Status = StatusProcessing
	s.ProcessedID = ""
	s.Progress = 0
	s.Countdown = countdown
	s.ErrorMessage = ""
	s.UpdatedAt = time.Now()
}

func (s *Session) MarkAsCompleted(processedID string) {
	s.Status = StatusCompleted
	s.ProcessedID = processedID
	s.Progress = 100
	s.Countdown = 0
	s.ErrorMessage = ""
	now := time.Now()
	s.ProcessedAt = &now
	s.UpdatedAt = now
}

func (s *Session) MarkAsFailed(errMsg string) {
	s.Status = StatusFailed
	s.ProcessedID = ""
	s.Progress = 0
	s.Countdown = 0
	s.ErrorMessage = errMsg
	s.UpdatedAt = time.Now()
}

// DownloadFilename derives the save-as name for the processed result.
// The result is always PNG to keep transparency.
func (s *Session) DownloadFilename() string {
	stem := s.DisplayName[:len(s.DisplayName)-len(filepath.Ext(s.DisplayName))]
	if stem == "" {
		stem = "image"
	}
	return "processed_" + stem + ".png"
}
