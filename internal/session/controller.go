// Package session holds the single-slot image lifecycle: one image at a
// time moves through upload, background removal, preview and download,
// with its bytes parked behind revocable handles.
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sudhirsriram/bgstudio/internal/config"
	"github.com/sudhirsriram/bgstudio/internal/domain"
	"github.com/wb-go/wbf/zlog"
)

type Controller struct {
	compressor domain.Compressor
	segmenter  domain.Segmenter
	handles    domain.HandleRegistry

	maxUploadBytes  int64
	allowedTypes    map[string]bool
	countdownBudget int
	tick            time.Duration

	mu            sync.Mutex
	current       *domain.Session
	dragOver      bool
	stopCountdown chan struct{}
}

func NewController(
	compressor domain.Compressor,
	segmenter domain.Segmenter,
	handles domain.HandleRegistry,
	uploadCfg *config.UploadConfig,
	countdownCfg *config.CountdownConfig,
) *Controller {
	allowed := make(map[string]bool, len(uploadCfg.AllowedTypes))
	for _, t := range uploadCfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}

	return &Controller{
		compressor:      compressor,
		segmenter:       segmenter,
		handles:         handles,
		maxUploadBytes:  int64(uploadCfg.MaxSizeMB) * 1024 * 1024,
		allowedTypes:    allowed,
		countdownBudget: countdownCfg.Budget,
		tick:            time.Duration(countdownCfg.TickSec) * time.Second,
	}
}

// Upload validates the candidate file, compresses it and installs it as
// the current session, releasing the previous session's handles first.
func (c *Controller) Upload(ctx context.Context, filename, mimeType string, size int64, r io.Reader) (*domain.Session, error) {
	if !c.allowedTypes[strings.ToLower(mimeType)] {
		zlog.Logger.Warn().Str("mime_type", mimeType).Str("filename", filename).Msg("upload rejected: unsupported type")
		return nil, domain.ErrInvalidType
	}
	if size >= c.maxUploadBytes {
		zlog.Logger.Warn().Int64("size", size).Int64("limit", c.maxUploadBytes).Msg("upload rejected: too large")
		return nil, domain.ErrTooLarge
	}

	data, outMime, err := c.compressor.Compress(ctx, r, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompressionFailed, err)
	}

	originalID, err := c.handles.Allocate(ctx, data, outMime)
	if err != nil {
		return nil, fmt.Errorf("allocate original handle: %w", err)
	}

	c.mu.Lock()
	c.haltCountdownLocked()
	if err := c.releaseCurrentLocked(ctx); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to release previous session handles")
	}

	now := time.Now()
	c.current = &domain.Session{
		Epoch:       uuid.NewString(),
		DisplayName: filename,
		MimeType:    outMime,
		Size:        int64(len(data)),
		OriginalID:  originalID,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out := *c.current
	c.mu.Unlock()

	zlog.Logger.Info().
		Str("epoch", out.Epoch).
		Str("filename", filename).
		Int64("compressed_size", out.Size).
		Str("mime_type", outMime).
		Msg("session created")

	return &out, nil
}

// Process starts background removal for the current session. A request
// arriving while one is already in flight is ignored.
func (c *Controller) Process(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, domain.ErrNoSession
	}
	if c.current.Status == domain.StatusProcessing {
		out := *c.current
		c.mu.Unlock()
		zlog.Logger.Warn().Str("epoch", out.Epoch).Msg("processing already in flight, request ignored")
		return &out, nil
	}

	epoch := c.current.Epoch
	originalID := c.current.OriginalID
	// Re-processing a completed session: the old result is released the
	// moment the session leaves completed, never kept alongside a run.
	if prev := c.current.ProcessedID; prev != "" {
		_ = c.handles.Revoke(ctx, prev)
	}
	c.current.MarkAsProcessing(c.countdownBudget)

	c.haltCountdownLocked()
	stop := make(chan struct{})
	c.stopCountdown = stop

	out := *c.current
	c.mu.Unlock()

	zlog.Logger.Info().Str("epoch", epoch).Msg("starting background removal")

	go c.runCountdown(epoch, stop)
	// The segmentation call outlives the triggering request, so it runs
	// against a fresh context. Its result is tied to the epoch and
	// discarded if the session has been replaced or deleted meanwhile.
	go func() {
		if err := c.runProcessing(context.Background(), epoch, originalID); err != nil {
			zlog.Logger.Error().Err(err).Str("epoch", epoch).Msg("background removal failed")
		}
	}()

	return &out, nil
}

func (c *Controller) runProcessing(ctx context.Context, epoch, originalID string) error {
	data, _, err := c.handles.Open(ctx, originalID)
	if err != nil {
		c.finishFailed(ctx, epoch, fmt.Sprintf("read original: %v", err))
		return fmt.Errorf("open original handle: %w", err)
	}

	result, err := c.segmenter.RemoveBackground(ctx, data, c.progressFunc(epoch))
	if err != nil {
		c.finishFailed(ctx, epoch, err.Error())
		return fmt.Errorf("%w: %v", domain.ErrProcessingFailed, err)
	}

	processedID, err := c.handles.Allocate(ctx, result, "image/png")
	if err != nil {
		c.finishFailed(ctx, epoch, fmt.Sprintf("store result: %v", err))
		return fmt.Errorf("allocate processed handle: %w", err)
	}

	c.mu.Lock()
	if c.current == nil || c.current.Epoch != epoch {
		c.mu.Unlock()
		// Session was deleted or replaced mid-flight: the stale result
		// is dropped and its handle released immediately.
		_ = c.handles.Revoke(ctx, processedID)
		zlog.Logger.Warn().Str("epoch", epoch).Msg("discarding segmentation result for retired session")
		return nil
	}
	c.haltCountdownLocked()
	c.current.MarkAsCompleted(processedID)
	out := *c.current
	c.mu.Unlock()

	zlog.Logger.Info().
		Str("epoch", epoch).
		Str("processed_id", out.ProcessedID).
		Msg("background removal completed")

	return nil
}

func (c *Controller) finishFailed(ctx context.Context, epoch, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.Epoch != epoch {
		return
	}
	c.haltCountdownLocked()
	c.current.MarkAsFailed(errMsg)
}

// progressFunc binds segmentation progress to one epoch so that a stale
// run cannot touch a newer session. Values only ever grow.
func (c *Controller) progressFunc(epoch string) domain.ProgressFunc {
	return func(p int) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current == nil || c.current.Epoch != epoch || c.current.Status != domain.StatusProcessing {
			return
		}
		if p > c.current.Progress && p <= 100 {
			c.current.Progress = p
		}
	}
}

// runCountdown ticks the cosmetic countdown from its budget down to 0,
// once per time unit, until processing ends or the session retires.
func (c *Controller) runCountdown(epoch string, stop <-chan struct{}) {
	t := time.NewTicker(c.tick)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.mu.Lock()
			if c.current == nil || c.current.Epoch != epoch || c.current.Status != domain.StatusProcessing {
				c.mu.Unlock()
				return
			}
			if c.current.Countdown > 0 {
				c.current.Countdown--
			}
			c.mu.Unlock()
		}
	}
}

// State returns a copy of the current session, if any.
func (c *Controller) State(ctx context.Context) (*domain.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, false
	}
	out := *c.current
	return &out, true
}

// Download returns the processed PNG bytes and the derived filename. It
// does not mutate session state.
func (c *Controller) Download(ctx context.Context) ([]byte, string, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, "", domain.ErrNoSession
	}
	if !c.current.IsCompleted() {
		c.mu.Unlock()
		return nil, "", domain.ErrNotCompleted
	}
	processedID := c.current.ProcessedID
	filename := c.current.DownloadFilename()
	c.mu.Unlock()

	data, _, err := c.handles.Open(ctx, processedID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("handle_id", processedID).Msg("failed to read processed result")
		return nil, "", fmt.Errorf("read processed result: %w", err)
	}
	return data, filename, nil
}

// Delete unconditionally clears the session: the countdown stops, both
// handles are revoked and the slot is emptied. An in-flight segmentation
// call is not aborted; its eventual result is discarded by epoch check.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haltCountdownLocked()
	c.dragOver = false

	if c.current == nil {
		return nil
	}

	epoch := c.current.Epoch
	err := c.releaseCurrentLocked(ctx)
	c.current = nil

	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
	}

	zlog.Logger.Info().Str("epoch", epoch).Msg("session deleted")
	return nil
}

func (c *Controller) SetDragOver(over bool) {
	c.mu.Lock()
	c.dragOver = over
	c.mu.Unlock()
}

func (c *Controller) DragOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragOver
}

// releaseCurrentLocked revokes the current session's handles. The slot
// itself is left to the caller. Caller must hold c.mu.
func (c *Controller) releaseCurrentLocked(ctx context.Context) error {
	if c.current == nil {
		return nil
	}

	var lastErr error
	if err := c.handles.Revoke(ctx, c.current.OriginalID); err != nil {
		lastErr = err
	}
	if c.current.ProcessedID != "" {
		if err := c.handles.Revoke(ctx, c.current.ProcessedID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// haltCountdownLocked stops the running countdown goroutine, if any.
// Caller must hold c.mu.
func (c *Controller) haltCountdownLocked() {
	if c.stopCountdown != nil {
		close(c.stopCountdown)
		c.stopCountdown = nil
	}
}
