// Package segment delegates background removal to an external
// rembg-compatible inference service over HTTP.
package segment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sudhirsriram/bgstudio/internal/config"
	"github.com/sudhirsriram/bgstudio/internal/domain"
	"github.com/wb-go/wbf/zlog"
)

// Upload accounts for the first 90%, the remaining 10% is reading the
// segmented result back.
const uploadShare = 90

type Client struct {
	endpoint string
	model    string
	httpc    *http.Client
}

func New(cfg *config.SegmentationConfig) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		httpc: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

func (c *Client) RemoveBackground(ctx context.Context, data []byte, progress domain.ProgressFunc) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if progress == nil {
		progress = func(int) {}
	}
	report := monotonic(progress)
	report(0)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	pr := &progressReader{
		r:      body,
		total:  int64(body.Len()),
		report: report,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/remove", pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "image/png")
	req.ContentLength = pr.total

	resp, err := c.httpc.Do(req)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("endpoint", c.endpoint).Msg("segmentation request failed")
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zlog.Logger.Error().
			Int("status", resp.StatusCode).
			Str("endpoint", c.endpoint).
			Str("model", c.model).
			Msg("segmentation service returned non-OK status")
		return nil, fmt.Errorf("segmentation failed with status: %d", resp.StatusCode)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("segmentation returned empty result")
	}

	report(100)

	zlog.Logger.Info().
		Str("model", c.model).
		Int("input_bytes", len(data)).
		Int("output_bytes", len(result)).
		Msg("background removed")

	return result, nil
}

// CheckHealth verifies the inference service is reachable.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("segmentation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("segmentation service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// monotonic clamps reported progress to 0-100, never decreasing.
func monotonic(report domain.ProgressFunc) domain.ProgressFunc {
	last := -1
	return func(p int) {
		if p < 0 {
			p = 0
		}
		if p > 100 {
			p = 100
		}
		if p <= last {
			return
		}
		last = p
		report(p)
	}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report domain.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		p.report(int(p.read * uploadShare / p.total))
	}
	return n, err
}
