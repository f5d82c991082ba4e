// Package compress adapts the disintegration/imaging pipeline into the
// compression capability: bound the longest side, re-encode with a
// target quality. Re-encoding also strips any source metadata.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/sudhirsriram/bgstudio/internal/config"
	"github.com/wb-go/wbf/zlog"

	// WebP uploads are decoded through the stdlib image registry.
	_ "golang.org/x/image/webp"
)

type Compressor struct {
	maxDimension int
	quality      int
	format       imaging.Format
	outMime      string
}

func New(cfg *config.CompressionConfig) (*Compressor, error) {
	c := &Compressor{
		maxDimension: cfg.MaxDimension,
		quality:      cfg.Quality,
	}

	switch cfg.OutputFormat {
	case "jpeg":
		c.format = imaging.JPEG
		c.outMime = "image/jpeg"
	case "png":
		c.format = imaging.PNG
		c.outMime = "image/png"
	default:
		return nil, fmt.Errorf("unsupported compression output format: %s", cfg.OutputFormat)
	}

	zlog.Logger.Info().
		Int("max_dimension", c.maxDimension).
		Int("quality", c.quality).
		Str("output_format", cfg.OutputFormat).
		Msg("Compressor initialized")

	return c, nil
}

func (c *Compressor) Compress(ctx context.Context, r io.Reader, mimeType string) ([]byte, string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("mime_type", mimeType).Msg("failed to decode image for compression")
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, "", fmt.Errorf("decoded image is empty")
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width > c.maxDimension || height > c.maxDimension {
		img = imaging.Fit(img, c.maxDimension, c.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, c.format, imaging.JPEGQuality(c.quality)); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode compressed image")
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	if buf.Len() == 0 {
		return nil, "", fmt.Errorf("empty buffer after encoding")
	}

	zlog.Logger.Info().
		Int("original_width", width).
		Int("original_height", height).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("bytes", buf.Len()).
		Str("mime_type", c.outMime).
		Msg("image compressed")

	return buf.Bytes(), c.outMime, nil
}
