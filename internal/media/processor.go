// Package media validates profile-image uploads before they reach object
// storage: content type, byte size, and pixel dimensions are checked by
// decoding only the image header.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxBytes     = 5 * 1024 * 1024
	DefaultMaxDimension = 4096
)

var (
	ErrTooLarge        = errors.New("image exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

type Upload struct {
	Reader   io.Reader
	Size     int64
	FileName string
}

type Result struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
}

type Probe struct {
	maxBytes     int64
	maxDimension int
}

func NewProbe(maxBytes int64, maxDimension int) *Probe {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Probe{maxBytes: maxBytes, maxDimension: maxDimension}
}

func (p *Probe) Check(upload Upload) (*Result, error) {
	if upload.Size > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, upload.Size)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Reader, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: body larger than declared size", ErrTooLarge)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	contentType, ok := contentTypes[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, format)
	}
	if cfg.Width > p.maxDimension || cfg.Height > p.maxDimension {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	return &Result{
		Bytes:       data,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
