package media

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProbeAcceptsPNG(t *testing.T) {
	data := pngBytes(t, 10, 20)
	probe := NewProbe(0, 0)

	result, err := probe.Check(Upload{Reader: bytes.NewReader(data), Size: int64(len(data)), FileName: "avatar.png"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if result.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", result.ContentType)
	}
	if result.Width != 10 || result.Height != 20 {
		t.Fatalf("unexpected dimensions %dx%d", result.Width, result.Height)
	}
	if len(result.Bytes) != len(data) {
		t.Fatalf("expected bytes to round-trip, got %d of %d", len(result.Bytes), len(data))
	}
}

func TestProbeRejectsNonImage(t *testing.T) {
	probe := NewProbe(0, 0)
	_, err := probe.Check(Upload{Reader: strings.NewReader("definitely not an image"), Size: 23})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestProbeRejectsOversize(t *testing.T) {
	data := pngBytes(t, 4, 4)

	t.Run("declared size too large", func(t *testing.T) {
		probe := NewProbe(8, 0)
		_, err := probe.Check(Upload{Reader: bytes.NewReader(data), Size: 1 << 20})
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("expected ErrTooLarge, got %v", err)
		}
	})

	t.Run("dimensions too large", func(t *testing.T) {
		probe := NewProbe(0, 2)
		_, err := probe.Check(Upload{Reader: bytes.NewReader(data), Size: int64(len(data))})
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("expected ErrTooLarge, got %v", err)
		}
	})
}
