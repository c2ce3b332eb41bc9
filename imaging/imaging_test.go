package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{800, 600, 1600, 1600, 800, 600},
		{3200, 1600, 1600, 1600, 1600, 800},
		{1000, 4000, 1600, 1600, 400, 1600},
		{4000, 4000, 480, 480, 480, 480},
		{2000, 10, 100, 100, 100, 1},
		{500, 500, 0, 0, 500, 500},
	}
	for _, tt := range tests {
		gw, gh := Fit(tt.w, tt.h, tt.maxW, tt.maxH)
		if gw != tt.wantW || gh != tt.wantH {
			t.Errorf("Fit(%d,%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.maxW, tt.maxH, gw, gh, tt.wantW, tt.wantH)
		}
	}
}

func TestProcessResizesAndEncodesJPEG(t *testing.T) {
	src := pngBytes(t, 200, 100)
	res, err := Process(bytes.NewReader(src), Options{MaxWidth: 50, MaxHeight: 50, Quality: 80})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 50 || res.Height != 25 {
		t.Errorf("size = %dx%d, want 50x25", res.Width, res.Height)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 25 {
		t.Errorf("decoded size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestProcessNeverUpscales(t *testing.T) {
	res, err := Process(bytes.NewReader(pngBytes(t, 40, 30)), Full)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 40 || res.Height != 30 {
		t.Errorf("size = %dx%d, want 40x30", res.Width, res.Height)
	}
}

func TestProcessVariants(t *testing.T) {
	full, thumb, err := ProcessVariants(bytes.NewReader(pngBytes(t, 120, 60)),
		Options{MaxWidth: 100, MaxHeight: 100, Quality: 90},
		Options{MaxWidth: 30, MaxHeight: 30, Quality: 60})
	if err != nil {
		t.Fatalf("ProcessVariants: %v", err)
	}
	if full.Width != 100 || full.Height != 50 {
		t.Errorf("full = %dx%d", full.Width, full.Height)
	}
	if thumb.Width != 30 || thumb.Height != 15 {
		t.Errorf("thumb = %dx%d", thumb.Width, thumb.Height)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	_, err := Process(strings.NewReader("definitely not an image"), Full)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
