// Package imaging normalises uploaded images: decode any supported format,
// scale down to fit a bounding box, and re-encode as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Ext is the extension of every file this package produces.
const Ext = ".jpg"

// ContentType of every file this package produces.
const ContentType = "image/jpeg"

// Options bound the output of Process.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

var (
	// Full is used for gallery uploads and blog featured images.
	Full = Options{MaxWidth: 1600, MaxHeight: 1600, Quality: 82}
	// Thumb is the listing-card variant.
	Thumb = Options{MaxWidth: 480, MaxHeight: 480, Quality: 75}
)

var ErrUnsupported = errors.New("unsupported image format")

// Result is an encoded image and its final dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Process decodes src and encodes it as JPEG within opts.
func Process(src io.Reader, opts Options) (Result, error) {
	img, err := decode(src)
	if err != nil {
		return Result{}, err
	}
	return encode(img, opts)
}

// ProcessVariants produces a full-size and a thumbnail encoding from a single
// decode of src.
func ProcessVariants(src io.Reader, full, thumb Options) (Result, Result, error) {
	img, err := decode(src)
	if err != nil {
		return Result{}, Result{}, err
	}
	f, err := encode(img, full)
	if err != nil {
		return Result{}, Result{}, err
	}
	t, err := encode(img, thumb)
	if err != nil {
		return Result{}, Result{}, err
	}
	return f, t, nil
}

func decode(src io.Reader) (image.Image, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return img, nil
}

func encode(img image.Image, opts Options) (Result, error) {
	bounds := img.Bounds()
	w, h := Fit(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)

	// JPEG has no alpha; flatten transparent pixels onto white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Result{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// Fit returns the largest size with the aspect ratio of w×h that fits inside
// maxW×maxH. It never enlarges; a non-positive bound means unbounded.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	nw, nh := w, h
	if maxW > 0 && nw > maxW {
		nh = nh * maxW / nw
		nw = maxW
	}
	if maxH > 0 && nh > maxH {
		nw = nw * maxH / nh
		nh = maxH
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
