// Package imaging prepares raw product photos for upload: it decodes the
// source image, bounds its pixel dimensions, and re-encodes it as a
// compressed JPEG carried as a base64 payload.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Options is the compression policy. One policy applies to every call
// site; callers override only through configuration.
type Options struct {
	// MaxDimension bounds the longer edge of the output in pixels.
	MaxDimension int
	// Quality is the JPEG quality factor, 1-100.
	Quality int
}

// DefaultOptions mirrors the production policy: 800px bound, quality 70.
var DefaultOptions = Options{MaxDimension: 800, Quality: 70}

// Payload is a prepared image ready for upload.
type Payload struct {
	// Base64 is the JPEG bytes encoded as standard base64 with no
	// data-URL prefix.
	Base64 string
	Width  int
	Height int
	// Size is the encoded JPEG length in bytes.
	Size int
}

// DecodeError indicates the source bytes are not a valid image. Terminal
// for the item; never retried.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode image: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError indicates the scaled image could not be re-encoded.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode image: %v", e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }

// Prepare decodes an image, downscales it so neither dimension exceeds
// opts.MaxDimension while preserving aspect ratio, and encodes the result
// as JPEG. Images already within bounds are never upscaled. Prepare is a
// pure function and safe for concurrent use.
func Prepare(r io.Reader, opts Options) (*Payload, error) {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultOptions.MaxDimension
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultOptions.Quality
	}

	src, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	scaled := scale(src, opts.MaxDimension)
	bounds := scaled.Bounds()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, &EncodeError{Err: err}
	}

	return &Payload{
		Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Size:   buf.Len(),
	}, nil
}

// scale bounds the longer edge at maxSize, keeping aspect ratio.
func scale(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= maxSize && h <= maxSize {
		return src
	}

	if w > h {
		return imaging.Resize(src, maxSize, 0, imaging.Lanczos)
	}
	return imaging.Resize(src, 0, maxSize, imaging.Lanczos)
}
