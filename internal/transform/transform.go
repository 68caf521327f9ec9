// Package transform normalizes uploaded images: EXIF-driven auto-rotation,
// bounded resizing and re-encoding into the canonical JPEG profile
// (baseline, 4:2:0 chroma subsampling, non-progressive).
package transform

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/rwcarlsen/goexif/exif"

	_ "golang.org/x/image/webp" // register WebP decoding
)

// Transformer converts image bytes between encodings. Implementations are
// stateless and safe for concurrent use; each call is independent.
type Transformer interface {
	// AutoRotate applies the rotation/flip recorded in the EXIF
	// orientation tag and strips it by re-encoding. Input without an
	// orientation tag (or with the identity orientation) is returned
	// unchanged, byte for byte. Only JPEG input is inspected: the Go
	// decoders for other containers do not surface EXIF, so a TIFF or
	// WebP carrying an orientation tag passes through unrotated.
	AutoRotate(data []byte) ([]byte, error)

	// Resize scales the image proportionally so neither dimension
	// exceeds maxDim. Images already inside the bound are not enlarged.
	Resize(data []byte, maxDim int) ([]byte, error)

	// CanonicalJPEG re-encodes the image as a baseline 4:2:0 JPEG.
	// Input that already matches the canonical profile is returned
	// unchanged, byte for byte.
	CanonicalJPEG(data []byte) ([]byte, error)

	// ToWebP re-encodes the image as lossy WebP.
	ToWebP(data []byte) ([]byte, error)
}

// Imaging is the production Transformer.
type Imaging struct {
	// Quality is the JPEG quality used when re-encoding is required.
	Quality int
}

const defaultQuality = 90

func New() *Imaging {
	return &Imaging{Quality: defaultQuality}
}

func (t *Imaging) quality() int {
	if t.Quality > 0 {
		return t.Quality
	}
	return defaultQuality
}

func (t *Imaging) AutoRotate(data []byte) ([]byte, error) {
	// Orientation tags live in EXIF, which only JPEG input carries here.
	if !filetype.IsType(data, matchers.TypeJpeg) {
		return data, nil
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// No EXIF block at all is the common case.
		return data, nil
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return data, nil
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation <= 1 || orientation > 8 {
		return data, nil
	}

	// Decoding with AutoOrientation applies the tag; re-encoding drops
	// the EXIF block, so the result carries no stale orientation.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for rotation: %w", err)
	}
	return t.encodeJPEG(img)
}

func (t *Imaging) Resize(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for resizing: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return data, nil
	}

	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	return t.encodeJPEG(fitted)
}

func (t *Imaging) CanonicalJPEG(data []byte) ([]byte, error) {
	if filetype.IsType(data, matchers.TypeJpeg) {
		info, err := scanJPEG(data)
		// An image without chroma planes (grayscale) has nothing to
		// subsample and passes; a 3-component frame must be exactly
		// 4:2:0 — an unrecognized layout like 4:1:1 is re-encoded.
		if err == nil && !info.Progressive && (info.Chroma == "4:2:0" || (info.Chroma == "" && info.Components < 3)) {
			// Already canonical; keep the original bytes and quality.
			return data, nil
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return t.encodeJPEG(img)
}

func (t *Imaging) ToWebP(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(t.quality())}); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeJPEG writes img as a baseline JPEG. The standard library encoder
// always produces non-progressive output with 4:2:0 chroma subsampling for
// color images, which is exactly the canonical profile.
func (t *Imaging) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality())); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
