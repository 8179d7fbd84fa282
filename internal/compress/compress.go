// Package compress keeps large images within a size budget before they are
// embedded into a media record. Oversized images are scaled down so the
// longer dimension fits a size-dependent preset and re-encoded as JPEG.
package compress

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Options controls one compression run.
type Options struct {
	MaxWidthOrHeight int
	Quality          float64 // 0..1, mapped onto the JPEG quality scale
}

// Presets chosen by original size, mirroring the thumbnail/low/medium/high
// quality ladder.
var (
	PresetThumbnail = Options{MaxWidthOrHeight: 400, Quality: 0.5}
	PresetLow       = Options{MaxWidthOrHeight: 800, Quality: 0.6}
	PresetMedium    = Options{MaxWidthOrHeight: 1280, Quality: 0.7}
	PresetHigh      = Options{MaxWidthOrHeight: 1920, Quality: 0.8}
)

// DefaultThresholdKB is the size below which images pass through unmodified.
const DefaultThresholdKB = 500

// OutputMime is the fixed output format of the pipeline.
const OutputMime = "image/jpeg"

// Result describes a finished compression run.
type Result struct {
	Payload          []byte
	OriginalSize     int64
	CompressedSize   int64
	CompressionRatio int // percent reduction, rounded
}

// ShouldCompress reports whether a payload of the given size is worth
// compressing at all.
func ShouldCompress(size int64, thresholdKB int64) bool {
	return size > thresholdKB*1024
}

// PresetFor picks a preset by original size in KB: very large originals trade
// more quality for size.
func PresetFor(sizeKB int64) Options {
	switch {
	case sizeKB > 2000:
		return PresetLow
	case sizeKB > 1000:
		return PresetMedium
	default:
		return PresetHigh
	}
}

// Compress decodes data, scales it down to fit opts.MaxWidthOrHeight while
// keeping the aspect ratio, and re-encodes it as JPEG. Images already within
// the bound are re-encoded without scaling. On any failure the caller must
// fall back to the original payload rather than aborting its save.
func Compress(data []byte, opts Options) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := scaledDimensions(bounds.Dx(), bounds.Dy(), opts.MaxWidthOrHeight)

	if w != bounds.Dx() || h != bounds.Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	quality := int(math.Round(opts.Quality * 100))
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	originalSize := int64(len(data))
	compressedSize := int64(buf.Len())

	return &Result{
		Payload:          buf.Bytes(),
		OriginalSize:     originalSize,
		CompressedSize:   compressedSize,
		CompressionRatio: int(math.Round((1 - float64(compressedSize)/float64(originalSize)) * 100)),
	}, nil
}

// scaledDimensions computes target dimensions so the longer side equals
// maxSize, preserving the aspect ratio. Images already within bounds keep
// their dimensions.
func scaledDimensions(width, height, maxSize int) (int, int) {
	if width <= maxSize && height <= maxSize {
		return width, height
	}

	ratio := float64(width) / float64(height)

	if width > height {
		return maxSize, int(math.Round(float64(maxSize) / ratio))
	}
	return int(math.Round(float64(maxSize) * ratio)), maxSize
}
