package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

const (
	// thumbnailSize bounds the downsampled cover before quantization.
	thumbnailSize = 64

	// accentTint is how far the accent is blended from the dominant color toward white.
	accentTint = 0.85
)

var _ ports.ColorExtractor = (*CoverColorExtractor)(nil)

// ErrNoOpaquePixels is returned for covers without a single visible pixel.
var ErrNoOpaquePixels = errors.New("cover has no opaque pixels")

// CoverColorExtractor derives theme colors from cover images under the media directory.
type CoverColorExtractor struct {
	mediaDir string
}

// NewCoverColorExtractor creates a new CoverColorExtractor.
func NewCoverColorExtractor(mediaDir string) *CoverColorExtractor {
	return &CoverColorExtractor{mediaDir: mediaDir}
}

type colorBucket struct {
	sum   colorful.Color
	count int
}

// Extract picks the dominant color of the cover and a light accent derived from it.
func (e *CoverColorExtractor) Extract(ctx context.Context, imageURL string) (domain.ThemeColors, error) {
	path, err := MediaPath(e.mediaDir, imageURL)
	if err != nil {
		return domain.ThemeColors{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.ThemeColors{}, fmt.Errorf("failed to open cover: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return domain.ThemeColors{}, fmt.Errorf("failed to decode cover: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.ThemeColors{}, err
	}

	return ExtractTheme(img)
}

// ExtractTheme quantizes a downsampled copy of img and returns its theme colors.
// The dominant color favors frequent, saturated buckets over greys.
func ExtractTheme(img image.Image) (domain.ThemeColors, error) {
	small := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Bilinear)

	buckets := make(map[uint16]*colorBucket)
	bounds := small.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(small.At(x, y))
			if !ok {
				continue
			}
			r, g, b := c.RGB255()
			key := uint16(r>>4)<<8 | uint16(g>>4)<<4 | uint16(b>>4)

			bucket := buckets[key]
			if bucket == nil {
				bucket = &colorBucket{}
				buckets[key] = bucket
			}
			bucket.sum.R += c.R
			bucket.sum.G += c.G
			bucket.sum.B += c.B
			bucket.count++
		}
	}

	if len(buckets) == 0 {
		return domain.ThemeColors{}, ErrNoOpaquePixels
	}

	var dominant colorful.Color
	bestScore := -1.0
	for _, key := range slices.Sorted(maps.Keys(buckets)) {
		bucket := buckets[key]
		n := float64(bucket.count)
		mean := colorful.Color{R: bucket.sum.R / n, G: bucket.sum.G / n, B: bucket.sum.B / n}
		_, chroma, _ := mean.Hcl()
		score := n * (0.25 + chroma)
		if score > bestScore {
			bestScore = score
			dominant = mean
		}
	}

	dominant = dominant.Clamped()
	accent := dominant.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, accentTint).Clamped()

	return domain.ThemeColors{
		Dominant: strings.ToUpper(dominant.Hex()),
		Accent:   strings.ToUpper(accent.Hex()),
	}, nil
}
