package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnail holds a generated thumbnail and its dimensions.
type Thumbnail struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Config bounds thumbnail generation.
type Config struct {
	MaxWidth  int // bounding box width (default 300)
	MaxHeight int // bounding box height (default 300)
	Quality   int // JPEG quality 1-100 (default 80)
}

// DefaultConfig returns the default thumbnail bounds.
func DefaultConfig() Config {
	return Config{
		MaxWidth:  300,
		MaxHeight: 300,
		Quality:   80,
	}
}

// Thumbnailer scales images into a bounding box.
type Thumbnailer struct {
	config Config
}

// NewThumbnailer creates a thumbnailer, filling zero config fields with
// defaults.
func NewThumbnailer(config Config) *Thumbnailer {
	def := DefaultConfig()
	if config.MaxWidth <= 0 {
		config.MaxWidth = def.MaxWidth
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = def.MaxHeight
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = def.Quality
	}
	return &Thumbnailer{config: config}
}

// Generate decodes the image, scales it uniformly so it fits the bounding
// box, and re-encodes it as JPEG. The scale ratio is min(maxW/w, maxH/h)
// and is clamped to 1: a source smaller than the box keeps its native size
// instead of being upscaled.
func (t *Thumbnailer) Generate(data []byte) (*Thumbnail, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	ratio := min(float64(t.config.MaxWidth)/float64(srcW), float64(t.config.MaxHeight)/float64(srcH))
	if ratio > 1 {
		ratio = 1
	}

	w := int(float64(srcW) * ratio)
	h := int(float64(srcH) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	thumb := img
	if ratio < 1 {
		thumb = imaging.Resize(img, w, h, imaging.Lanczos)
		w = thumb.Bounds().Dx()
		h = thumb.Bounds().Dy()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(t.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       w,
		Height:      h,
	}, nil
}

// ValidateType checks the file extension against the supported image types.
func ValidateType(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// ReadLimited reads at most maxSize+1 bytes so oversized files are caught
// without buffering them whole.
func ReadLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("file exceeds maximum size of %d bytes", maxSize)
	}
	return data, nil
}
