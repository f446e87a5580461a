// Package imaging normalizes uploads: validates the format, scales wide
// images down and re-encodes everything as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const ContentType = "image/jpeg"

// DefaultMaxPixels bounds the decoded bitmap of an upload, about 40 MP.
const DefaultMaxPixels = 40_000_000

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

type Result struct {
	Filename string
	Data     []byte
}

func (r *Result) Size() int64 { return int64(len(r.Data)) }

type Processor struct {
	MaxWidth  int
	Quality   int
	MaxBytes  int
	// MaxPixels caps width*height before decoding. Zero disables the check.
	MaxPixels int
	now       func() time.Time
}

func NewProcessor(maxWidth, quality, maxBytes int) *Processor {
	return &Processor{
		MaxWidth:  maxWidth,
		Quality:   quality,
		MaxBytes:  maxBytes,
		MaxPixels: DefaultMaxPixels,
		now:       time.Now,
	}
}

// Process decodes raw, shrinks it to MaxWidth without enlarging, and encodes
// JPEG. Any decoding problem is reported as apperrors.ErrInvalidImage.
func (p *Processor) Process(raw []byte, originalName string) (*Result, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty upload", apperrors.ErrInvalidImage)
	}
	if p.MaxBytes > 0 && len(raw) > p.MaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", apperrors.ErrInvalidImage, p.MaxBytes)
	}
	if !AllowedType(DetectType(raw)) {
		return nil, fmt.Errorf("%w: unsupported type %s", apperrors.ErrInvalidImage, DetectType(raw))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions", apperrors.ErrInvalidImage)
	}
	if p.MaxPixels > 0 && cfg.Width > p.MaxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", apperrors.ErrInvalidImage, cfg.Width, cfg.Height, p.MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidImage, err)
	}

	img := p.resize(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Result{
		Filename: p.storageName(originalName),
		Data:     buf.Bytes(),
	}, nil
}

func (p *Processor) resize(src image.Image) image.Image {
	b := src.Bounds()
	if p.MaxWidth <= 0 || b.Dx() <= p.MaxWidth {
		return src
	}
	height := b.Dy() * p.MaxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, p.MaxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// storageName never reuses the uploader's name as a path: it keeps only a
// sanitized stem.
func (p *Processor) storageName(originalName string) string {
	stem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "_")
	if len(stem) > 50 {
		stem = stem[:50]
	}
	if stem == "" {
		stem = "photo"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("processed_%s_%d_%s.jpg", stem, p.now().UnixMilli(), suffix)
}

// DetectType sniffs the MIME type from the content, ignoring client claims.
func DetectType(raw []byte) string {
	return http.DetectContentType(raw)
}

func AllowedType(contentType string) bool {
	return allowedTypes[contentType]
}
