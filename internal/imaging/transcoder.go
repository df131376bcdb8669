// Package imaging converts stored assets between image encodings. Conversion
// is a pure function over bytes: no state, no I/O beyond decode/encode.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"

	"pixvault/internal/domain"
)

// Result is the outcome of one conversion. Data and MimeType are always
// consistent with the requested format.
type Result struct {
	Data     []byte
	MimeType string
}

// Convert decodes src and re-encodes it in the target format. Quality
// (1-100) applies to jpeg and webp; png is lossless and ignores it.
// domain.FormatOriginal never reaches this function; callers pass the source
// bytes through verbatim instead.
func Convert(src []byte, format domain.ExportFormat, quality int) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode source: %w", err)
	}
	quality = clampQuality(quality)

	buf := &bytes.Buffer{}
	switch format {
	case domain.FormatPNG:
		if err := png.Encode(buf, img); err != nil {
			return nil, fmt.Errorf("imaging: encode png: %w", err)
		}
	case domain.FormatJPEG:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
	case domain.FormatWebP:
		if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("imaging: encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("imaging: %q: %w", format, domain.ErrUnsupportedFormat)
	}
	return &Result{Data: buf.Bytes(), MimeType: MimeType(format)}, nil
}

// MimeType returns the MIME type produced for a conversion format.
func MimeType(format domain.ExportFormat) string {
	switch format {
	case domain.FormatPNG:
		return "image/png"
	case domain.FormatJPEG:
		return "image/jpeg"
	case domain.FormatWebP:
		return "image/webp"
	}
	return ""
}

// Extension returns the file extension for a conversion format, without dot.
func Extension(format domain.ExportFormat) string {
	switch format {
	case domain.FormatPNG:
		return "png"
	case domain.FormatJPEG:
		return "jpg"
	case domain.FormatWebP:
		return "webp"
	}
	return ""
}

// ReplaceExtension swaps the extension of name for the format's extension,
// e.g. "sunset.png" -> "sunset.webp".
func ReplaceExtension(name string, format domain.ExportFormat) string {
	ext := Extension(format)
	if ext == "" {
		return name
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name + "." + ext
}

func clampQuality(q int) int {
	if q < domain.MinQuality {
		return domain.DefaultQuality
	}
	if q > domain.MaxQuality {
		return domain.MaxQuality
	}
	return q
}
