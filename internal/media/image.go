package media

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	"mundotango/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageSize = 2048
	WebPQuality  = 75
)

// NormalizeImage decodes an uploaded image, fits it inside
// MaxImageSize x MaxImageSize and re-encodes it as WebP.
func NormalizeImage(content []byte) ([]byte, image.Rectangle, error) {
	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, image.Rectangle{}, models.NewValidationError("Invalid image file")
	}
	if decodedFormatToMime(format) == "" {
		return nil, image.Rectangle{}, models.NewValidationError("Unsupported image format")
	}

	fitted := resizeToFit(decoded, MaxImageSize, MaxImageSize)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, toRGBA(fitted), &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, image.Rectangle{}, models.NewInternalError(err)
	}
	return buf.Bytes(), fitted.Bounds(), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// toRGBA gives the encoder a zero-origin RGBA image; paletted GIF frames
// and YCbCr JPEGs are converted.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func isImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
