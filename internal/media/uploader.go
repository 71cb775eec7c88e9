package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"mundotango/internal/models"
	"mundotango/internal/observability"

	"github.com/google/uuid"
)

var passthroughTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"application/pdf": ".pdf",
}

// Upload describes a stored object.
type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Uploader turns assembled chunks into stored media.
type Uploader struct {
	store   Store
	chunks  *Chunks
	baseURL string
}

// NewUploader publishes objects under baseURL, e.g. "https://cdn.example.com/media".
func NewUploader(store Store, chunks *Chunks, baseURL string) *Uploader {
	return &Uploader{store: store, chunks: chunks, baseURL: strings.TrimRight(baseURL, "/")}
}

func (u *Uploader) SaveChunk(ctx context.Context, in ChunkInput) (int64, error) {
	return u.chunks.Save(ctx, in)
}

// Complete assembles the upload and stores it. Images are normalized to
// WebP; videos and PDFs are stored as received.
func (u *Uploader) Complete(ctx context.Context, ownerID uint, uploadID string) (*Upload, error) {
	content, err := u.chunks.Assemble(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}
	return u.Store(ctx, ownerID, content)
}

// Store validates content by sniffing it and writes it to the backing store.
func (u *Uploader) Store(ctx context.Context, ownerID uint, content []byte) (*Upload, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	detected := normalizeContentType(http.DetectContentType(content))

	out := &Upload{ContentType: detected}
	ext, ok := passthroughTypes[detected]
	switch {
	case isImageMIME(detected):
		normalized, bounds, err := NormalizeImage(content)
		if err != nil {
			return nil, err
		}
		content = normalized
		out.ContentType = "image/webp"
		out.Width, out.Height = bounds.Dx(), bounds.Dy()
		ext = ".webp"
	case !ok:
		return nil, models.NewValidationError(fmt.Sprintf("Unsupported file type %s", detected))
	}

	out.Key = path.Join(
		fmt.Sprintf("u%d", ownerID),
		time.Now().UTC().Format("2006/01"),
		uuid.NewString()+ext,
	)
	out.Size = int64(len(content))
	if err := u.store.Put(ctx, out.Key, bytes.NewReader(content), out.Size, out.ContentType); err != nil {
		observability.Logger.ErrorContext(ctx, "media store failed", "key", out.Key, "error", err)
		return nil, models.NewInternalError(err)
	}
	out.URL = u.baseURL + "/" + out.Key
	return out, nil
}
