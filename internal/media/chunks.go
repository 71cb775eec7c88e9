package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mundotango/internal/models"
	"mundotango/internal/observability"

	"github.com/google/uuid"
)

const (
	DefaultMaxUploadMB = 10
	MaxChunks          = 1000
	metaFile           = "meta"
)

// ChunkInput is one part of a chunked upload.
type ChunkInput struct {
	OwnerID  uint
	UploadID string
	Index    int
	Total    int
	Content  io.Reader
}

// Chunks keeps upload parts on disk until they are assembled.
type Chunks struct {
	dir      string
	maxBytes int64
}

// NewChunks stores parts under <uploadDir>/chunks.
func NewChunks(uploadDir string, maxUploadMB int) (*Chunks, error) {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	dir := filepath.Join(uploadDir, "chunks")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	return &Chunks{dir: dir, maxBytes: int64(maxUploadMB) * 1024 * 1024}, nil
}

// MaxBytes is the largest assembled upload accepted.
func (c *Chunks) MaxBytes() int64 {
	return c.maxBytes
}

// Save writes one chunk. The first chunk fixes the owner and the chunk count
// of the upload; later chunks must agree with both.
func (c *Chunks) Save(_ context.Context, in ChunkInput) (int64, error) {
	dir, err := c.uploadDir(in.UploadID)
	if err != nil {
		return 0, err
	}
	if in.Total <= 0 || in.Total > MaxChunks {
		return 0, models.NewValidationError(fmt.Sprintf("total must be between 1 and %d", MaxChunks))
	}
	if in.Index < 0 || in.Index >= in.Total {
		return 0, models.NewValidationError("chunk index out of range")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, models.NewInternalError(err)
	}

	owner, total, err := readMeta(dir)
	switch {
	case os.IsNotExist(err):
		meta := fmt.Sprintf("%d %d", in.OwnerID, in.Total)
		if err := os.WriteFile(filepath.Join(dir, metaFile), []byte(meta), 0o600); err != nil {
			return 0, models.NewInternalError(err)
		}
	case err != nil:
		return 0, models.NewInternalError(err)
	case owner != in.OwnerID:
		return 0, models.NewForbiddenError("upload belongs to another user")
	case total != in.Total:
		return 0, models.NewValidationError("chunk total does not match upload")
	}

	out, err := os.Create(filepath.Join(dir, chunkName(in.Index)))
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	defer out.Close()
	n, err := io.Copy(out, io.LimitReader(in.Content, c.maxBytes+1))
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if n > c.maxBytes {
		return 0, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", c.maxBytes/(1024*1024)))
	}
	observability.UploadedBytes.Add(float64(n))
	return n, nil
}

// Assemble concatenates every chunk in index order and discards the parts.
// It fails when any chunk is missing or the result exceeds the size limit.
func (c *Chunks) Assemble(_ context.Context, ownerID uint, uploadID string) ([]byte, error) {
	dir, err := c.uploadDir(uploadID)
	if err != nil {
		return nil, err
	}
	owner, total, err := readMeta(dir)
	if os.IsNotExist(err) {
		return nil, models.NewNotFoundError("Upload", uploadID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if owner != ownerID {
		return nil, models.NewForbiddenError("upload belongs to another user")
	}

	var missing []string
	for i := 0; i < total; i++ {
		if _, err := os.Stat(filepath.Join(dir, chunkName(i))); err != nil {
			missing = append(missing, strconv.Itoa(i))
		}
	}
	if len(missing) > 0 {
		return nil, models.NewValidationError("missing chunks: " + strings.Join(missing, ","))
	}

	var buf bytes.Buffer
	for i := 0; i < total; i++ {
		part, err := os.ReadFile(filepath.Join(dir, chunkName(i)))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if int64(buf.Len()+len(part)) > c.maxBytes {
			_ = os.RemoveAll(dir)
			return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", c.maxBytes/(1024*1024)))
		}
		buf.Write(part)
	}
	if err := os.RemoveAll(dir); err != nil {
		observability.Logger.Warn("failed to remove upload chunks", "upload_id", uploadID, "error", err)
	}
	return buf.Bytes(), nil
}

// uploadDir maps an upload id to its directory. Only uuids are accepted so
// ids can never escape the chunk root.
func (c *Chunks) uploadDir(uploadID string) (string, error) {
	id, err := uuid.Parse(uploadID)
	if err != nil {
		return "", models.NewValidationError("invalid upload_id")
	}
	return filepath.Join(c.dir, id.String()), nil
}

func chunkName(index int) string {
	return fmt.Sprintf("%06d.part", index)
}

func readMeta(dir string) (owner uint, total int, err error) {
	raw, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return 0, 0, err
	}
	var o uint64
	if _, err := fmt.Sscanf(string(raw), "%d %d", &o, &total); err != nil {
		return 0, 0, fmt.Errorf("read upload meta: %w", err)
	}
	return uint(o), total, nil
}
