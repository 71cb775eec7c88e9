package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mundotango/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestChunks_AssemblePreservesOrder(t *testing.T) {
	chunks, err := NewChunks(t.TempDir(), 1)
	require.NoError(t, err)
	ctx := context.Background()
	id := uuid.NewString()

	// Out-of-order arrival.
	for _, i := range []int{2, 0, 1} {
		_, err := chunks.Save(ctx, ChunkInput{OwnerID: 7, UploadID: id, Index: i, Total: 3, Content: strings.NewReader(string(rune('a' + i)))})
		require.NoError(t, err)
	}

	out, err := chunks.Assemble(ctx, 7, id)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	_, err = chunks.Assemble(ctx, 7, id)
	assert.Equal(t, models.CodeNotFound, appCode(t, err), "parts are discarded after assembly")
}

func TestChunks_RejectsMissingChunks(t *testing.T) {
	chunks, err := NewChunks(t.TempDir(), 1)
	require.NoError(t, err)
	ctx := context.Background()
	id := uuid.NewString()

	for _, i := range []int{0, 2} {
		_, err := chunks.Save(ctx, ChunkInput{OwnerID: 1, UploadID: id, Index: i, Total: 4, Content: strings.NewReader("x")})
		require.NoError(t, err)
	}

	_, err = chunks.Assemble(ctx, 1, id)
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, appCode(t, err))
	assert.Contains(t, err.Error(), "missing chunks: 1,3")
}

func TestChunks_Validation(t *testing.T) {
	chunks, err := NewChunks(t.TempDir(), 1)
	require.NoError(t, err)
	ctx := context.Background()
	id := uuid.NewString()

	tests := []struct {
		name string
		in   ChunkInput
		code string
	}{
		{"bad id", ChunkInput{OwnerID: 1, UploadID: "../../etc", Index: 0, Total: 1}, models.CodeValidation},
		{"index out of range", ChunkInput{OwnerID: 1, UploadID: id, Index: 1, Total: 1}, models.CodeValidation},
		{"zero total", ChunkInput{OwnerID: 1, UploadID: id, Index: 0, Total: 0}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Content = strings.NewReader("x")
			_, err := chunks.Save(ctx, tt.in)
			assert.Equal(t, tt.code, appCode(t, err))
		})
	}

	_, err = chunks.Save(ctx, ChunkInput{OwnerID: 1, UploadID: id, Index: 0, Total: 2, Content: strings.NewReader("x")})
	require.NoError(t, err)

	_, err = chunks.Save(ctx, ChunkInput{OwnerID: 2, UploadID: id, Index: 1, Total: 2, Content: strings.NewReader("x")})
	assert.Equal(t, models.CodeForbidden, appCode(t, err))

	_, err = chunks.Save(ctx, ChunkInput{OwnerID: 1, UploadID: id, Index: 1, Total: 3, Content: strings.NewReader("x")})
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	_, err = chunks.Assemble(ctx, 2, id)
	assert.Equal(t, models.CodeForbidden, appCode(t, err))
}

func TestChunks_EnforcesSizeLimit(t *testing.T) {
	chunks, err := NewChunks(t.TempDir(), 1)
	require.NoError(t, err)
	ctx := context.Background()
	id := uuid.NewString()
	half := bytes.Repeat([]byte{'z'}, 600*1024)

	for i := 0; i < 2; i++ {
		_, err := chunks.Save(ctx, ChunkInput{OwnerID: 1, UploadID: id, Index: i, Total: 2, Content: bytes.NewReader(half)})
		require.NoError(t, err)
	}
	_, err = chunks.Assemble(ctx, 1, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File too large")
}

func TestNormalizeImage_FitsAndEncodesWebP(t *testing.T) {
	out, bounds, err := NormalizeImage(tinyPNG(t, 3000, 1500))
	require.NoError(t, err)
	assert.Equal(t, MaxImageSize, bounds.Dx())
	assert.Equal(t, MaxImageSize/2, bounds.Dy())

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxImageSize, cfg.Width)

	_, small, err := NormalizeImage(tinyPNG(t, 120, 80))
	require.NoError(t, err)
	assert.Equal(t, 120, small.Dx(), "small images keep their size")

	_, _, err = NormalizeImage([]byte("not an image"))
	assert.Equal(t, models.CodeValidation, appCode(t, err))
}

func TestUploader_StoresThroughFileStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "media"))
	require.NoError(t, err)
	chunks, err := NewChunks(root, 5)
	require.NoError(t, err)
	up := NewUploader(store, chunks, "http://localhost:8375/media/")
	ctx := context.Background()

	content := tinyPNG(t, 64, 64)
	id := uuid.NewString()
	mid := len(content) / 2
	_, err = up.SaveChunk(ctx, ChunkInput{OwnerID: 3, UploadID: id, Index: 0, Total: 2, Content: bytes.NewReader(content[:mid])})
	require.NoError(t, err)
	_, err = up.SaveChunk(ctx, ChunkInput{OwnerID: 3, UploadID: id, Index: 1, Total: 2, Content: bytes.NewReader(content[mid:])})
	require.NoError(t, err)

	res, err := up.Complete(ctx, 3, id)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", res.ContentType)
	assert.True(t, strings.HasPrefix(res.Key, "u3/"))
	assert.True(t, strings.HasSuffix(res.Key, ".webp"))
	assert.Equal(t, "http://localhost:8375/media/"+res.Key, res.URL)

	info, err := os.Stat(filepath.Join(store.Root(), filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	assert.Equal(t, res.Size, info.Size())

	require.NoError(t, store.Delete(ctx, res.Key))
	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(res.Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploader_RejectsUnknownTypes(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	up := NewUploader(store, nil, "")

	_, err = up.Store(context.Background(), 1, []byte("#!/bin/sh\necho hi\n"))
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	_, err = up.Store(context.Background(), 1, nil)
	assert.Equal(t, models.CodeValidation, appCode(t, err))
}

func TestFileStore_KeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain"))
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}
