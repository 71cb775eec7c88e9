package server

import (
	"strconv"

	"mundotango/internal/media"
	"mundotango/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadChunk handles POST /api/upload/chunk
// @Summary Upload one chunk
// @Description Multipart form with upload_id (uuid), index, total and the chunk file.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param upload_id formData string true "Upload ID (uuid)"
// @Param index formData int true "Zero-based chunk index"
// @Param total formData int true "Number of chunks"
// @Param chunk formData file true "Chunk content"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /upload/chunk [post]
func (s *Server) UploadChunk(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.FormValue("index"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("index is required"))
	}
	total, err := strconv.Atoi(c.FormValue("total"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("total is required"))
	}
	fh, err := c.FormFile("chunk")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("chunk file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read chunk"))
	}
	defer f.Close()

	uploadID := c.FormValue("upload_id")
	n, err := s.uploader.SaveChunk(c.UserContext(), media.ChunkInput{
		OwnerID:  userID(c),
		UploadID: uploadID,
		Index:    index,
		Total:    total,
		Content:  f,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.SendResponse(c, fiber.Map{"upload_id": uploadID, "index": index, "size": n}, "Chunk received")
}

// CompleteUpload handles POST /api/upload/complete
// @Summary Assemble an upload
// @Description Joins the chunks in index order, normalizes images to WebP and stores the file.
// @Tags uploads
// @Accept json
// @Produce json
// @Param request body object{upload_id=string} true "Upload to complete"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /upload/complete [post]
func (s *Server) CompleteUpload(c *fiber.Ctx) error {
	var req struct {
		UploadID string `json:"upload_id" form:"upload_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UploadID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("upload_id is required"))
	}
	up, err := s.uploader.Complete(c.UserContext(), userID(c), req.UploadID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.SendResponse(c, up, "Upload complete")
}
