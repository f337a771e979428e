package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/storage"
)

// uploadMaxBytes caps a single image upload.
const uploadMaxBytes = 10 << 20

type UploadHandler struct {
	uploader storage.Uploader
}

func NewUploadHandler(uploader storage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload accepts a multipart "file" field and returns the stored URL.
// The folder form field routes images to products/, payment-proofs/
// and so on.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > uploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploadMaxBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	folder := c.DefaultPostForm("folder", "uploads")
	url, err := h.uploader.Upload(c.Request.Context(), data, folder, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusCreated, dto.UploadResponse{URL: url})
}

// Delete removes a previously stored asset by its public id, so a
// replaced product image does not linger in storage. The id arrives as
// a wildcard path segment and keeps its folder slashes.
func (h *UploadHandler) Delete(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("publicId"), "/")
	if publicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "public id is required"})
		return
	}
	if err := h.uploader.Delete(c.Request.Context(), publicID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
