package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
)

// maxPhotoBytes bounds uploads; phone photos compress well below this.
const maxPhotoBytes = 10 << 20

// FilesHandler serves photo upload and download backed by GridFS.
type FilesHandler struct {
	photos *mongodb.PhotoStore
	logger *zap.Logger
}

// NewFilesHandler constructs the HTTP adapter for file storage.
func NewFilesHandler(photos *mongodb.PhotoStore, logger *zap.Logger) *FilesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesHandler{photos: photos, logger: logger}
}

// Upload stores a multipart photo and returns its reference path.
func (h *FilesHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	id, err := h.photos.Save(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("photo upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store photo"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "url": "/files/" + id})
}

// Download streams a stored photo.
func (h *FilesHandler) Download(c *gin.Context) {
	c.Header("Content-Type", "application/octet-stream")
	if _, err := h.photos.WriteTo(c.Request.Context(), c.Param("id"), c.Writer); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
			return
		}
		h.logger.Error("photo download failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load photo"})
	}
}
