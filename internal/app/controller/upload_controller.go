package controller

import (
	"context"
	"net/http"

	apperrors "github.com/commonapply/verification-backend/internal/errors"
	"github.com/commonapply/verification-backend/internal/middleware"
	"github.com/commonapply/verification-backend/internal/storage"
	"github.com/gin-gonic/gin"
)

// MaxDocumentSize is the largest verification document accepted (10MB)
const MaxDocumentSize int64 = 10 << 20

var allowedDocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
}

// DocumentUploader issues presigned upload URLs for verification documents
type DocumentUploader interface {
	GeneratePresignedURLWithFolder(ctx context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error)
	ValidateFileSize(size int64, maxSize int64) error
	ValidateContentType(contentType string, allowedTypes []string) error
}

type UploadController struct {
	storage DocumentUploader
}

func NewUploadController(storage DocumentUploader) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// GeneratePresignedURL generates a presigned URL for uploading a verification document to S3
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.storage.ValidateContentType(req.ContentType, allowedDocumentTypes); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only PDF, Word, JPEG and PNG documents are allowed")
		return
	}

	if err := ctrl.storage.ValidateFileSize(req.Size, MaxDocumentSize); err != nil {
		log.Warn("Document too large", map[string]interface{}{
			"size": req.Size,
		})
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Documents must be 10MB or smaller")
		return
	}

	response, err := ctrl.storage.GeneratePresignedURLWithFolder(c.Request.Context(), req.Filename, req.ContentType, storage.DocumentFolder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to generate upload URL")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"filename":     req.Filename,
		"content_type": req.ContentType,
		"key":          response.Key,
	})

	c.JSON(http.StatusOK, gin.H{
		"upload_url": response.UploadURL,
		"file_url":   response.FileURL,
		"key":        response.Key,
	})
}
