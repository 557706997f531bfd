package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/usecase"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
	"aeroclassifieds/pkg/response"
)

type FileHandler struct {
	attachmentUseCase *usecase.AttachmentUseCase
	maxFileSize       int64
}

func NewFileHandler(attachmentUseCase *usecase.AttachmentUseCase, maxFileSize int64) *FileHandler {
	return &FileHandler{
		attachmentUseCase: attachmentUseCase,
		maxFileSize:       maxFileSize,
	}
}

// StageAttachment accepts a multipart "file" and returns an attachment whose
// url is a short-lived blob: ref. The ref is swapped for a durable url when a
// message carrying it is sent.
func (h *FileHandler) StageAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		logger.Debug("Error getting file from form: %v", err)
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	logger.Debug("Received file: %s, size: %d bytes, type: %s", file.Filename, file.Size, file.Header.Get("Content-Type"))

	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Error opening file: %v", err)
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	attachment, err := h.attachmentUseCase.Stage(c.Request().Context(), getUserIDFromContext(c), file.Filename, src)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, attachment)
}
