package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sudhirsriram/bgstudio/internal/domain"
	"github.com/sudhirsriram/bgstudio/internal/dto"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

type SessionHandler struct {
	service domain.SessionService
	handles domain.HandleRegistry
}

func NewSessionHandler(service domain.SessionService, handles domain.HandleRegistry) *SessionHandler {
	return &SessionHandler{
		service: service,
		handles: handles,
	}
}

func (h *SessionHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.POST("/session", h.UploadImage)
	engine.GET("/session", h.GetSession)
	engine.POST("/session/process", h.ProcessImage)
	engine.GET("/session/download", h.DownloadResult)
	engine.DELETE("/session", h.DeleteSession)
	engine.PUT("/session/drag", h.SetDragState)
	engine.GET("/blob/:id", h.ServeBlob)
}

// UploadImage POST /session
func (h *SessionHandler) UploadImage(c *ginext.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "No image file provided",
		})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	session, err := h.service.Upload(
		c.Request.Context(),
		header.Filename,
		mimeType,
		header.Size,
		file,
	)
	if err != nil {
		h.writeError(c, err, "upload_failed", "Failed to upload image")
		return
	}

	c.JSON(http.StatusCreated, dto.MapSessionToResponse(session, h.service.DragOver()))
}

// GetSession GET /session
func (h *SessionHandler) GetSession(c *ginext.Context) {
	session, ok := h.service.State(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "no_session",
			Message: "No image is currently loaded",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionToResponse(session, h.service.DragOver()))
}

// ProcessImage POST /session/process
func (h *SessionHandler) ProcessImage(c *ginext.Context) {
	session, err := h.service.Process(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "process_failed", "Failed to start background removal")
		return
	}

	c.JSON(http.StatusAccepted, dto.MapSessionToResponse(session, h.service.DragOver()))
}

// DownloadResult GET /session/download
func (h *SessionHandler) DownloadResult(c *ginext.Context) {
	data, filename, err := h.service.Download(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "download_failed", "Failed to download result")
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "image/png", data)
}

// DeleteSession DELETE /session
func (h *SessionHandler) DeleteSession(c *ginext.Context) {
	if err := h.service.Delete(c.Request.Context()); err != nil {
		h.writeError(c, err, "delete_failed", "Failed to delete session")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetDragState PUT /session/drag
func (h *SessionHandler) SetDragState(c *ginext.Context) {
	var req dto.DragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Body must be {\"over\": bool}",
		})
		return
	}

	h.service.SetDragOver(req.Over)
	c.JSON(http.StatusOK, ginext.H{"drag_over": req.Over})
}

// ServeBlob GET /blob/:id
func (h *SessionHandler) ServeBlob(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Blob ID is required",
		})
		return
	}

	data, mimeType, err := h.handles.Open(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHandleNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "Blob not found or already released",
			})
			return
		}
		zlog.Logger.Error().Err(err).Str("handle_id", id).Msg("failed to serve blob")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to retrieve blob",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", id))
	c.Data(http.StatusOK, mimeType, data)
}

func (h *SessionHandler) writeError(c *ginext.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidType):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_type",
			Message: "Unsupported file format. Allowed: JPEG, PNG, WebP",
		})
	case errors.Is(err, domain.ErrTooLarge):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "too_large",
			Message: "File size exceeds maximum allowed",
		})
	case errors.Is(err, domain.ErrCompressionFailed):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   "compression_failed",
			Message: "Image could not be decoded or compressed",
		})
	case errors.Is(err, domain.ErrNoSession):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "no_session",
			Message: "No image is currently loaded",
		})
	case errors.Is(err, domain.ErrNotCompleted):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_ready",
			Message: "Background removal has not completed yet",
		})
	default:
		zlog.Logger.Error().Err(err).Msg(fallbackMsg)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   fallbackCode,
			Message: fallbackMsg,
		})
	}
}
