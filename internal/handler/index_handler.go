package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"docchat/internal/pkg/errcode"
	appErr "docchat/internal/pkg/errors"
	"docchat/internal/pkg/response"
	"docchat/internal/service"
)

type IndexHandler struct {
	index *service.IndexService
}

func NewIndexHandler(index *service.IndexService) *IndexHandler {
	return &IndexHandler{index: index}
}

type indexRequest struct {
	ClearExisting bool `json:"clear_existing"`
}

// Index runs a full indexing pass. Empty-corpus conditions come back as a
// successful result with a descriptive entry in errors.
func (h *IndexHandler) Index(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result := h.index.Index(c.Request.Context(), req.ClearExisting)
	response.Success(c, result)
}

func (h *IndexHandler) Status(c *gin.Context) {
	response.Success(c, gin.H{
		"document_count": h.index.Status(c.Request.Context()),
	})
}

func (h *IndexHandler) Clear(c *gin.Context) {
	h.index.Clear(c.Request.Context())
	response.Success(c, gin.H{"status": "cleared"})
}

func (h *IndexHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "missing file")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to read upload")
		return
	}
	defer src.Close()
	key, err := h.index.Upload(c.Request.Context(), file.Filename, src)
	if err != nil {
		if errors.Is(err, appErr.ErrInvalid) {
			response.Error(c, errcode.ErrInvalid, "unsupported file type")
			return
		}
		response.Error(c, errcode.ErrUploadFailed, "upload failed")
		return
	}
	response.Success(c, gin.H{"key": key})
}
