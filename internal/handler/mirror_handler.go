package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-admin/enrollment-api/internal/service"
	"github.com/uni-admin/enrollment-api/pkg/response"
)

// MirrorHandler exposes the admin maintenance endpoint for the read mirror.
type MirrorHandler struct {
	mirrors *service.MirrorService
}

// NewMirrorHandler constructs MirrorHandler.
func NewMirrorHandler(mirrors *service.MirrorService) *MirrorHandler {
	return &MirrorHandler{mirrors: mirrors}
}

// Rebuild godoc
// @Summary Rebuild the in-memory mirror from the store
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mirror/rebuild [post]
func (h *MirrorHandler) Rebuild(c *gin.Context) {
	if err := h.mirrors.Rebuild(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "rebuilt"}, nil)
}
