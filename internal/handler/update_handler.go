package handler

import (
	"net/http"

	"teamtracker/internal/service/update"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UpdateHandler struct {
	svc    *update.Service
	logger *zap.Logger
}

func NewUpdateHandler(svc *update.Service, logger *zap.Logger) *UpdateHandler {
	return &UpdateHandler{svc: svc, logger: logger}
}

// List handles GET /updates/
func (h *UpdateHandler) List(c *gin.Context) {
	updates, err := h.svc.List(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, h.logger, "ListUpdates", err)
		return
	}
	c.JSON(http.StatusOK, updates)
}

// Create handles POST /updates/
func (h *UpdateHandler) Create(c *gin.Context) {
	var in update.Input
	if err := bindJSON(c, &in); err != nil {
		return
	}

	u, err := h.svc.Create(c.Request.Context(), subject(c), in)
	if err != nil {
		respondError(c, h.logger, "CreateUpdate", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}
