package handler

import (
	"net/http"

	"teamtracker/internal/service/directory"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc    *directory.Service
	logger *zap.Logger
}

func NewUserHandler(svc *directory.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// List handles GET /users/
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.ListAll(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, h.logger, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
