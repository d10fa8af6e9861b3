package handler

import (
	"context"
	"errors"
	"net/http"

	"teamtracker/internal/apperr"
	"teamtracker/internal/model"
	"teamtracker/internal/service/project"
	"teamtracker/pkg/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	svc    *project.Service
	logger *zap.Logger
}

func NewProjectHandler(svc *project.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// ListAll handles GET /projects/all/
func (h *ProjectHandler) ListAll(c *gin.Context) {
	projects, err := h.svc.ListAll(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, h.logger, "ListProjects", err)
		return
	}

	h.logger.Info("ListProjects: success",
		zap.Int64("user_id", subject(c).UserID),
		zap.Int("project_count", len(projects)),
	)
	c.JSON(http.StatusOK, projects)
}

// Create handles POST /projects/
func (h *ProjectHandler) Create(c *gin.Context) {
	var in project.Input
	if err := bindJSON(c, &in); err != nil {
		return
	}

	p, err := h.svc.Create(c.Request.Context(), subject(c), in)
	if err != nil {
		respondError(c, h.logger, "CreateProject", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get handles GET /projects/:id/
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	p, err := h.svc.Get(c.Request.Context(), subject(c), id)
	if err != nil {
		respondError(c, h.logger, "GetProject", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update handles PUT /projects/:id/
func (h *ProjectHandler) Update(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH /projects/:id/
func (h *ProjectHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *ProjectHandler) update(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in project.Input
	if err := bindJSON(c, &in); err != nil {
		return
	}

	p, err := h.svc.Update(c.Request.Context(), subject(c), id, in, partial)
	if err != nil {
		respondError(c, h.logger, "UpdateProject", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /projects/:id/
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), subject(c), id); err != nil {
		respondError(c, h.logger, "DeleteProject", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMember handles POST /projects/:id/add_member/
func (h *ProjectHandler) AddMember(c *gin.Context) {
	h.editMembership(c, "AddMember", h.svc.AddMember, "Team member added")
}

// RemoveMember handles POST /projects/:id/remove_member/
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	h.editMembership(c, "RemoveMember", h.svc.RemoveMember, "Team member removed")
}

func (h *ProjectHandler) editMembership(
	c *gin.Context,
	op string,
	apply func(ctx context.Context, caller rbac.Subject, projectID, userID int64) error,
	status string,
) {
	projectID, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		UserID *model.ID `json:"user_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		return
	}
	if req.UserID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"user_id": []string{apperr.MsgRequired}})
		return
	}
	userID := int64(*req.UserID)

	if err := apply(c.Request.Context(), subject(c), projectID, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.logger.Warn(op+": user or project not found",
				zap.Int64("project_id", projectID),
				zap.Int64("user_id", userID),
			)
			c.JSON(http.StatusNotFound, gin.H{"error": "User or project not found"})
			return
		}
		respondError(c, h.logger, op, err)
		return
	}

	h.logger.Info(op+": success",
		zap.Int64("project_id", projectID),
		zap.Int64("user_id", userID),
	)
	c.JSON(http.StatusOK, gin.H{"status": status})
}
