package handler

import (
	"net/http"
	"strconv"

	"teamtracker/internal/apperr"
	"teamtracker/internal/service/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	svc    *task.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// List handles GET /tasks/?project_id=
func (h *TaskHandler) List(c *gin.Context) {
	var projectID *int64
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("ListTasks: invalid project_id format",
				zap.String("project_id", raw),
				zap.Error(err),
			)
			c.JSON(http.StatusBadRequest, gin.H{"project_id": []string{apperr.MsgInvalidInt}})
			return
		}
		projectID = &id
	}

	tasks, err := h.svc.List(c.Request.Context(), subject(c), projectID)
	if err != nil {
		respondError(c, h.logger, "ListTasks", err)
		return
	}

	h.logger.Info("ListTasks: success",
		zap.Int64("user_id", subject(c).UserID),
		zap.Int("task_count", len(tasks)),
	)
	c.JSON(http.StatusOK, tasks)
}

// Create handles POST /tasks/
func (h *TaskHandler) Create(c *gin.Context) {
	var in task.Input
	if err := bindJSON(c, &in); err != nil {
		return
	}

	t, err := h.svc.Create(c.Request.Context(), subject(c), in)
	if err != nil {
		respondError(c, h.logger, "CreateTask", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Get handles GET /tasks/:id/
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	t, err := h.svc.Get(c.Request.Context(), subject(c), id)
	if err != nil {
		respondError(c, h.logger, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Update handles PUT /tasks/:id/
func (h *TaskHandler) Update(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH /tasks/:id/
func (h *TaskHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *TaskHandler) update(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in task.Input
	if err := bindJSON(c, &in); err != nil {
		return
	}

	t, err := h.svc.Update(c.Request.Context(), subject(c), id, in, partial)
	if err != nil {
		respondError(c, h.logger, "UpdateTask", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /tasks/:id/
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), subject(c), id); err != nil {
		respondError(c, h.logger, "DeleteTask", err)
		return
	}
	c.Status(http.StatusNoContent)
}
