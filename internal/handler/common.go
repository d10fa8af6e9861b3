package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"teamtracker/internal/apperr"
	"teamtracker/internal/model"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextUserKey is where the auth middleware stores the resolved *model.User.
const ContextUserKey = "user"

const (
	detailNotFound         = "Not found."
	detailPermissionDenied = "You do not have permission to perform this action."
)

var errBadRequest = errors.New("bad request body")

// CurrentUser returns the authenticated caller. Only valid behind the auth middleware.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

func subject(c *gin.Context) rbac.Subject {
	if u := CurrentUser(c); u != nil {
		return u.Subject()
	}
	return rbac.Subject{}
}

// pathID parses the :id parameter. Anything but a positive integer is a 404,
// matching how the routes only ever resolve numeric ids.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into out. An empty body decodes as {}.
// On failure it has already written a 400 and returns errBadRequest.
func bindJSON(c *gin.Context, out any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Could not read request body."})
		return errBadRequest
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			expected := typeErr.Type.String()
			if typeErr.Type == model.IDType {
				expected = "pk value"
			}
			c.JSON(http.StatusBadRequest, gin.H{
				typeErr.Field: []string{"Incorrect type. Expected " + expected + ", received " + typeErr.Value + "."},
			})
			return errBadRequest
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return errBadRequest
	}
	return nil
}

// respondError maps service errors to status codes and logs by severity:
// client errors at Warn, everything else at Error.
func respondError(c *gin.Context, log *zap.Logger, op string, err error) {
	log = logger.WithTrace(c.Request.Context(), log)

	var verr *apperr.ValidationError
	var denied *rbac.PermissionDeniedError

	switch {
	case errors.As(err, &verr):
		log.Warn(op+": validation failed", zap.Any("fields", verr.Fields))
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, apperr.ErrNotFound):
		log.Warn(op + ": not found")
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.As(err, &denied):
		log.Warn(op+": permission denied",
			zap.Int64("user_id", denied.UserID),
			zap.String("permission", denied.Permission),
		)
		c.JSON(http.StatusForbidden, gin.H{"detail": detailPermissionDenied})
	default:
		log.Error(op+": internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
