package handler

import (
	"errors"
	"net/http"

	"teamtracker/internal/apperr"
	"teamtracker/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /register/
func (h *AuthHandler) Register(c *gin.Context) {
	var in auth.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return
	}

	pair, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "Register", err)
		return
	}

	h.logger.Info("Register: success",
		zap.Int64("user_id", pair.User.ID),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusCreated, pair)
}

// Login handles POST /login/
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "Login", err)
		return
	}

	h.logger.Info("Login: success",
		zap.Int64("user_id", pair.User.ID),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /logout/. Both outcomes carry an empty body.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		h.logger.Warn("Logout: missing refresh token", zap.String("client_ip", c.ClientIP()))
		c.Status(http.StatusBadRequest)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), req.Refresh); err != nil {
		if errors.Is(err, apperr.ErrInvalidToken) {
			h.logger.Warn("Logout: rejected refresh token")
		} else {
			h.logger.Error("Logout: failed to blacklist token", zap.Error(err))
		}
		c.Status(http.StatusBadRequest)
		return
	}

	c.Status(http.StatusResetContent)
}

// Refresh handles POST /token/refresh/
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		Refresh *string `json:"refresh"`
	}
	if err := bindJSON(c, &req); err != nil {
		return
	}
	if req.Refresh == nil {
		c.JSON(http.StatusBadRequest, gin.H{"refresh": []string{apperr.MsgRequired}})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), *req.Refresh)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidToken) {
			h.logger.Warn("Refresh: rejected refresh token", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		respondError(c, h.logger, "Refresh", err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// GetProfile handles GET /profile/
func (h *AuthHandler) GetProfile(c *gin.Context) {
	u, err := h.svc.GetProfile(c.Request.Context(), CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, "GetProfile", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateProfile handles PUT and PATCH /profile/; both are partial.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var in auth.ProfileInput
	if err := bindJSON(c, &in); err != nil {
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), CurrentUser(c).ID, in)
	if err != nil {
		respondError(c, h.logger, "UpdateProfile", err)
		return
	}

	h.logger.Info("UpdateProfile: success", zap.Int64("user_id", u.ID))
	c.JSON(http.StatusOK, u)
}
