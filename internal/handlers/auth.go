package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/auth"
)

type loginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login signs in an account whose email the identity provider already verified
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := auth.Login(h.store, req.Email)
	if err != nil {
		h.logger.Info("Login rejected", zap.String("email", req.Email), zap.Error(err))
		respondError(c, err)
		return
	}
	h.issue(c, p)
}

// DemoLogin signs in the demo administrator
func (h *Handler) DemoLogin(c *gin.Context) {
	if !h.demoLogin {
		c.JSON(http.StatusNotFound, gin.H{"error": "demo login is disabled"})
		return
	}
	h.issue(c, auth.DemoPrincipal())
}

func (h *Handler) issue(c *gin.Context, p auth.Principal) {
	token, err := h.tokens.Issue(p)
	if err != nil {
		h.logger.Error("Failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	h.logger.Info("Signed in", zap.String("user", p.Email), zap.String("role", string(p.Role)))
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user":       p,
		"role_label": auth.RoleLabel(p.Role),
	})
}

// Me returns the signed-in principal and what it may do
func (h *Handler) Me(c *gin.Context) {
	p := principal(c)
	c.JSON(http.StatusOK, gin.H{
		"user":             p,
		"role_label":       auth.RoleLabel(p.Role),
		"can_manage_data":  auth.CanManageData(p),
		"can_manage_users": auth.CanManageUsers(p),
	})
}

// Logout drops the caller's session state. Tokens expire on their own.
func (h *Handler) Logout(c *gin.Context) {
	defer h.lockSession(c)()
	if err := h.sessions.Delete(c.Request.Context(), principal(c).ID); err != nil {
		h.logger.Warn("Failed to delete session", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
