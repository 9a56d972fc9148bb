package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/middleware"
)

// Me returns the authenticated user's record. Requires the bearer auth
// middleware to have run.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.directory.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, auth.ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
