package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hqdung24/Nestjs-auth/internal/logger"
)

type federatedRequest struct {
	Token string `json:"token" binding:"required"`
}

// Federated authenticates a Google-issued identity assertion posted by
// the client: verify, resolve, issue.
func (h *Handler) Federated(c *gin.Context) {
	var req federatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	user, isNew, err := h.resolver.ResolveFederated(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.issuer.IssueFor(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("federated login", map[string]any{
		"user_id": user.ID,
		"new":     isNew,
	})

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	h.respondTokens(c, pair, user, status)
}
