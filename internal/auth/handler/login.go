package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.resolver.ResolveLocal(
		c.Request.Context(),
		req.Identifier,
		req.Password,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.issuer.IssueFor(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTokens(c, pair, user, http.StatusOK)
}
