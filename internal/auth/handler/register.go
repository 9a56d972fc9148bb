package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hqdung24/Nestjs-auth/internal/auth/resolver"
)

type registerRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username"`
	Password  string `json:"password" binding:"required,min=8"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.resolver.RegisterLocal(c.Request.Context(), resolver.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.issuer.IssueFor(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTokens(c, pair, user, http.StatusCreated)
}
