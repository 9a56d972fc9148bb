package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hqdung24/Nestjs-auth/internal/logger"
)

// oauthLogin starts the browser code flow for the named provider.
func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown_provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

// oauthCallback finishes the code flow: exchange the code, then run the
// raw ID token through the same verify/resolve/issue pipeline as
// POST /auth/federated.
func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown_provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid_state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_failed"})
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing_pkce_verifier",
		})
		return
	}

	rawAssertion, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		logger.Warn("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_failed"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), rawAssertion)
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

	logger.Info("oauth login", map[string]any{
		"provider": providerName,
		"user_id":  user.ID,
		"new":      isNew,
	})

	h.respondTokens(c, pair, user, http.StatusOK)
}
