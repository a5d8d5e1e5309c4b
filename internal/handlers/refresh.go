package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh trades a refresh token for a new pair. Each refresh token works once.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := decodeJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
