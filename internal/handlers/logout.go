package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Logout revokes the refresh token. Access tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := decodeJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		_ = c.Error(err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
