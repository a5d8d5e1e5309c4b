package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
