package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-planner/backend/internal/middleware"
	"task-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func newTestAuth() *services.AuthServiceImpl {
	return services.NewAuthService(nil, services.NewMemoryTokenStore(), services.AuthConfig{
		Secret:    testSecret,
		Issuer:    "task-planner",
		AccessTTL: time.Minute,
	})
}

func setupProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AuthzMiddleware(newTestAuth()))
	router.GET("/protected", func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return router
}

func callProtected(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthzMiddleware_NoToken(t *testing.T) {
	w := callProtected(setupProtectedRouter(), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing_token")
}

func TestAuthzMiddleware_InvalidFormat(t *testing.T) {
	router := setupProtectedRouter()

	for _, header := range []string{"Token abc", "Bearer", "Bearer   "} {
		w := callProtected(router, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), "invalid_token_format", header)
	}
}

func TestAuthzMiddleware_InvalidToken(t *testing.T) {
	w := callProtected(setupProtectedRouter(), "Bearer invalid_token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_token")
}

func TestAuthzMiddleware_ExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": uuid.Must(uuid.NewV4()).String(),
		"iss":     "task-planner",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := callProtected(setupProtectedRouter(), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthzMiddleware_ValidToken(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	pair, err := newTestAuth().GenerateTokens(context.Background(), userID)
	require.NoError(t, err)

	w := callProtected(setupProtectedRouter(), "bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}
