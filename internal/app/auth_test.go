package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(staticTokens []string, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(staticTokens, secret))
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func get(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareStaticToken(t *testing.T) {
	router := authRouter([]string{"sekrit"}, "")

	assert.Equal(t, http.StatusOK, get(router, "Bearer sekrit").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "sekrit").Code)
}

func TestAuthMiddlewareJWT(t *testing.T) {
	secret := "hmac-secret"
	router := authRouter(nil, secret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "itv-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(router, "Bearer "+signed).Code)

	badSigned, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer "+badSigned).Code)
}

func TestAuthMiddlewareJWTFallsBackToStatic(t *testing.T) {
	router := authRouter([]string{"sekrit"}, "hmac-secret")

	// a static token still works when the JWT parse fails
	assert.Equal(t, http.StatusOK, get(router, "Bearer sekrit").Code)
}
