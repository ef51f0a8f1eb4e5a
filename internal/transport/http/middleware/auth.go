package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/stockroom/internal/auth/dto"
	"github.com/mpetrenko/stockroom/internal/auth/service"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ContextUser        = "user"
	ContextAccessToken = "access_token"
)

// RequireAuth gates protected routes behind a bearer access token. It
// resolves the token to a user and aborts with 401 on any failure.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="stockroom"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := auth.Validate(c.Request.Context(), dto.ValidateDTO{AccessToken: token})
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="stockroom", error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextAccessToken, token)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
