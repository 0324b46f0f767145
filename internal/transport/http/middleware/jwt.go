package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"travel-journal/internal/transport/http/response"
)

const ContextUserIDKey = "user_id"

var (
	errMissingHeader = errors.New("missing authorization header")
	errBadScheme     = errors.New("invalid authorization scheme")
)

// TokenResolver turns a bearer token into the id of the user it was issued to.
type TokenResolver interface {
	ResolveToken(token string) (string, error)
}

// AuthJWT rejects requests without a resolvable bearer token and stores the
// caller's user id on the context.
func AuthJWT(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			c.Abort()
			return
		}

		userID, err := resolver.ResolveToken(token)
		if err != nil || userID == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingHeader
	}
	return token, nil
}

// CurrentUserID returns the id stored by AuthJWT, or "" on public routes.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
