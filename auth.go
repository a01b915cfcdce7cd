package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// authMiddleware validates the Bearer token issued by the auth service and
// sets member_id on the context. Tokens are HS256 JWTs whose subject is the
// member id; credentials themselves never reach this service.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	secret := []byte(h.cfg.JWTSecret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims,
			func(*jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		memberID, err := strconv.Atoi(claims.Subject)
		if err != nil || memberID <= 0 {
			apiError(c, http.StatusUnauthorized, "invalid token subject")
			c.Abort()
			return
		}

		c.Set("member_id", memberID)
		c.Next()
	}
}
