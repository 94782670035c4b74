package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gestprev/backend/pkg/auth"
	"github.com/gestprev/backend/pkg/errors"
)

// SessionCookie carries the signed session token
const SessionCookie = "session"

// ContextKeyUser is the gin context key holding the auth.UserSession
const ContextKeyUser = "user"

// RequireAuth validates the session cookie (or a Bearer token for API
// clients) and stores the user session in the context
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			abortUnauthorized(c, "Non autenticato")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "Sessione non valida o scaduta")
			return
		}

		c.Set(ContextKeyUser, claims.User)
		c.Next()
	}
}

// RequireAdmin allows only administrator roles past
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(ContextKeyUser)
		if !exists {
			abortUnauthorized(c, "Non autenticato")
			return
		}
		if !userInterface.(auth.UserSession).IsAdmin() {
			denied := errors.NewPermissionError("accedere a", "risorsa riservata agli amministratori")
			c.JSON(denied.HTTPStatus(), gin.H{
				"error": "Accesso riservato agli amministratori",
				"code":  denied.Code(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
	c.Abort()
}
