package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gestprev/backend/internal/application/services"
	"github.com/gestprev/backend/internal/interfaces/middleware"
	"github.com/gestprev/backend/pkg/auth"
	"github.com/gestprev/backend/pkg/errors"
)

// AuthHandler serves login, logout, session info and presence
type AuthHandler struct {
	authSvc *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authSvc *services.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login verifies the credentials and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSON(c, &req) {
		return
	}

	token, session, err := h.authSvc.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, token, int(auth.SessionDuration.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Accesso effettuato",
		"user":    session,
	})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Disconnesso"})
}

// Me returns the session user
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Ping refreshes the caller's presence timestamp
func (h *AuthHandler) Ping(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}
	if err := h.authSvc.Ping(c.Request.Context(), user.Login); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// OnlineUsers lists the logins seen within the presence window
func (h *AuthHandler) OnlineUsers(c *gin.Context) {
	HandleGetEnvelope(c, "utenti", func() (interface{}, error) {
		return h.authSvc.OnlineUsers(c.Request.Context())
	})
}
