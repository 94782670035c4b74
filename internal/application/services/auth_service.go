package services

import (
	"context"
	"time"

	"github.com/gestprev/backend/internal/infrastructure/persistence"
	"github.com/gestprev/backend/pkg/auth"
	apperrors "github.com/gestprev/backend/pkg/errors"
)

// OnlineWindow is how far back a presence ping still counts as "online"
const OnlineWindow = 3 * time.Minute

// AuthService handles login, session issuance and presence tracking
type AuthService struct {
	users *persistence.UserRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Login verifies the credentials and returns a signed session token.
// Bad login and bad password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, auth.UserSession, error) {
	if login == "" || password == "" {
		return "", auth.UserSession{}, apperrors.NewValidationError("login", "login e password sono obbligatori")
	}

	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return "", auth.UserSession{}, apperrors.NewInternalError("ricerca utente", err)
	}
	if user == nil || !auth.VerifyPassword(password, user.Password) {
		return "", auth.UserSession{}, apperrors.NewUnauthorizedError("credenziali non valide")
	}

	session := auth.UserSession{ID: user.ID, Login: user.Login, RoleID: user.RoleID}
	token, err := auth.GenerateToken(session)
	if err != nil {
		return "", auth.UserSession{}, apperrors.NewInternalError("generazione token", err)
	}

	if err := s.users.TouchLastSeen(ctx, user.Login); err != nil {
		// Presence is best effort; a failed stamp must not block the login
		return token, session, nil
	}
	return token, session, nil
}

// Ping refreshes the caller's presence timestamp
func (s *AuthService) Ping(ctx context.Context, login string) error {
	if err := s.users.TouchLastSeen(ctx, login); err != nil {
		return apperrors.NewInternalError("aggiornamento presenza", err)
	}
	return nil
}

// OnlineUsers lists the logins seen within the presence window
func (s *AuthService) OnlineUsers(ctx context.Context) ([]string, error) {
	logins, err := s.users.OnlineSince(ctx, time.Now().Add(-OnlineWindow))
	if err != nil {
		return nil, apperrors.NewInternalError("utenti online", err)
	}
	return logins, nil
}

// HiddenColumns returns the grid columns the role must not see
func (s *AuthService) HiddenColumns(ctx context.Context, roleID int64) (map[string]bool, error) {
	hidden, err := s.users.HiddenColumns(ctx, roleID)
	if err != nil {
		return nil, apperrors.NewInternalError("permessi colonne", err)
	}
	return hidden, nil
}
