package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gestprev/backend/internal/application/services"
	"github.com/gestprev/backend/internal/infrastructure/persistence"
	"github.com/gestprev/backend/pkg/errors"
)

// ChatHandler serves the public and group chat endpoints
type ChatHandler struct {
	chatSvc *services.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatSvc *services.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// chatMessageView is one message on the wire
type chatMessageView struct {
	ID        int64   `json:"id"`
	Mittente  string  `json:"mittente"`
	Gruppo    *string `json:"gruppo,omitempty"`
	Messaggio string  `json:"messaggio"`
	Data      string  `json:"data"`
}

func toMessageViews(messages []persistence.ChatMessage) []chatMessageView {
	views := make([]chatMessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, chatMessageView{
			ID:        m.ID,
			Mittente:  m.Mittente,
			Gruppo:    m.Gruppo,
			Messaggio: m.Messaggio,
			Data:      m.Data.Format("2006-01-02 15:04:05"),
		})
	}
	return views
}

// chatDay reads the optional giorno query parameter, defaulting to today
func chatDay(c *gin.Context) (time.Time, error) {
	raw := c.Query("giorno")
	if raw == "" {
		return time.Now(), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.NewValidationError("giorno", "formato data non valido, atteso YYYY-MM-DD")
	}
	return day, nil
}

// PublicMessages lists the public channel for one day
func (h *ChatHandler) PublicMessages(c *gin.Context) {
	day, err := chatDay(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	messages, err := h.chatSvc.PublicMessages(c.Request.Context(), day)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messaggi": toMessageViews(messages)})
}

// GroupMessages lists one day's group messages for the caller's group, or
// every group when the caller is an administrator
func (h *ChatHandler) GroupMessages(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}
	day, err := chatDay(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	messages, err := h.chatSvc.GroupMessages(c.Request.Context(), day, c.Query("gruppo"), *user)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messaggi": toMessageViews(messages)})
}

type sendMessageRequest struct {
	Messaggio string `json:"messaggio"`
	Gruppo    string `json:"gruppo"`
}

// SendPublic posts to the public channel as the session user
func (h *ChatHandler) SendPublic(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}
	var req sendMessageRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.chatSvc.SendPublic(c.Request.Context(), user.Login, req.Messaggio); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Messaggio inviato"})
}

// SendGroup posts to a group channel as the session user
func (h *ChatHandler) SendGroup(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}
	var req sendMessageRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.chatSvc.SendGroup(c.Request.Context(), user.Login, req.Gruppo, req.Messaggio); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Messaggio inviato"})
}

// Delete removes one of the caller's own messages
func (h *ChatHandler) Delete(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondAppError(c, errors.NewValidationError("id", "identificativo non valido"))
		return
	}
	if err := h.chatSvc.Delete(c.Request.Context(), id, user.Login); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messaggio eliminato"})
}
