package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/healthchat/backend/internal/model/chat"
	"github.com/healthchat/backend/pkg/utils"
)

const errMessageRequired = "Message is required"

var validate = validator.New()

type chatPayload struct {
	Message   string `validate:"required"`
	SessionID string
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	newSessionID func() string
}

// New 创建聊天处理器
func New() *Handler {
	return &Handler{newSessionID: uuid.NewString}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat acknowledges a query with a placeholder reply; answering is
// done by the resolver behind /ws and the clients.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var raw struct {
		Message   json.RawMessage `json:"message"`
		SessionID json.RawMessage `json:"sessionId"`
	}
	if err := utils.DecodeJSON(w, r, &raw); err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMessageRequired)
		return
	}

	var payload chatPayload
	if len(raw.Message) == 0 || json.Unmarshal(raw.Message, &payload.Message) != nil {
		utils.RespondError(w, http.StatusBadRequest, errMessageRequired)
		return
	}
	// a non-string sessionId counts as absent
	if len(raw.SessionID) > 0 {
		_ = json.Unmarshal(raw.SessionID, &payload.SessionID)
	}

	if err := validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMessageRequired)
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = h.newSessionID()
	}

	resp, err := placeholderReply(payload.Message, sessionID)
	if err != nil {
		log.Printf("[chat] error processing chat message: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// placeholderReply fails only when the injected id generator returns an
// empty id; uuid.NewString never does.
func placeholderReply(message, sessionID string) (chat.Response, error) {
	if sessionID == "" {
		return chat.Response{}, fmt.Errorf("session id generator returned empty id")
	}
	return chat.Response{
		Message:   fmt.Sprintf("Thank you for your health query about \"%s\". This is a placeholder response as the server would typically forward this to AWS Lex and Lambda.", message),
		SessionID: sessionID,
	}, nil
}
