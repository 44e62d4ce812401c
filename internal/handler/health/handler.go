package health

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthchat/backend/pkg/utils"
)

// Handler serves liveness and API description routes.
type Handler struct {
	now func() time.Time
}

// New 创建健康检查处理器
func New() *Handler {
	return &Handler{now: time.Now}
}

// RegisterRoutes 注册健康检查与文档路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/docs", h.handleDocs)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"message":   "Healthcare chatbot API is running",
	})
}

type endpointDoc struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Description string            `json:"description"`
	Request     map[string]string `json:"request,omitempty"`
	Response    map[string]string `json:"response"`
	Errors      map[string]string `json:"errors,omitempty"`
}

var apiDocs = map[string]any{
	"name":    "Healthcare Chatbot API",
	"version": "1.0.0",
	"endpoints": []endpointDoc{
		{
			Method:      http.MethodPost,
			Path:        "/api/chat",
			Description: "Send a health question and receive an HTML reply",
			Request: map[string]string{
				"message":   "string, required",
				"sessionId": "string, optional",
			},
			Response: map[string]string{
				"message":   "string (HTML)",
				"sessionId": "string",
			},
			Errors: map[string]string{
				"400": "Message is required",
				"500": "Failed to process message",
			},
		},
		{
			Method:      http.MethodGet,
			Path:        "/api/health",
			Description: "Service health check",
			Response: map[string]string{
				"status":    "healthy",
				"timestamp": "ISO-8601 string",
				"message":   "string",
			},
		},
	},
}

func (h *Handler) handleDocs(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, apiDocs)
}
