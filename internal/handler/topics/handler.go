package topics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/healthchat/backend/internal/model/content"
	"github.com/healthchat/backend/pkg/utils"
)

// Summary is the welcome-card view of a topic.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Handler 快捷话题的HTTP处理器
type Handler struct {
	store content.Store
}

// New 创建话题处理器
func New(store content.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册话题相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/topics", h.handleListTopics)
}

// handleListTopics 列出快捷话题
func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	summaries := lo.Map(h.store.QuickTopics(), func(t content.Topic, _ int) Summary {
		return Summary{ID: t.ID, Title: t.Title}
	})
	utils.RespondJSON(w, http.StatusOK, summaries)
}
