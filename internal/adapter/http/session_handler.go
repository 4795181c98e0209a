package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/adapter/report"
	"github.com/YelzhanWeb/refugio-pos/internal/app/views"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type ViewService interface {
	For(role domain.Role, view domain.View) (interface{}, error)
	Admin() views.AdminView
	GetSessionsStatus(ctx context.Context) ([]*domain.TerminalSession, error)
}

type NotificationFeed interface {
	Recent(limit int) []domain.Notification
	Active() []domain.Notification
	Dismiss(id string) bool
}

// SessionHandler serves login, the role views and the notification feed
type SessionHandler struct {
	sessions interfaces.SessionService
	views    ViewService
	feed     NotificationFeed
	state    StateSource
	logger   logger.Logger
}

func NewSessionHandler(
	sessions interfaces.SessionService,
	views ViewService,
	feed NotificationFeed,
	state StateSource,
	logger logger.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		views:    views,
		feed:     feed,
		state:    state,
		logger:   logger,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserResponse struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	DefaultView string `json:"default_view"`
}

func toUser(u domain.User) UserResponse {
	return UserResponse{Username: u.Username, Role: string(u.Role), DefaultView: string(u.Role.DefaultView())}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.sessions.Login(r.Context(), req.Username, req.Role)
	if err != nil {
		h.logger.Warn("login_failed", "Login rejected", RequestID(r.Context()), map[string]interface{}{
			"username": req.Username,
			"error":    err.Error(),
		})
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUser(user))
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessions.CurrentUser()
	if !ok {
		respondError(w, domain.ErrNoSession)
		return
	}
	respondJSON(w, http.StatusOK, toUser(user))
}

func (h *SessionHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.views.GetSessionsStatus(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = SessionResponse{
			Name:         s.Name,
			Role:         string(s.Role),
			Status:       string(s.Status),
			OrdersPlaced: s.OrdersPlaced,
			LastSeen:     s.LastSeen,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// View renders the named view for the logged-in role
func (h *SessionHandler) View(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessions.CurrentUser()
	if !ok {
		respondError(w, domain.ErrNoSession)
		return
	}

	name := chi.URLParam(r, "view")
	if name == "" {
		name = string(user.Role.DefaultView())
	}
	view, err := h.views.For(user.Role, domain.View(name))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toView(view))
}

func (h *SessionHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrValidation))
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, toNotifications(h.feed.Recent(limit)))
}

func (h *SessionHandler) ActiveNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toNotifications(h.feed.Active()))
}

func (h *SessionHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if !h.feed.Dismiss(chi.URLParam(r, "id")) {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report streams the admin view as a spreadsheet
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessions.CurrentUser()
	if !ok {
		respondError(w, domain.ErrNoSession)
		return
	}
	if !user.Role.CanView(domain.ViewAdmin) {
		respondError(w, fmt.Errorf("role %s cannot export reports: %w", user.Role, views.ErrViewNotAllowed))
		return
	}

	now := time.Now()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="refugio-%s.xlsx"`, now.Format("20060102-1504")))

	if err := report.WriteAdminReport(w, h.views.Admin(), h.state.Snapshot().Orders, now); err != nil {
		h.logger.Error("report_failed", "Failed to write admin report", RequestID(r.Context()), nil, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
