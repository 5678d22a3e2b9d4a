package handlers

import (
	"net/http"

	"github.com/diewo77/fakti/internal/services"
)

type DashboardHandler struct {
	stats *services.StatsService
	users *services.UserService
}

func NewDashboardHandler(stats *services.StatsService, users *services.UserService) *DashboardHandler {
	return &DashboardHandler{stats: stats, users: users}
}

type dashboardResponse struct {
	DisplayName string `json:"display_name"`
	*services.Stats
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	user, err := h.users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.stats.Summary(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{DisplayName: user.DisplayName(), Stats: stats})
}
