package handlers

import (
	"net/http"

	"github.com/diewo77/fakti/auth"
	"github.com/diewo77/fakti/internal/services"
)

type ProfileHandler struct {
	users *services.UserService
}

func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) View(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes the account and everything it owns, then ends the session.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
