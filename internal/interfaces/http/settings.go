package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tracksub/internal/domain/user"
	"tracksub/internal/shared/middleware"
)

type SettingsHandler struct {
	users user.Repository
}

func NewSettingsHandler(users user.Repository) *SettingsHandler {
	return &SettingsHandler{users: users}
}

type NotificationSettings struct {
	NotificationLeadDays int `json:"notification_lead_days"`
}

// HandleNotificationSettings reads or updates the reminder lead time.
func (h *SettingsHandler) HandleNotificationSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := h.users.GetByID(r.Context(), userID)
		if errors.Is(err, user.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("Error loading settings for user %d: %v", userID, err)
			http.Error(w, "Failed to load settings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, NotificationSettings{NotificationLeadDays: u.LeadDays()})

	case http.MethodPut:
		var req NotificationSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.NotificationLeadDays < 1 || req.NotificationLeadDays > 90 {
			http.Error(w, "notification_lead_days must be between 1 and 90", http.StatusBadRequest)
			return
		}

		if err := h.users.UpdateLeadDays(r.Context(), userID, req.NotificationLeadDays); err != nil {
			log.Printf("Error updating settings for user %d: %v", userID, err)
			http.Error(w, "Failed to update settings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
