package http

import (
	"log"
	"net/http"
	"time"

	"tracksub/internal/domain/notification"
)

type NotificationHandler struct {
	dispatcher *notification.Dispatcher
}

func NewNotificationHandler(dispatcher *notification.Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// HandleRun triggers one reminder pass immediately. The scheduler runs the
// same pass on its own; this endpoint exists for operations and testing.
func (h *NotificationHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sent, err := h.dispatcher.Run(r.Context(), time.Now().UTC())
	if err != nil {
		log.Printf("Error running reminder pass: %v", err)
		http.Error(w, "Failed to run reminder pass", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
