package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"tracksub/internal/domain/user"
	"tracksub/internal/shared/middleware"
)

const maxWebhookBody = 64 * 1024

type BillingHandler struct {
	users         user.Repository
	webhookSecret string
}

func NewBillingHandler(users user.Repository, webhookSecret string) *BillingHandler {
	return &BillingHandler{users: users, webhookSecret: webhookSecret}
}

// HandleMe returns the authenticated user's profile and plan.
func (h *BillingHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading user %d: %v", userID, err)
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		UserID int64  `json:"user_id"`
		Plan   string `json:"plan"`
		Status string `json:"status"`
	} `json:"data"`
}

// HandleWebhook applies plan changes pushed by the billing provider. The
// request body is authenticated with an HMAC-SHA256 signature header.
func (h *BillingHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "subscription.updated":
		plan := event.Data.Plan
		if plan != user.PlanFree && plan != user.PlanPro {
			http.Error(w, "Unknown plan", http.StatusBadRequest)
			return
		}
		err = h.users.UpdatePlan(r.Context(), event.Data.UserID, plan, event.Data.Status)
	case "subscription.deleted":
		err = h.users.UpdatePlan(r.Context(), event.Data.UserID, user.PlanFree, "cancelled")
	default:
		// Unknown event types are acknowledged so the provider stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error applying billing event %s for user %d: %v", event.Type, event.Data.UserID, err)
		http.Error(w, "Failed to apply event", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (h *BillingHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
