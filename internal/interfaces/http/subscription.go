package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tracksub/internal/domain/subscription"
	"tracksub/internal/shared/middleware"
)

type SubscriptionHandler struct {
	svc *subscription.Service
}

func NewSubscriptionHandler(svc *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// SubscriptionRequest carries dates as plain YYYY-MM-DD strings.
type SubscriptionRequest struct {
	Name            string          `json:"name"`
	BillingCycle    string          `json:"billing_cycle"`
	StartDate       string          `json:"start_date"`
	NextPaymentDate string          `json:"next_payment_date,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Status          string          `json:"status"`
}

func (req *SubscriptionRequest) toParams() (subscription.CreateParams, error) {
	params := subscription.CreateParams{
		Name:         req.Name,
		BillingCycle: subscription.Cycle(req.BillingCycle),
		Amount:       req.Amount,
		Category:     req.Category,
		Status:       req.Status,
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return params, errors.New("start_date must be YYYY-MM-DD")
		}
		params.StartDate = start
	}
	if req.NextPaymentDate != "" {
		next, err := time.Parse("2006-01-02", req.NextPaymentDate)
		if err != nil {
			return params, errors.New("next_payment_date must be YYYY-MM-DD")
		}
		params.NextPaymentDate = next
	}
	return params, nil
}

// HandleSubscriptions routes collection-level requests.
func (h *SubscriptionHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSubscriptionByID routes requests for a single subscription.
func (h *SubscriptionHandler) HandleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSummary returns the user's spending summary.
func (h *SubscriptionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.svc.Summary(r.Context(), userID)
	if err != nil {
		log.Printf("Error computing summary for user %d: %v", userID, err)
		http.Error(w, "Failed to compute summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *SubscriptionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing subscriptions for user %d: %v", userID, err)
		http.Error(w, "Failed to list subscriptions", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []*subscription.Subscription{}
	}

	writeJSON(w, http.StatusOK, subs)
}

func (h *SubscriptionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := req.toParams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.svc.Create(r.Context(), userID, params)
	if err != nil {
		h.respondError(w, userID, "create", err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubscriptionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.svc.Get(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, userID, "get", err)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params, err := req.toParams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.svc.Update(r.Context(), id, userID, params)
	if err != nil {
		h.respondError(w, userID, "update", err)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, userID); err != nil {
		h.respondError(w, userID, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SubscriptionHandler) idsFromRequest(w http.ResponseWriter, r *http.Request) (userID, id int64, ok bool) {
	userID, authed := middleware.UserID(r.Context())
	if !authed {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid subscription id", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, id, true
}

func (h *SubscriptionHandler) respondError(w http.ResponseWriter, userID int64, op string, err error) {
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		http.Error(w, "Subscription not found", http.StatusNotFound)
	case errors.Is(err, subscription.ErrInvalidInput), errors.Is(err, subscription.ErrInvalidCycle):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Error on subscription %s for user %d: %v", op, userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
