package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tracksub/internal/domain/banksync"
	"tracksub/internal/domain/user"
	"tracksub/internal/shared/middleware"
)

type BankSyncHandler struct {
	svc *banksync.Service
}

func NewBankSyncHandler(svc *banksync.Service) *BankSyncHandler {
	return &BankSyncHandler{svc: svc}
}

type AttachRequest struct {
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
}

// HandleAttach stores the linked provider account after the client completes
// the connection flow.
func (h *BankSyncHandler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedPost(w, r)
	if !ok {
		return
	}

	var req AttachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Attach(r.Context(), userID, req.AccountID, req.SessionID); err != nil {
		h.respondError(w, userID, "attach", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// HandleSync runs one quota-limited transaction pull.
func (h *BankSyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedPost(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Sync(r.Context(), userID)
	if err != nil {
		h.respondError(w, userID, "sync", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleCandidates lists detected recurring charges.
func (h *BankSyncHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	candidates, err := h.svc.Candidates(r.Context(), userID)
	if err != nil {
		h.respondError(w, userID, "candidates", err)
		return
	}
	if candidates == nil {
		candidates = []banksync.Candidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

type ImportRequest struct {
	Selections []banksync.ImportSelection `json:"selections"`
}

// HandleImport turns chosen candidates into subscriptions.
func (h *BankSyncHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authedPost(w, r)
	if !ok {
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Selections) == 0 {
		http.Error(w, "selections are required", http.StatusBadRequest)
		return
	}

	created, err := h.svc.Import(r.Context(), userID, req.Selections)
	if err != nil {
		h.respondError(w, userID, "import", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"imported": len(created), "subscriptions": created})
}

func (h *BankSyncHandler) authedPost(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return 0, false
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func (h *BankSyncHandler) respondError(w http.ResponseWriter, userID int64, op string, err error) {
	var feedErr *banksync.FeedError
	switch {
	case errors.Is(err, banksync.ErrPlanRequired):
		http.Error(w, "Bank sync requires the pro plan", http.StatusForbidden)
	case errors.Is(err, banksync.ErrSyncLimitExceeded):
		http.Error(w, "Monthly sync limit reached", http.StatusTooManyRequests)
	case errors.Is(err, banksync.ErrNotLinked):
		http.Error(w, "No bank account linked", http.StatusBadRequest)
	case errors.Is(err, user.ErrNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.As(err, &feedErr):
		log.Printf("Feed error on %s for user %d: %v", op, userID, err)
		http.Error(w, "Transaction feed unavailable", http.StatusBadGateway)
	default:
		log.Printf("Error on bank %s for user %d: %v", op, userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
