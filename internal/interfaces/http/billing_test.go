package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tracksub/internal/domain/user"
)

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandleWebhookUpgradesPlan(t *testing.T) {
	var gotPlan, gotStatus string
	users := &mockUserRepo{
		updatePlanFunc: func(_ context.Context, id int64, plan, status string) error {
			if id != 7 {
				t.Errorf("user id = %d, want 7", id)
			}
			gotPlan, gotStatus = plan, status
			return nil
		},
	}
	h := NewBillingHandler(users, "whsec_test")

	body := `{"type":"subscription.updated","data":{"user_id":7,"plan":"pro","status":"active"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("whsec_test", body))

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if gotPlan != user.PlanPro || gotStatus != "active" {
		t.Errorf("plan = %q status = %q", gotPlan, gotStatus)
	}
}

func TestHandleWebhookDowngradesOnDelete(t *testing.T) {
	var gotPlan string
	users := &mockUserRepo{
		updatePlanFunc: func(_ context.Context, _ int64, plan, _ string) error {
			gotPlan = plan
			return nil
		},
	}
	h := NewBillingHandler(users, "whsec_test")

	body := `{"type":"subscription.deleted","data":{"user_id":7}}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("whsec_test", body))

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotPlan != user.PlanFree {
		t.Errorf("plan = %q, want free", gotPlan)
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	called := false
	users := &mockUserRepo{
		updatePlanFunc: func(_ context.Context, _ int64, _, _ string) error {
			called = true
			return nil
		},
	}
	h := NewBillingHandler(users, "whsec_test")

	body := `{"type":"subscription.updated","data":{"user_id":7,"plan":"pro","status":"active"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("wrong-secret", body))

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("plan was updated despite invalid signature")
	}
}

func TestHandleWebhookIgnoresUnknownEvents(t *testing.T) {
	h := NewBillingHandler(&mockUserRepo{}, "whsec_test")

	body := `{"type":"invoice.created","data":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("whsec_test", body))

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleWebhookRejectsUnknownPlan(t *testing.T) {
	h := NewBillingHandler(&mockUserRepo{}, "whsec_test")

	body := `{"type":"subscription.updated","data":{"user_id":7,"plan":"platinum","status":"active"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("whsec_test", body))

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleMe(t *testing.T) {
	users := &mockUserRepo{
		getByIDFunc: func(_ context.Context, id int64) (*user.User, error) {
			return &user.User{ID: id, Email: "a@example.com", Plan: user.PlanPro, PasswordHash: "hash"}, nil
		},
	}
	h := NewBillingHandler(users, "whsec_test")

	rec := httptest.NewRecorder()
	h.HandleMe(rec, authedRequest(http.MethodGet, "/api/users/me", nil, 1))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Error("response leaks password hash")
	}
	if !strings.Contains(rec.Body.String(), `"plan":"pro"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}
