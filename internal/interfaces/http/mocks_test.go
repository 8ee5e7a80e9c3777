package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"tracksub/internal/domain/banksync"
	"tracksub/internal/domain/subscription"
	"tracksub/internal/domain/user"
	"tracksub/internal/shared/middleware"
)

type mockUserRepo struct {
	createFunc             func(ctx context.Context, params user.CreateUserParams) (*user.User, error)
	getByIDFunc            func(ctx context.Context, id int64) (*user.User, error)
	getByEmailFunc         func(ctx context.Context, email string) (*user.User, error)
	getByCalendarTokenFunc func(ctx context.Context, token string) (*user.User, error)
	listFunc               func(ctx context.Context) ([]*user.User, error)
	updateLeadDaysFunc     func(ctx context.Context, id int64, days int) error
	updatePlanFunc         func(ctx context.Context, id int64, plan, status string) error
	setCalendarTokenFunc   func(ctx context.Context, id int64, token string) error
	attachFunc             func(ctx context.Context, id int64, accountID, sessionID string) error
	consumeQuotaFunc       func(ctx context.Context, id int64, monthKey string, limit int, state user.SyncState) (int, bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	return m.createFunc(ctx, params)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) GetByCalendarToken(ctx context.Context, token string) (*user.User, error) {
	return m.getByCalendarTokenFunc(ctx, token)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*user.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepo) UpdateLeadDays(ctx context.Context, id int64, days int) error {
	return m.updateLeadDaysFunc(ctx, id, days)
}

func (m *mockUserRepo) UpdatePlan(ctx context.Context, id int64, plan, status string) error {
	return m.updatePlanFunc(ctx, id, plan, status)
}

func (m *mockUserRepo) SetCalendarToken(ctx context.Context, id int64, token string) error {
	return m.setCalendarTokenFunc(ctx, id, token)
}

func (m *mockUserRepo) AttachFinancialAccount(ctx context.Context, id int64, accountID, sessionID string) error {
	return m.attachFunc(ctx, id, accountID, sessionID)
}

func (m *mockUserRepo) ConsumeSyncQuota(ctx context.Context, id int64, monthKey string, limit int, state user.SyncState) (int, bool, error) {
	return m.consumeQuotaFunc(ctx, id, monthKey, limit, state)
}

type mockSubRepo struct {
	createFunc     func(ctx context.Context, userID int64, params subscription.CreateParams) (*subscription.Subscription, error)
	getByIDFunc    func(ctx context.Context, id, userID int64) (*subscription.Subscription, error)
	listFunc       func(ctx context.Context, userID int64) ([]*subscription.Subscription, error)
	listActiveFunc func(ctx context.Context, userID int64) ([]*subscription.Subscription, error)
	listDueFunc    func(ctx context.Context, userID int64, date time.Time) ([]*subscription.Subscription, error)
	updateFunc     func(ctx context.Context, id, userID int64, params subscription.CreateParams) (*subscription.Subscription, error)
	deleteFunc     func(ctx context.Context, id, userID int64) error
}

func (m *mockSubRepo) Create(ctx context.Context, userID int64, params subscription.CreateParams) (*subscription.Subscription, error) {
	return m.createFunc(ctx, userID, params)
}

func (m *mockSubRepo) GetByID(ctx context.Context, id, userID int64) (*subscription.Subscription, error) {
	return m.getByIDFunc(ctx, id, userID)
}

func (m *mockSubRepo) ListByUserID(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockSubRepo) ListActiveByUserID(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	return m.listActiveFunc(ctx, userID)
}

func (m *mockSubRepo) ListActiveDueOn(ctx context.Context, userID int64, date time.Time) ([]*subscription.Subscription, error) {
	return m.listDueFunc(ctx, userID, date)
}

func (m *mockSubRepo) Update(ctx context.Context, id, userID int64, params subscription.CreateParams) (*subscription.Subscription, error) {
	return m.updateFunc(ctx, id, userID, params)
}

func (m *mockSubRepo) Delete(ctx context.Context, id, userID int64) error {
	return m.deleteFunc(ctx, id, userID)
}

type mockFeed struct {
	refreshFunc func(ctx context.Context, accountID string) error
	listFunc    func(ctx context.Context, accountID string, since *time.Time) ([]banksync.Transaction, error)
}

func (m *mockFeed) RefreshAccount(ctx context.Context, accountID string) error {
	return m.refreshFunc(ctx, accountID)
}

func (m *mockFeed) ListTransactions(ctx context.Context, accountID string, since *time.Time) ([]banksync.Transaction, error) {
	return m.listFunc(ctx, accountID, since)
}

type mockTxRepo struct {
	createIfAbsentFunc    func(ctx context.Context, tx *banksync.ImportedTransaction) (bool, error)
	listUnlinkedSinceFunc func(ctx context.Context, userID int64, since time.Time) ([]*banksync.ImportedTransaction, error)
	listUnlinkedByIDsFunc func(ctx context.Context, userID int64, ids []string) ([]string, error)
	linkFunc              func(ctx context.Context, userID int64, ids []string, subscriptionID int64) error
}

func (m *mockTxRepo) CreateIfAbsent(ctx context.Context, tx *banksync.ImportedTransaction) (bool, error) {
	return m.createIfAbsentFunc(ctx, tx)
}

func (m *mockTxRepo) ListUnlinkedSince(ctx context.Context, userID int64, since time.Time) ([]*banksync.ImportedTransaction, error) {
	return m.listUnlinkedSinceFunc(ctx, userID, since)
}

func (m *mockTxRepo) ListUnlinkedByIDs(ctx context.Context, userID int64, ids []string) ([]string, error) {
	return m.listUnlinkedByIDsFunc(ctx, userID, ids)
}

func (m *mockTxRepo) LinkSubscription(ctx context.Context, userID int64, ids []string, subscriptionID int64) error {
	return m.linkFunc(ctx, userID, ids, subscriptionID)
}

// authedRequest builds a request carrying an authenticated user id, the way
// the auth middleware would.
func authedRequest(method, target string, body io.Reader, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}
