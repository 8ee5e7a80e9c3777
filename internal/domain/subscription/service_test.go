package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type mockRepository struct {
	createFunc     func(ctx context.Context, userID int64, params CreateParams) (*Subscription, error)
	getByIDFunc    func(ctx context.Context, id, userID int64) (*Subscription, error)
	listFunc       func(ctx context.Context, userID int64) ([]*Subscription, error)
	listActiveFunc func(ctx context.Context, userID int64) ([]*Subscription, error)
	listDueFunc    func(ctx context.Context, userID int64, date time.Time) ([]*Subscription, error)
	updateFunc     func(ctx context.Context, id, userID int64, params CreateParams) (*Subscription, error)
	deleteFunc     func(ctx context.Context, id, userID int64) error
}

func (m *mockRepository) Create(ctx context.Context, userID int64, params CreateParams) (*Subscription, error) {
	return m.createFunc(ctx, userID, params)
}

func (m *mockRepository) GetByID(ctx context.Context, id, userID int64) (*Subscription, error) {
	return m.getByIDFunc(ctx, id, userID)
}

func (m *mockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Subscription, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]*Subscription, error) {
	return m.listActiveFunc(ctx, userID)
}

func (m *mockRepository) ListActiveDueOn(ctx context.Context, userID int64, date time.Time) ([]*Subscription, error) {
	return m.listDueFunc(ctx, userID, date)
}

func (m *mockRepository) Update(ctx context.Context, id, userID int64, params CreateParams) (*Subscription, error) {
	return m.updateFunc(ctx, id, userID, params)
}

func (m *mockRepository) Delete(ctx context.Context, id, userID int64) error {
	return m.deleteFunc(ctx, id, userID)
}

type fakeCache struct {
	summaries   map[int64]*Summary
	invalidated []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{summaries: make(map[int64]*Summary)}
}

func (c *fakeCache) GetSummary(_ context.Context, userID int64) (*Summary, error) {
	return c.summaries[userID], nil
}

func (c *fakeCache) SetSummary(_ context.Context, userID int64, summary *Summary) error {
	c.summaries[userID] = summary
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID int64) error {
	c.invalidated = append(c.invalidated, userID)
	delete(c.summaries, userID)
	return nil
}

func validParams() CreateParams {
	return CreateParams{
		Name:            "Netflix",
		BillingCycle:    CycleMonthly,
		StartDate:       date(2024, time.January, 15),
		NextPaymentDate: date(2024, time.June, 15),
		Amount:          decimal.NewFromFloat(15.99),
	}
}

func TestServiceCreateDefaults(t *testing.T) {
	var captured CreateParams
	repo := &mockRepository{
		createFunc: func(_ context.Context, _ int64, params CreateParams) (*Subscription, error) {
			captured = params
			return &Subscription{ID: 1}, nil
		},
	}
	svc := NewService(repo, nil)

	params := validParams()
	params.Category = ""
	params.Status = ""

	if _, err := svc.Create(context.Background(), 1, params); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if captured.Category != DefaultCategory {
		t.Errorf("category = %q, want %q", captured.Category, DefaultCategory)
	}
	if captured.Status != StatusActive {
		t.Errorf("status = %q, want %q", captured.Status, StatusActive)
	}
}

func TestServiceCreateRollsForwardMissingNextPayment(t *testing.T) {
	var captured CreateParams
	repo := &mockRepository{
		createFunc: func(_ context.Context, _ int64, params CreateParams) (*Subscription, error) {
			captured = params
			return &Subscription{ID: 1}, nil
		},
	}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return date(2024, time.May, 20) }

	params := validParams()
	params.StartDate = date(2024, time.January, 10)
	params.NextPaymentDate = time.Time{}

	if _, err := svc.Create(context.Background(), 1, params); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if want := date(2024, time.June, 10); !captured.NextPaymentDate.Equal(want) {
		t.Errorf("next payment date = %v, want %v", captured.NextPaymentDate, want)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(_ context.Context, _ int64, _ CreateParams) (*Subscription, error) {
			t.Fatal("repository should not be called for invalid input")
			return nil, nil
		},
	}
	svc := NewService(repo, nil)

	tests := []struct {
		name    string
		mutate  func(*CreateParams)
		wantErr error
	}{
		{"blank name", func(p *CreateParams) { p.Name = "  " }, ErrInvalidInput},
		{"bad cycle", func(p *CreateParams) { p.BillingCycle = "weekly" }, ErrInvalidCycle},
		{"negative amount", func(p *CreateParams) { p.Amount = decimal.NewFromInt(-5) }, ErrInvalidInput},
		{"zero start date", func(p *CreateParams) { p.StartDate = time.Time{} }, ErrInvalidInput},
		{"unknown status", func(p *CreateParams) { p.Status = "paused" }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			if _, err := svc.Create(context.Background(), 1, params); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestServiceSummary(t *testing.T) {
	repo := &mockRepository{
		listActiveFunc: func(_ context.Context, _ int64) ([]*Subscription, error) {
			return []*Subscription{
				{BillingCycle: CycleMonthly, Amount: decimal.NewFromFloat(10.00)},
				{BillingCycle: CycleYearly, Amount: decimal.NewFromFloat(120.00)},
			}, nil
		},
	}
	svc := NewService(repo, nil)

	summary, err := svc.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.ActiveCount != 2 {
		t.Errorf("active count = %d, want 2", summary.ActiveCount)
	}
	if want := decimal.NewFromFloat(20.00); !summary.MonthlyTotal.Equal(want) {
		t.Errorf("monthly total = %s, want %s", summary.MonthlyTotal, want)
	}
	if want := decimal.NewFromFloat(240.00); !summary.YearlyTotal.Equal(want) {
		t.Errorf("yearly total = %s, want %s", summary.YearlyTotal, want)
	}
}

func TestServiceSummaryUsesCache(t *testing.T) {
	calls := 0
	repo := &mockRepository{
		listActiveFunc: func(_ context.Context, _ int64) ([]*Subscription, error) {
			calls++
			return []*Subscription{{BillingCycle: CycleMonthly, Amount: decimal.NewFromInt(9)}}, nil
		},
	}
	svc := NewService(repo, newFakeCache())

	for i := 0; i < 3; i++ {
		if _, err := svc.Summary(context.Background(), 1); err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("repository calls = %d, want 1", calls)
	}
}

func TestServiceWritesInvalidateCache(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(_ context.Context, _ int64, params CreateParams) (*Subscription, error) {
			return &Subscription{ID: 1}, nil
		},
		updateFunc: func(_ context.Context, _, _ int64, params CreateParams) (*Subscription, error) {
			return &Subscription{ID: 1}, nil
		},
		deleteFunc: func(_ context.Context, _, _ int64) error { return nil },
	}
	cache := newFakeCache()
	svc := NewService(repo, cache)

	ctx := context.Background()
	if _, err := svc.Create(ctx, 7, validParams()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Update(ctx, 1, 7, validParams()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := svc.Delete(ctx, 1, 7); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(cache.invalidated) != 3 {
		t.Errorf("invalidations = %d, want 3", len(cache.invalidated))
	}
}

func TestServiceDeletePropagatesNotFound(t *testing.T) {
	repo := &mockRepository{
		deleteFunc: func(_ context.Context, _, _ int64) error { return ErrNotFound },
	}
	svc := NewService(repo, nil)

	if err := svc.Delete(context.Background(), 42, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
