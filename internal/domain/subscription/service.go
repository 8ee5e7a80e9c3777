package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when create/update parameters fail validation.
var ErrInvalidInput = errors.New("invalid subscription input")

// SummaryCache is an optional read-through cache for spending summaries.
// Implementations tolerate misses by returning (nil, nil).
type SummaryCache interface {
	GetSummary(ctx context.Context, userID int64) (*Summary, error)
	SetSummary(ctx context.Context, userID int64, summary *Summary) error
	Invalidate(ctx context.Context, userID int64) error
}

type Service struct {
	repo  Repository
	cache SummaryCache
	now   func() time.Time
}

// NewService creates the subscription service. cache may be nil, in which
// case summaries are computed on every request.
func NewService(repo Repository, cache SummaryCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*Subscription, error) {
	normalized, err := s.normalize(params)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Create(ctx, userID, normalized)
	if err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}

	s.invalidate(ctx, userID)
	return sub, nil
}

func (s *Service) Get(ctx context.Context, id, userID int64) (*Subscription, error) {
	return s.repo.GetByID(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Subscription, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) Update(ctx context.Context, id, userID int64, params CreateParams) (*Subscription, error) {
	normalized, err := s.normalize(params)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Update(ctx, id, userID, normalized)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return sub, nil
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Summary totals the user's active subscriptions. Yearly amounts contribute
// a twelfth (rounded to cents) to the monthly figure.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSummary(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	subs, err := s.repo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing active subscriptions: %w", err)
	}

	twelve := decimal.NewFromInt(12)
	summary := &Summary{}
	for _, sub := range subs {
		summary.ActiveCount++
		switch sub.BillingCycle {
		case CycleYearly:
			summary.MonthlyTotal = summary.MonthlyTotal.Add(sub.Amount.Div(twelve).Round(2))
			summary.YearlyTotal = summary.YearlyTotal.Add(sub.Amount)
		default:
			summary.MonthlyTotal = summary.MonthlyTotal.Add(sub.Amount)
			summary.YearlyTotal = summary.YearlyTotal.Add(sub.Amount.Mul(twelve))
		}
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, userID, summary); err != nil {
			log.Printf("summary cache set failed for user %d: %v", userID, err)
		}
	}
	return summary, nil
}

// normalize validates params and fills defaults. A missing next payment date
// is rolled forward from the start date past today.
func (s *Service) normalize(params CreateParams) (CreateParams, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return params, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !params.BillingCycle.Valid() {
		return params, fmt.Errorf("%w: %q", ErrInvalidCycle, params.BillingCycle)
	}
	if params.Amount.IsNegative() {
		return params, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if params.StartDate.IsZero() {
		return params, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if params.Category == "" {
		params.Category = DefaultCategory
	}
	switch params.Status {
	case "":
		params.Status = StatusActive
	case StatusActive, StatusInactive, StatusCancelled:
	default:
		return params, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, params.Status)
	}

	if params.NextPaymentDate.IsZero() {
		next, err := RollForward(params.StartDate, params.BillingCycle, s.now())
		if err != nil {
			return params, err
		}
		params.NextPaymentDate = next
	}
	return params, nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Printf("summary cache invalidation failed for user %d: %v", userID, err)
	}
}
