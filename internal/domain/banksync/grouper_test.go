package banksync

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tracksub/internal/domain/subscription"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func debit(id, desc string, cents int64, at time.Time) *ImportedTransaction {
	return &ImportedTransaction{
		TransactionID: id,
		Description:   desc,
		Amount:        decimal.New(-cents, -2),
		Currency:      "usd",
		TransactedAt:  at,
	}
}

func TestGrouperClustersSimilarDescriptions(t *testing.T) {
	asOf := date(2024, time.May, 20)
	txs := []*ImportedTransaction{
		debit("t1", "NETFLIX.COM 0323", 1599, date(2024, time.March, 15)),
		debit("t2", "NETFLIX.COM 0423", 1599, date(2024, time.April, 15)),
		debit("t3", "Netflix.com 0523", 1599, date(2024, time.May, 15)),
		debit("t4", "CORNER BAKERY", 850, date(2024, time.May, 2)),
	}

	got := NewGrouper().Group(txs, asOf)
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}

	c := got[0]
	if c.Occurrences != 3 {
		t.Errorf("occurrences = %d, want 3", c.Occurrences)
	}
	if c.BillingCycle != subscription.CycleMonthly {
		t.Errorf("cycle = %q, want monthly", c.BillingCycle)
	}
	if want := decimal.New(1599, -2); !c.Amount.Equal(want) {
		t.Errorf("amount = %s, want %s", c.Amount, want)
	}
	if want := date(2024, time.May, 15); !c.LastChargeAt.Equal(want) {
		t.Errorf("last charge = %v, want %v", c.LastChargeAt, want)
	}
	if want := date(2024, time.June, 15); !c.NextPaymentDate.Equal(want) {
		t.Errorf("next payment = %v, want %v", c.NextPaymentDate, want)
	}
	if len(c.TransactionIDs) != 3 {
		t.Errorf("transaction ids = %v", c.TransactionIDs)
	}
}

func TestGrouperIgnoresCreditsAndSingles(t *testing.T) {
	asOf := date(2024, time.May, 20)
	refund := debit("t1", "SPOTIFY", 999, date(2024, time.April, 1))
	refund.Amount = refund.Amount.Abs()

	txs := []*ImportedTransaction{
		refund,
		debit("t2", "SPOTIFY", 999, date(2024, time.May, 1)),
		debit("t3", "ONE OFF STORE", 4500, date(2024, time.May, 3)),
	}

	if got := NewGrouper().Group(txs, asOf); len(got) != 0 {
		t.Errorf("candidates = %d, want 0", len(got))
	}
}

func TestGrouperDetectsYearlyCycle(t *testing.T) {
	asOf := date(2024, time.July, 1)
	txs := []*ImportedTransaction{
		debit("t1", "DOMAIN RENEWAL", 1200, date(2022, time.June, 10)),
		debit("t2", "DOMAIN RENEWAL", 1200, date(2023, time.June, 10)),
		debit("t3", "DOMAIN RENEWAL", 1200, date(2024, time.June, 10)),
	}

	got := NewGrouper().Group(txs, asOf)
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}
	if got[0].BillingCycle != subscription.CycleYearly {
		t.Errorf("cycle = %q, want yearly", got[0].BillingCycle)
	}
	if want := date(2025, time.June, 10); !got[0].NextPaymentDate.Equal(want) {
		t.Errorf("next payment = %v, want %v", got[0].NextPaymentDate, want)
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"NETFLIX.COM 0423", "netflix com"},
		{"  Spotify   AB  ", "spotify ab"},
		{"4111 1111", ""},
	}
	for _, tt := range tests {
		if got := normalizeDescription(tt.in); got != tt.want {
			t.Errorf("normalizeDescription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"NETFLIX.COM 0423", "NETFLIX.COM"},
		{"Spotify AB", "Spotify AB"},
		{"REF1234", "REF1234"},
	}
	for _, tt := range tests {
		if got := displayName(tt.in); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
