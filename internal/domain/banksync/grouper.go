package banksync

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"

	"tracksub/internal/domain/subscription"
)

// Grouper clusters imported transactions into recurring-charge candidates.
type Grouper interface {
	Group(txs []*ImportedTransaction, asOf time.Time) []Candidate
}

const (
	defaultMaxDistance    = 3
	defaultMinOccurrences = 2

	// Spacing above this many days between charges reads as a yearly cycle.
	yearlyCycleThresholdDays = 300
)

// LevenshteinGrouper clusters debits whose normalized descriptions are within
// MaxDistance edits of each other. Clusters with at least MinOccurrences
// charges become candidates.
type LevenshteinGrouper struct {
	MaxDistance    int
	MinOccurrences int
}

func NewGrouper() *LevenshteinGrouper {
	return &LevenshteinGrouper{MaxDistance: defaultMaxDistance, MinOccurrences: defaultMinOccurrences}
}

type cluster struct {
	key string
	txs []*ImportedTransaction
}

func (g *LevenshteinGrouper) Group(txs []*ImportedTransaction, asOf time.Time) []Candidate {
	maxDist := g.MaxDistance
	if maxDist <= 0 {
		maxDist = defaultMaxDistance
	}
	minOcc := g.MinOccurrences
	if minOcc <= 0 {
		minOcc = defaultMinOccurrences
	}

	var clusters []*cluster
	for _, tx := range txs {
		// Credits are never subscription charges.
		if !tx.Amount.IsNegative() {
			continue
		}
		key := normalizeDescription(tx.Description)
		if key == "" {
			continue
		}

		matched := false
		for _, c := range clusters {
			if levenshtein.ComputeDistance(key, c.key) <= maxDist {
				c.txs = append(c.txs, tx)
				matched = true
				break
			}
		}
		if !matched {
			clusters = append(clusters, &cluster{key: key, txs: []*ImportedTransaction{tx}})
		}
	}

	var candidates []Candidate
	for _, c := range clusters {
		if len(c.txs) < minOcc {
			continue
		}
		candidates = append(candidates, buildCandidate(c, asOf))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastChargeAt.After(candidates[j].LastChargeAt)
	})
	return candidates
}

func buildCandidate(c *cluster, asOf time.Time) Candidate {
	txs := c.txs
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].TransactedAt.Before(txs[j].TransactedAt)
	})

	cycle := guessCycle(txs)
	latest := txs[len(txs)-1]

	next, err := subscription.RollForward(latest.TransactedAt, cycle, asOf)
	if err != nil {
		next = latest.TransactedAt
	}

	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.TransactionID
	}

	return Candidate{
		Name:            displayName(latest.Description),
		BillingCycle:    cycle,
		Amount:          latest.Amount.Abs(),
		LastChargeAt:    latest.TransactedAt,
		NextPaymentDate: next,
		Occurrences:     len(txs),
		TransactionIDs:  ids,
	}
}

// guessCycle averages the spacing between consecutive charges. Wide gaps mean
// a yearly subscription, anything tighter defaults to monthly.
func guessCycle(txs []*ImportedTransaction) subscription.Cycle {
	if len(txs) < 2 {
		return subscription.CycleMonthly
	}
	totalDays := subscription.DaysBetween(txs[0].TransactedAt, txs[len(txs)-1].TransactedAt)
	avg := totalDays / (len(txs) - 1)
	if avg > yearlyCycleThresholdDays {
		return subscription.CycleYearly
	}
	return subscription.CycleMonthly
}

// normalizeDescription lowercases the statement text and strips digits and
// punctuation, so "NETFLIX.COM 0423" and "Netflix.com 0523" cluster together.
func normalizeDescription(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsDigit(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// displayName trims trailing reference digits from a statement description.
func displayName(s string) string {
	fields := strings.Fields(s)
	for len(fields) > 1 {
		last := fields[len(fields)-1]
		if strings.IndexFunc(last, unicode.IsDigit) >= 0 {
			fields = fields[:len(fields)-1]
			continue
		}
		break
	}
	return strings.Join(fields, " ")
}
