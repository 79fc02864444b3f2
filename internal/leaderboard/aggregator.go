// Package leaderboard is a read-only rollup of per-identity contributions.
// It reads the same tables the engine writes and never mutates anything.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Metric selects the ranking dimension. The empty metric ranks by the fixed
// composite ordering: reports, then offers, then upvotes.
type Metric string

const (
	MetricReports       Metric = "reports"
	MetricUpvotes       Metric = "upvotes"
	MetricVerifications Metric = "verifications"
	MetricOffers        Metric = "offers"
	MetricResolutions   Metric = "resolutions"
	MetricComposite     Metric = ""
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricReports:
		return MetricReports, nil
	case MetricUpvotes:
		return MetricUpvotes, nil
	case MetricVerifications:
		return MetricVerifications, nil
	case MetricOffers:
		return MetricOffers, nil
	case MetricResolutions:
		return MetricResolutions, nil
	case MetricComposite:
		return MetricComposite, nil
	}
	return "", fmt.Errorf("unknown leaderboard metric %q", s)
}

// Entry is one identity's accumulated contribution counts.
type Entry struct {
	Identity      string `json:"-"`
	Masked        string `json:"identity"`
	Rank          int    `json:"rank"`
	Reports       int    `json:"reports"`
	Upvotes       int    `json:"upvotes"`
	Verifications int    `json:"verifications"`
	Offers        int    `json:"offers"`
	Resolutions   int    `json:"resolutions"`
}

type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Top returns up to limit entries ranked by metric, identities masked for
// public display.
func (a *Aggregator) Top(ctx context.Context, metric Metric, limit int) ([]Entry, error) {
	entries, err := a.collect(ctx)
	if err != nil {
		return nil, err
	}

	Rank(entries, metric)

	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	for i := range entries {
		entries[i].Masked = MaskIdentity(entries[i].Identity)
		entries[i].Identity = ""
	}
	return entries, nil
}

type identityCount struct {
	Identity string
	N        int
}

func (a *Aggregator) collect(ctx context.Context) ([]Entry, error) {
	byIdentity := map[string]*Entry{}
	get := func(identity string) *Entry {
		e, ok := byIdentity[identity]
		if !ok {
			e = &Entry{Identity: identity}
			byIdentity[identity] = e
		}
		return e
	}

	queries := []struct {
		sql   string
		apply func(e *Entry, n int)
	}{
		{`SELECT reporter AS identity, COUNT(*) AS n FROM civic.problems GROUP BY reporter`,
			func(e *Entry, n int) { e.Reports = n }},
		{`SELECT voter AS identity, COUNT(*) AS n FROM civic.upvotes GROUP BY voter`,
			func(e *Entry, n int) { e.Upvotes = n }},
		{`SELECT verifier AS identity, COUNT(*) AS n FROM civic.verifications GROUP BY verifier`,
			func(e *Entry, n int) { e.Verifications = n }},
		{`SELECT volunteer AS identity, COUNT(*) AS n FROM civic.resolution_offers GROUP BY volunteer`,
			func(e *Entry, n int) { e.Offers = n }},
		{`SELECT resolved_by AS identity, COUNT(*) AS n FROM civic.problems WHERE resolved_by IS NOT NULL GROUP BY resolved_by`,
			func(e *Entry, n int) { e.Resolutions = n }},
	}

	for _, q := range queries {
		var counts []identityCount
		if err := a.db.WithContext(ctx).Raw(q.sql).Scan(&counts).Error; err != nil {
			return nil, fmt.Errorf("leaderboard rollup: %w", err)
		}
		for _, c := range counts {
			q.apply(get(c.Identity), c.N)
		}
	}

	entries := make([]Entry, 0, len(byIdentity))
	for _, e := range byIdentity {
		entries = append(entries, *e)
	}
	return entries, nil
}

// Rank orders entries in place by the chosen metric, highest first, and fills
// in rank numbers. Ties break on the composite order, then identity so the
// result is deterministic.
func Rank(entries []Entry, metric Metric) {
	value := func(e Entry) int {
		switch metric {
		case MetricReports:
			return e.Reports
		case MetricUpvotes:
			return e.Upvotes
		case MetricVerifications:
			return e.Verifications
		case MetricOffers:
			return e.Offers
		case MetricResolutions:
			return e.Resolutions
		}
		return 0
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if metric != MetricComposite {
			if va, vb := value(a), value(b); va != vb {
				return va > vb
			}
		}
		if a.Reports != b.Reports {
			return a.Reports > b.Reports
		}
		if a.Offers != b.Offers {
			return a.Offers > b.Offers
		}
		if a.Upvotes != b.Upvotes {
			return a.Upvotes > b.Upvotes
		}
		return a.Identity < b.Identity
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// MaskIdentity partially redacts an identity token for shared display:
// country code stays readable, the subscriber digits don't.
func MaskIdentity(identity string) string {
	if len(identity) < 7 {
		return "***"
	}
	return identity[:5] + strings.Repeat("*", len(identity)-7) + identity[len(identity)-2:]
}
