// Package reconcile classifies a tenant's fuel transactions into
// data-quality and policy-violation categories for human review. The
// categories are not exclusive and nothing here is persisted — every call
// recomputes the report from stored transactions.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// Classifier scans a tenant's transaction history and buckets issues into
// unmatched, exceeded, unusual and suspicious categories.
type Classifier struct {
	cards db.CardCollection
	txs   db.TransactionCollection
	cfg   models.ReconcileConfig
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cards db.CardCollection, txs db.TransactionCollection, cfg models.ReconcileConfig) *Classifier {
	return &Classifier{cards: cards, txs: txs, cfg: cfg, now: time.Now}
}

// Classify computes the reconciliation report over [from, to). Within each
// category results are ordered by transaction date descending, then total
// cost descending, so the most recent and material issues surface first.
func (c *Classifier) Classify(ctx context.Context, tenantID string, from, to time.Time) (*models.ReconciliationReport, error) {
	txs, err := c.txs.QueryRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	report := &models.ReconciliationReport{
		Unmatched:  []models.UnmatchedTransaction{},
		Exceeded:   []models.ExceededCard{},
		Unusual:    []models.UnusualTransaction{},
		Suspicious: []models.SuspiciousTransaction{},
	}
	report.Summary.TotalTransactions = len(txs)

	report.Unmatched = classifyUnmatched(txs)

	exceeded, err := c.classifyExceeded(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	report.Exceeded = exceeded

	unusual, err := c.classifyUnusual(ctx, tenantID, txs)
	if err != nil {
		return nil, err
	}
	report.Unusual = unusual

	report.Suspicious = classifySuspicious(txs, c.cfg.DuplicateCostTolerance)

	sortUnmatched(report.Unmatched)
	sortUnusual(report.Unusual)
	sortSuspicious(report.Suspicious)

	report.Summary.UnmatchedCount = len(report.Unmatched)
	report.Summary.ExceededCount = len(report.Exceeded)
	report.Summary.UnusualCount = len(report.Unusual)
	report.Summary.SuspiciousCount = len(report.Suspicious)
	return report, nil
}

// classifyUnmatched flags transactions missing a driver or vehicle link.
func classifyUnmatched(txs []models.FuelTransaction) []models.UnmatchedTransaction {
	out := []models.UnmatchedTransaction{}
	for _, tx := range txs {
		if tx.DriverID == "" || tx.VehicleID == "" {
			out = append(out, models.UnmatchedTransaction{
				Transaction:    tx,
				MissingDriver:  tx.DriverID == "",
				MissingVehicle: tx.VehicleID == "",
			})
		}
	}
	return out
}

// classifyExceeded flags cards, not individual transactions, whose spend in
// the current calendar month is over their monthly limit.
func (c *Classifier) classifyExceeded(ctx context.Context, tenantID string) ([]models.ExceededCard, error) {
	cards, err := c.cards.FindCards(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}

	now := c.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	monthTxs, err := c.txs.QueryRange(ctx, tenantID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query current month: %w", err)
	}

	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range monthTxs {
		totals[tx.CardID] += tx.TotalCost
		counts[tx.CardID]++
	}

	out := []models.ExceededCard{}
	for _, card := range cards {
		if card.MonthlyLimit == nil {
			continue
		}
		id := card.ID.Hex()
		total := models.Round2(totals[id])
		if total > *card.MonthlyLimit {
			out = append(out, models.ExceededCard{
				Card:             card,
				MonthlyLimit:     *card.MonthlyLimit,
				MonthToDateTotal: total,
				Overage:          models.Round2(total - *card.MonthlyLimit),
				TransactionCount: counts[id],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Overage > out[j].Overage })
	return out, nil
}

// classifyUnusual flags per-field outliers against the tenant's trailing
// medians. Medians are recomputed from the stored window on every call so
// edits never leave a stale baseline.
func (c *Classifier) classifyUnusual(ctx context.Context, tenantID string, txs []models.FuelTransaction) ([]models.UnusualTransaction, error) {
	now := c.now().UTC()
	windowStart := now.AddDate(0, 0, -c.cfg.MedianWindowDays)
	window, err := c.txs.QueryRange(ctx, tenantID, windowStart, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to query median window: %w", err)
	}

	litres := make([]float64, 0, len(window))
	costs := make([]float64, 0, len(window))
	prices := make([]float64, 0, len(window))
	for _, tx := range window {
		litres = append(litres, tx.Litres)
		costs = append(costs, tx.TotalCost)
		prices = append(prices, tx.PricePerLitre)
	}
	medLitres := median(litres)
	medCost := median(costs)
	medPrice := median(prices)

	out := []models.UnusualTransaction{}
	for _, tx := range txs {
		var fields []string
		if medLitres > 0 && tx.Litres > c.cfg.UnusualHighMultiple*medLitres {
			fields = append(fields, "litres")
		}
		if medCost > 0 && tx.TotalCost > c.cfg.UnusualHighMultiple*medCost {
			fields = append(fields, "total_cost")
		}
		if medPrice > 0 {
			if tx.PricePerLitre > c.cfg.UnusualHighMultiple*medPrice ||
				tx.PricePerLitre < c.cfg.UnusualLowPriceMultiple*medPrice {
				fields = append(fields, "price_per_litre")
			}
		}
		if len(fields) > 0 {
			out = append(out, models.UnusualTransaction{Transaction: tx, Fields: fields})
		}
	}
	return out, nil
}

// classifySuspicious groups transactions by card and calendar date, then
// clusters near-identical amounts within the cost tolerance. Any cluster of
// two or more is flagged; similar_count is the cluster size minus one. The
// heuristic is intentionally coarse — a reviewer sorts out the false
// positives.
func classifySuspicious(txs []models.FuelTransaction, tolerance float64) []models.SuspiciousTransaction {
	type groupKey struct {
		cardID string
		date   string
	}
	groups := make(map[groupKey][]models.FuelTransaction)
	for _, tx := range txs {
		key := groupKey{cardID: tx.CardID, date: tx.Date.Format(time.DateOnly)}
		groups[key] = append(groups[key], tx)
	}

	out := []models.SuspiciousTransaction{}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].TotalCost < group[j].TotalCost })
		// Chain amounts whose consecutive difference stays within tolerance.
		start := 0
		for i := 1; i <= len(group); i++ {
			if i < len(group) && group[i].TotalCost-group[i-1].TotalCost <= tolerance+1e-9 {
				continue
			}
			if size := i - start; size >= 2 {
				for _, tx := range group[start:i] {
					out = append(out, models.SuspiciousTransaction{
						Transaction:  tx,
						SimilarCount: size - 1,
					})
				}
			}
			start = i
		}
	}
	return out
}

// median returns the middle value of vs, or 0 for an empty slice.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func newerOrDearer(a, b models.FuelTransaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.TotalCost > b.TotalCost
}

func sortUnmatched(items []models.UnmatchedTransaction) {
	sort.Slice(items, func(i, j int) bool { return newerOrDearer(items[i].Transaction, items[j].Transaction) })
}

func sortUnusual(items []models.UnusualTransaction) {
	sort.Slice(items, func(i, j int) bool { return newerOrDearer(items[i].Transaction, items[j].Transaction) })
}

func sortSuspicious(items []models.SuspiciousTransaction) {
	sort.Slice(items, func(i, j int) bool { return newerOrDearer(items[i].Transaction, items[j].Transaction) })
}
