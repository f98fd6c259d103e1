package models

// ReconcileConfig carries the tunable thresholds used by the reconciliation
// classifier. The multipliers are heuristics for human review, not invariants,
// so they are passed in explicitly rather than hard-coded.
type ReconcileConfig struct {
	// UnusualHighMultiple flags a transaction when litres, total cost or
	// price-per-litre exceeds this multiple of the tenant's trailing median.
	UnusualHighMultiple float64
	// UnusualLowPriceMultiple flags suspiciously cheap price-per-litre values
	// (typically data-entry errors) below this fraction of the median.
	UnusualLowPriceMultiple float64
	// MedianWindowDays is the trailing window the medians are computed over.
	MedianWindowDays int
	// DuplicateCostTolerance is the currency tolerance for grouping
	// near-identical same-day amounts on one card.
	DuplicateCostTolerance float64
}

// DefaultReconcileConfig returns the standard thresholds.
func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		UnusualHighMultiple:     2.5,
		UnusualLowPriceMultiple: 0.2,
		MedianWindowDays:        90,
		DuplicateCostTolerance:  0.01,
	}
}

// UnmatchedTransaction is a transaction missing its driver or vehicle link.
type UnmatchedTransaction struct {
	Transaction    FuelTransaction `json:"transaction"`
	MissingDriver  bool            `json:"missing_driver"`
	MissingVehicle bool            `json:"missing_vehicle"`
}

// ExceededCard is a card whose month-to-date spend is over its monthly limit.
type ExceededCard struct {
	Card             FuelCard `json:"card"`
	MonthlyLimit     float64  `json:"monthly_limit"`
	MonthToDateTotal float64  `json:"month_to_date_total"`
	Overage          float64  `json:"overage"`
	TransactionCount int      `json:"transaction_count"`
}

// UnusualTransaction is a transaction with one or more outlier fields.
type UnusualTransaction struct {
	Transaction FuelTransaction `json:"transaction"`
	// Fields lists which values triggered the flag: "litres", "total_cost"
	// or "price_per_litre".
	Fields []string `json:"fields"`
}

// SuspiciousTransaction is a near-duplicate of another same-day transaction
// on the same card.
type SuspiciousTransaction struct {
	Transaction FuelTransaction `json:"transaction"`
	SimilarCount int            `json:"similar_count"`
}

// ReconciliationSummary holds the per-category counts.
type ReconciliationSummary struct {
	TotalTransactions int `json:"total_transactions"`
	UnmatchedCount    int `json:"unmatched_count"`
	ExceededCount     int `json:"exceeded_count"`
	UnusualCount      int `json:"unusual_count"`
	SuspiciousCount   int `json:"suspicious_count"`
}

// ReconciliationReport is the full classification result for one tenant and
// date range. Categories are not exclusive; a transaction may appear in more
// than one. Nothing here is persisted — the report is recomputed on demand.
type ReconciliationReport struct {
	Summary    ReconciliationSummary   `json:"summary"`
	Unmatched  []UnmatchedTransaction  `json:"unmatched"`
	Exceeded   []ExceededCard          `json:"exceeded"`
	Unusual    []UnusualTransaction    `json:"unusual"`
	Suspicious []SuspiciousTransaction `json:"suspicious"`
}
