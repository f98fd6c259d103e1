package models

// BudgetAlertType classifies a budget alert.
type BudgetAlertType string

const (
	AlertOverLimit          BudgetAlertType = "over_limit"
	AlertProjectedOverLimit BudgetAlertType = "projected_over_limit"
	AlertApproachingLimit   BudgetAlertType = "approaching_limit"
)

// BudgetAlert flags a card whose spend is over, projected over, or
// approaching its monthly limit.
type BudgetAlert struct {
	Type             BudgetAlertType `json:"type"`
	CardID           string          `json:"card_id"`
	CardLastFour     string          `json:"card_last_four"`
	MonthlyLimit     float64         `json:"monthly_limit"`
	MonthToDateTotal float64         `json:"month_to_date_total"`
	ProjectedTotal   float64         `json:"projected_total"`
}

// CardBudget is the per-card breakdown within a projection.
type CardBudget struct {
	CardID            string   `json:"card_id"`
	CardLastFour      string   `json:"card_last_four"`
	MonthlyLimit      *float64 `json:"monthly_limit,omitempty"`
	CurrentMonthTotal float64  `json:"current_month_total"`
	ProjectedTotal    float64  `json:"projected_total"`
	LimitUsedPercent  *float64 `json:"limit_used_percent,omitempty"`
}

// BudgetProjection is a linear extrapolation of month-end spend from the
// month-to-date daily average.
type BudgetProjection struct {
	CurrentMonthTotal  float64  `json:"current_month_total"`
	PreviousMonthTotal float64  `json:"previous_month_total"`
	// PercentChange is nil when the previous month total is zero.
	PercentChange       *float64      `json:"percent_change,omitempty"`
	DaysElapsedInMonth  int           `json:"days_elapsed_in_month"`
	DaysInMonth         int           `json:"days_in_month"`
	DailyAverage        float64       `json:"daily_average"`
	ProjectedMonthTotal float64       `json:"projected_month_total"`
	Cards               []CardBudget  `json:"cards,omitempty"`
	Alerts              []BudgetAlert `json:"alerts"`
}

// BudgetConfig holds the tenant-level alerting settings.
type BudgetConfig struct {
	// ApproachingLimitPercent is the month-to-date share of the monthly
	// limit at which an approaching_limit alert is raised.
	ApproachingLimitPercent float64
}

// DefaultBudgetConfig returns the standard alert settings.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{ApproachingLimitPercent: 80}
}
