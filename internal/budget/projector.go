// Package budget computes month-to-date spend, prior-month deltas and a
// linear projection of month-end spend per card and per tenant, plus the
// limit alerts derived from those figures.
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// Projector derives budget figures from persisted transactions. It is a pure
// reader; concurrent calls are safe.
type Projector struct {
	cards db.CardCollection
	txs   db.TransactionCollection
	cfg   models.BudgetConfig
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewProjector creates a budget projector.
func NewProjector(cards db.CardCollection, txs db.TransactionCollection, cfg models.BudgetConfig) *Projector {
	return &Projector{cards: cards, txs: txs, cfg: cfg, now: time.Now}
}

// Project computes the projection for one card, or for the whole tenant when
// cardID is empty. Days elapsed is clamped to at least 1 so the first day of
// a month never divides by zero; the previous-month percent change is nil
// when the previous month had no spend.
func (p *Projector) Project(ctx context.Context, tenantID, cardID string) (*models.BudgetProjection, error) {
	now := p.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	current, err := p.txs.QueryRange(ctx, tenantID, monthStart, nextMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to query current month: %w", err)
	}
	previous, err := p.txs.QueryRange(ctx, tenantID, prevMonthStart, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query previous month: %w", err)
	}
	if cardID != "" {
		current = filterByCard(current, cardID)
		previous = filterByCard(previous, cardID)
	}

	daysElapsed := now.Day()
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	daysInMonth := nextMonth.Add(-time.Hour).Day()

	proj := &models.BudgetProjection{
		CurrentMonthTotal:  models.Round2(sumCost(current)),
		PreviousMonthTotal: models.Round2(sumCost(previous)),
		DaysElapsedInMonth: daysElapsed,
		DaysInMonth:        daysInMonth,
		Alerts:             []models.BudgetAlert{},
	}
	proj.DailyAverage = proj.CurrentMonthTotal / float64(daysElapsed)
	proj.ProjectedMonthTotal = models.Round2(proj.DailyAverage * float64(daysInMonth))

	if proj.PreviousMonthTotal != 0 {
		change := (proj.CurrentMonthTotal - proj.PreviousMonthTotal) / proj.PreviousMonthTotal * 100
		proj.PercentChange = &change
	}

	cards, err := p.cards.FindCards(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	perCard := make(map[string]float64)
	for _, tx := range current {
		perCard[tx.CardID] += tx.TotalCost
	}

	for _, card := range cards {
		id := card.ID.Hex()
		if cardID != "" && id != cardID {
			continue
		}
		total := models.Round2(perCard[id])
		projected := models.Round2(total / float64(daysElapsed) * float64(daysInMonth))
		cb := models.CardBudget{
			CardID:            id,
			CardLastFour:      card.LastFour,
			MonthlyLimit:      card.MonthlyLimit,
			CurrentMonthTotal: total,
			ProjectedTotal:    projected,
		}
		if card.MonthlyLimit != nil && *card.MonthlyLimit > 0 {
			used := total / *card.MonthlyLimit * 100
			cb.LimitUsedPercent = &used
			proj.Alerts = append(proj.Alerts, alertsForCard(card, total, projected, p.cfg)...)
		}
		proj.Cards = append(proj.Cards, cb)
	}

	return proj, nil
}

// alertsForCard derives the limit alerts for one card. Over-limit wins over
// the softer states so a card raises at most one alert.
func alertsForCard(card models.FuelCard, total, projected float64, cfg models.BudgetConfig) []models.BudgetAlert {
	limit := *card.MonthlyLimit
	alert := models.BudgetAlert{
		CardID:           card.ID.Hex(),
		CardLastFour:     card.LastFour,
		MonthlyLimit:     limit,
		MonthToDateTotal: total,
		ProjectedTotal:   projected,
	}
	switch {
	case total > limit:
		alert.Type = models.AlertOverLimit
	case projected > limit:
		alert.Type = models.AlertProjectedOverLimit
	case total >= limit*cfg.ApproachingLimitPercent/100:
		alert.Type = models.AlertApproachingLimit
	default:
		return nil
	}
	return []models.BudgetAlert{alert}
}

func filterByCard(txs []models.FuelTransaction, cardID string) []models.FuelTransaction {
	out := txs[:0:0]
	for _, tx := range txs {
		if tx.CardID == cardID {
			out = append(out, tx)
		}
	}
	return out
}

func sumCost(txs []models.FuelTransaction) float64 {
	var total float64
	for _, tx := range txs {
		total += tx.TotalCost
	}
	return total
}
