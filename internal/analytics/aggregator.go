// Package analytics produces the read-only dashboard rollups: monthly trend
// series, driver and vehicle rankings, station price comparison and
// day-of-week usage. Everything is pure group-and-aggregate over persisted
// transactions.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// Aggregator computes dashboard rollups over a tenant's transactions.
type Aggregator struct {
	txs db.TransactionCollection
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewAggregator creates an analytics aggregator.
func NewAggregator(txs db.TransactionCollection) *Aggregator {
	return &Aggregator{txs: txs, now: time.Now}
}

// Aggregate builds the full report over the trailing number of calendar
// months (including the current one). months below 1 defaults to 12.
func (a *Aggregator) Aggregate(ctx context.Context, tenantID string, months int) (*models.AnalyticsReport, error) {
	if months < 1 {
		months = 12
	}
	now := a.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := monthStart.AddDate(0, -(months - 1), 0)
	to := monthStart.AddDate(0, 1, 0)

	txs, err := a.txs.QueryRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	samples := efficiencySamples(txs)
	return &models.AnalyticsReport{
		Months:            months,
		Trend:             monthlyTrend(txs, samples),
		DriverRankings:    driverRankings(txs),
		VehicleEfficiency: vehicleEfficiency(samples),
		StationComparison: stationComparison(txs),
		UsagePatterns:     usagePatterns(txs),
	}, nil
}

// efficiencySample is one derived distance-per-litres observation.
type efficiencySample struct {
	vehicleID string
	month     string
	km        float64
	litres    float64
}

// efficiencySamples derives km-per-litre observations per vehicle. A
// transaction carrying its own prior-mileage reading yields a sample by
// itself; otherwise the previous chronological reading for the vehicle is
// used, which needs at least two readings.
func efficiencySamples(txs []models.FuelTransaction) []efficiencySample {
	byVehicle := make(map[string][]models.FuelTransaction)
	for _, tx := range txs {
		if tx.VehicleID == "" || tx.Litres <= 0 {
			continue
		}
		byVehicle[tx.VehicleID] = append(byVehicle[tx.VehicleID], tx)
	}

	var samples []efficiencySample
	for vehicleID, vtxs := range byVehicle {
		sort.Slice(vtxs, func(i, j int) bool { return vtxs[i].Date.Before(vtxs[j].Date) })
		var prev *float64
		for _, tx := range vtxs {
			if tx.Mileage == nil {
				continue
			}
			from := tx.PreviousMileage
			if from == nil {
				from = prev
			}
			if from != nil && *tx.Mileage > *from {
				samples = append(samples, efficiencySample{
					vehicleID: vehicleID,
					month:     tx.Date.Format("2006-01"),
					km:        *tx.Mileage - *from,
					litres:    tx.Litres,
				})
			}
			m := *tx.Mileage
			prev = &m
		}
	}
	return samples
}

func monthlyTrend(txs []models.FuelTransaction, samples []efficiencySample) []models.MonthlyTrendPoint {
	type acc struct {
		cost, litres, priceSum float64
		count                  int
		km, sampleLitres       float64
	}
	byMonth := make(map[string]*acc)
	for _, tx := range txs {
		month := tx.Date.Format("2006-01")
		a, ok := byMonth[month]
		if !ok {
			a = &acc{}
			byMonth[month] = a
		}
		a.cost += tx.TotalCost
		a.litres += tx.Litres
		a.priceSum += tx.PricePerLitre
		a.count++
	}
	for _, s := range samples {
		if a, ok := byMonth[s.month]; ok {
			a.km += s.km
			a.sampleLitres += s.litres
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := []models.MonthlyTrendPoint{}
	for _, m := range months {
		a := byMonth[m]
		point := models.MonthlyTrendPoint{
			Month:            m,
			TotalCost:        models.Round2(a.cost),
			TotalLitres:      models.Round2(a.litres),
			TransactionCount: a.count,
		}
		if a.count > 0 {
			point.AveragePrice = models.Round2(a.priceSum / float64(a.count))
		}
		if a.sampleLitres > 0 {
			eff := a.km / a.sampleLitres
			point.AverageEfficiency = &eff
		}
		out = append(out, point)
	}
	return out
}

func driverRankings(txs []models.FuelTransaction) []models.DriverRanking {
	byDriver := make(map[string]*models.DriverRanking)
	for _, tx := range txs {
		if tx.DriverID == "" {
			continue
		}
		r, ok := byDriver[tx.DriverID]
		if !ok {
			r = &models.DriverRanking{DriverID: tx.DriverID}
			byDriver[tx.DriverID] = r
		}
		r.TotalCost += tx.TotalCost
		r.TotalLitres += tx.Litres
		r.TransactionCount++
	}

	out := []models.DriverRanking{}
	for _, r := range byDriver {
		r.TotalCost = models.Round2(r.TotalCost)
		r.TotalLitres = models.Round2(r.TotalLitres)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost > out[j].TotalCost
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out
}

func vehicleEfficiency(samples []efficiencySample) []models.VehicleEfficiency {
	byVehicle := make(map[string]*models.VehicleEfficiency)
	for _, s := range samples {
		v, ok := byVehicle[s.vehicleID]
		if !ok {
			v = &models.VehicleEfficiency{VehicleID: s.vehicleID}
			byVehicle[s.vehicleID] = v
		}
		v.TotalKm += s.km
		v.TotalLitres += s.litres
		v.SampleCount++
	}

	out := []models.VehicleEfficiency{}
	for _, v := range byVehicle {
		if v.TotalLitres > 0 {
			v.KmPerLitre = models.Round2(v.TotalKm / v.TotalLitres)
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].KmPerLitre != out[j].KmPerLitre {
			return out[i].KmPerLitre > out[j].KmPerLitre
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	return out
}

func stationComparison(txs []models.FuelTransaction) []models.StationComparison {
	type acc struct {
		priceSum, litres float64
		count            int
	}
	byStation := make(map[string]*acc)
	for _, tx := range txs {
		if tx.StationName == "" {
			continue
		}
		a, ok := byStation[tx.StationName]
		if !ok {
			a = &acc{}
			byStation[tx.StationName] = a
		}
		a.priceSum += tx.PricePerLitre
		a.litres += tx.Litres
		a.count++
	}

	out := []models.StationComparison{}
	for name, a := range byStation {
		out = append(out, models.StationComparison{
			StationName:      name,
			AveragePrice:     models.Round2(a.priceSum / float64(a.count)),
			TotalLitres:      models.Round2(a.litres),
			TransactionCount: a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AveragePrice != out[j].AveragePrice {
			return out[i].AveragePrice < out[j].AveragePrice
		}
		return out[i].StationName < out[j].StationName
	})
	return out
}

func usagePatterns(txs []models.FuelTransaction) []models.WeekdayUsage {
	counts := make([]models.WeekdayUsage, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		counts[d] = models.WeekdayUsage{Weekday: d.String()}
	}
	for _, tx := range txs {
		d := tx.Date.Weekday()
		counts[d].TransactionCount++
		counts[d].TotalCost += tx.TotalCost
	}
	for i := range counts {
		counts[i].TotalCost = models.Round2(counts[i].TotalCost)
	}
	return counts
}
