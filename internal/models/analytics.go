package models

// MonthlyTrendPoint is one calendar month of aggregated fuel activity.
type MonthlyTrendPoint struct {
	Month            string   `json:"month"` // "2006-01"
	TotalCost        float64  `json:"total_cost"`
	TotalLitres      float64  `json:"total_litres"`
	AveragePrice     float64  `json:"average_price"`
	TransactionCount int      `json:"transaction_count"`
	// AverageEfficiency is km per litre from mileage samples in the month,
	// nil when no sample could be derived.
	AverageEfficiency *float64 `json:"average_efficiency,omitempty"`
}

// DriverRanking ranks one driver by total fuel spend.
type DriverRanking struct {
	DriverID         string  `json:"driver_id"`
	TotalCost        float64 `json:"total_cost"`
	TotalLitres      float64 `json:"total_litres"`
	TransactionCount int     `json:"transaction_count"`
}

// VehicleEfficiency ranks one vehicle by average fuel efficiency derived from
// consecutive mileage readings.
type VehicleEfficiency struct {
	VehicleID    string  `json:"vehicle_id"`
	KmPerLitre   float64 `json:"km_per_litre"`
	SampleCount  int     `json:"sample_count"`
	TotalLitres  float64 `json:"total_litres"`
	TotalKm      float64 `json:"total_km"`
}

// StationComparison compares average price-per-litre across stations.
type StationComparison struct {
	StationName      string  `json:"station_name"`
	AveragePrice     float64 `json:"average_price"`
	TotalLitres      float64 `json:"total_litres"`
	TransactionCount int     `json:"transaction_count"`
}

// WeekdayUsage counts transactions per day of the week.
type WeekdayUsage struct {
	Weekday          string  `json:"weekday"`
	TransactionCount int     `json:"transaction_count"`
	TotalCost        float64 `json:"total_cost"`
}

// AnalyticsReport is the dashboard rollup over a tenant's transactions.
type AnalyticsReport struct {
	Months            int                 `json:"months"`
	Trend             []MonthlyTrendPoint `json:"trend"`
	DriverRankings    []DriverRanking     `json:"driver_rankings"`
	VehicleEfficiency []VehicleEfficiency `json:"vehicle_efficiency"`
	StationComparison []StationComparison `json:"station_comparison"`
	UsagePatterns     []WeekdayUsage      `json:"usage_patterns"`
}
