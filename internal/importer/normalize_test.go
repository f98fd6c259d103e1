package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeHeader(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Card ID", "cardid"},
		{"card_id", "cardid"},
		{"CARD-ID", "cardid"},
		{"  Transaction Date  ", "transactiondate"},
		{"Volume (L)", "volumel"},
		{"£ Total", "total"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, canonicalizeHeader(tt.input), "input %q", tt.input)
	}
}

func TestMapHeader(t *testing.T) {
	header := []string{"Card Number", "Transaction Date", "Time", "Volume (L)", "Unit Price", "Net Amount", "Site Name", "Odometer", "Internal Ref"}
	mapping := MapHeader(header)

	assert.Equal(t, FieldCardID, mapping[0])
	assert.Equal(t, FieldDate, mapping[1])
	assert.Equal(t, FieldTime, mapping[2])
	assert.Equal(t, FieldLitres, mapping[3])
	assert.Equal(t, FieldPricePerLitre, mapping[4])
	assert.Equal(t, FieldTotalCost, mapping[5])
	assert.Equal(t, FieldStation, mapping[6])
	assert.Equal(t, FieldMileage, mapping[7])

	// unrecognized columns are dropped
	_, ok := mapping[8]
	assert.False(t, ok)
}

func TestMapHeader_FirstAliasWins(t *testing.T) {
	// Two columns resolving to the same field keep the first occurrence.
	mapping := MapHeader([]string{"Date", "Transaction Date", "Card"})
	assert.Equal(t, FieldDate, mapping[0])
	_, dup := mapping[1]
	assert.False(t, dup)
}

func TestNormalizeRow_FullRecord(t *testing.T) {
	header := []string{"card_id", "transaction_date", "time", "litres", "price_per_litre", "total_cost", "station_name", "driver_id", "vehicle_id", "mileage", "receipt", "notes"}
	mapping := MapHeader(header)
	record := []string{"card-1", "2026-03-14", "08:45", "50.00", "1.50", "75.00", "Shell Watford Gap", "drv-1", "veh-1", "45320", "R-100", "weekend run"}

	row := NormalizeRow(mapping, record)

	assert.Equal(t, "card-1", row.CardID)
	if assert.NotNil(t, row.Date) {
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *row.Date)
	}
	assert.Equal(t, "08:45", row.TimeOfDay)
	if assert.NotNil(t, row.Litres) {
		assert.Equal(t, 50.0, *row.Litres)
	}
	if assert.NotNil(t, row.PricePerLitre) {
		assert.Equal(t, 1.50, *row.PricePerLitre)
	}
	if assert.NotNil(t, row.TotalCost) {
		assert.Equal(t, 75.0, *row.TotalCost)
	}
	assert.Equal(t, "Shell Watford Gap", row.StationName)
	assert.Equal(t, "drv-1", row.DriverID)
	assert.Equal(t, "veh-1", row.VehicleID)
	if assert.NotNil(t, row.Mileage) {
		assert.Equal(t, 45320.0, *row.Mileage)
	}
	assert.Equal(t, "R-100", row.ReceiptNumber)
	assert.Equal(t, "weekend run", row.Notes)
}

func TestNormalizeRow_UnparseableValuesBecomeNil(t *testing.T) {
	mapping := MapHeader([]string{"card_id", "date", "litres", "total_cost", "station"})
	record := []string{"card-1", "not-a-date", "fifty", "abc", "BP Heathrow"}

	row := NormalizeRow(mapping, record)

	assert.Equal(t, "card-1", row.CardID)
	assert.Nil(t, row.Date)
	assert.Nil(t, row.Litres)
	assert.Nil(t, row.TotalCost)
	assert.Equal(t, "BP Heathrow", row.StationName)
}

func TestNormalizeRow_ShortRecord(t *testing.T) {
	mapping := MapHeader([]string{"card_id", "date", "litres"})
	row := NormalizeRow(mapping, []string{"card-1"})

	assert.Equal(t, "card-1", row.CardID)
	assert.Nil(t, row.Date)
	assert.Nil(t, row.Litres)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"plain", "45.50", f(45.50)},
		{"decimal comma", "45,50", f(45.50)},
		{"thousands dot decimal comma", "1.234,56", f(1234.56)},
		{"thousands comma decimal dot", "1,234.56", f(1234.56)},
		{"thousands comma no decimals", "1,234,567", f(1234567)},
		{"pound sign", "£72.40", f(72.40)},
		{"euro sign", "€72.40", f(72.40)},
		{"integer", "50", f(50)},
		{"negative", "-3.20", f(-3.20)},
		{"spaces inside", "1 234.56", f(1234.56)},
		{"garbage", "n/a", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDecimal(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.InDelta(t, *tt.expected, *got, 1e-9)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	for _, input := range []string{"2026-03-14", "14/03/2026", "14-03-2026", "2026/03/14", "14.03.2026", "2026-03-14T09:30:00Z"} {
		got := parseDate(input)
		if assert.NotNil(t, got, "input %q", input) {
			assert.Equal(t, want, *got, "input %q", input)
		}
	}

	assert.Nil(t, parseDate("14th March 2026"))
	assert.Nil(t, parseDate(""))
}

func TestParseTimeOfDay(t *testing.T) {
	assert.Equal(t, "08:45", parseTimeOfDay("08:45"))
	assert.Equal(t, "08:45", parseTimeOfDay("8:45"))
	assert.Equal(t, "08:45", parseTimeOfDay("08:45:30"))
	assert.Equal(t, "14:05", parseTimeOfDay("2:05PM"))
	assert.Equal(t, "", parseTimeOfDay("quarter past eight"))
	assert.Equal(t, "", parseTimeOfDay(""))
}

func f(v float64) *float64 { return &v }
