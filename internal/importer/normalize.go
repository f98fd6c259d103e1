// Package importer implements the bulk transaction import pipeline:
// normalization of heterogeneous tabular input, per-row validation against
// directory lookups, and the batch coordinator that persists valid rows with
// duplicate detection.
package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// Canonical field names recognized in import files.
const (
	FieldCardID        = "card_id"
	FieldDate          = "transaction_date"
	FieldTime          = "transaction_time"
	FieldLitres        = "litres"
	FieldPricePerLitre = "price_per_litre"
	FieldTotalCost     = "total_cost"
	FieldStation       = "station_name"
	FieldReceipt       = "receipt_number"
	FieldDriverID      = "driver_id"
	FieldVehicleID     = "vehicle_id"
	FieldMileage       = "mileage"
	FieldNotes         = "notes"
)

// headerAliases maps the accepted header spellings (after canonicalization)
// to canonical field names. Provider export files disagree on header naming,
// so each field tolerates several aliases.
var headerAliases = map[string]string{
	"cardid":          FieldCardID,
	"card":            FieldCardID,
	"cardnumber":      FieldCardID,
	"transactiondate": FieldDate,
	"date":            FieldDate,
	"trandate":        FieldDate,
	"transactiontime": FieldTime,
	"time":            FieldTime,
	"litres":          FieldLitres,
	"liters":          FieldLitres,
	"volume":          FieldLitres,
	"volumel":         FieldLitres,
	"quantity":        FieldLitres,
	"priceperlitre":   FieldPricePerLitre,
	"unitprice":       FieldPricePerLitre,
	"ppl":             FieldPricePerLitre,
	"totalcost":       FieldTotalCost,
	"cost":            FieldTotalCost,
	"total":           FieldTotalCost,
	"amount":          FieldTotalCost,
	"netamount":       FieldTotalCost,
	"stationname":     FieldStation,
	"station":         FieldStation,
	"site":            FieldStation,
	"sitename":        FieldStation,
	"receiptnumber":   FieldReceipt,
	"receipt":         FieldReceipt,
	"driverid":        FieldDriverID,
	"driver":          FieldDriverID,
	"vehicleid":       FieldVehicleID,
	"vehicle":         FieldVehicleID,
	"registration":    FieldVehicleID,
	"mileage":         FieldMileage,
	"odometer":        FieldMileage,
	"notes":           FieldNotes,
	"comments":        FieldNotes,
}

// dateLayouts are tried in order when parsing transaction dates.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
}

// canonicalizeHeader lowercases a header cell and strips everything that is
// not a letter or digit, so "Card ID", "card_id" and "CardID" all collapse
// to "cardid".
func canonicalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MapHeader resolves a header row to a column-index-to-canonical-field
// mapping. Unrecognized columns are ignored.
func MapHeader(header []string) map[int]string {
	mapping := make(map[int]string, len(header))
	for i, cell := range header {
		if field, ok := headerAliases[canonicalizeHeader(cell)]; ok {
			if _, taken := indexOfField(mapping, field); !taken {
				mapping[i] = field
			}
		}
	}
	return mapping
}

func indexOfField(mapping map[int]string, field string) (int, bool) {
	for i, f := range mapping {
		if f == field {
			return i, true
		}
	}
	return 0, false
}

// NormalizeRow converts one raw record into a typed row using the header
// mapping. Normalization never fails: unparseable numeric or date values
// become nil so the validator can report them alongside every other problem
// in the row, instead of the parse aborting the batch. Pure function.
func NormalizeRow(mapping map[int]string, record []string) models.NormalizedRow {
	var row models.NormalizedRow
	for i, field := range mapping {
		if i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		switch field {
		case FieldCardID:
			row.CardID = value
		case FieldDate:
			row.Date = parseDate(value)
		case FieldTime:
			row.TimeOfDay = parseTimeOfDay(value)
		case FieldLitres:
			row.Litres = parseDecimal(value)
		case FieldPricePerLitre:
			row.PricePerLitre = parseDecimal(value)
		case FieldTotalCost:
			row.TotalCost = parseDecimal(value)
		case FieldStation:
			row.StationName = value
		case FieldReceipt:
			row.ReceiptNumber = value
		case FieldDriverID:
			row.DriverID = value
		case FieldVehicleID:
			row.VehicleID = value
		case FieldMileage:
			row.Mileage = parseDecimal(value)
		case FieldNotes:
			row.Notes = value
		}
	}
	return row
}

// parseDecimal parses a numeric cell tolerating both decimal-comma and
// decimal-point locales ("1.234,56", "1,234.56", "45,50", "45.50").
// Returns nil when the value is not a number.
func parseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "$")

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		// The later separator is the decimal point.
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		// A single comma followed by one or two digits is a decimal comma;
		// otherwise treat commas as thousands separators.
		if strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseDate tries each accepted layout and returns the calendar date at
// midnight UTC, or nil when no layout matches.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	// Some exports carry a timestamp; keep the date part.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

// parseTimeOfDay normalizes a time cell to "HH:MM", or "" when unparseable.
// Time of day is optional, so a bad value degrades to absent.
func parseTimeOfDay(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05", "3:04PM", "3:04 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}
