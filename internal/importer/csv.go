package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

var (
	// ErrNoHeader is returned when the file is empty or has no header row.
	ErrNoHeader = errors.New("import file has no header row")
	// ErrNoRecognizedColumns is returned when the header matches none of the
	// required import fields.
	ErrNoRecognizedColumns = errors.New("import file header contains no recognized columns")
)

// ReadBatch parses a CSV import file into normalized rows. The first record
// must be a header; every following record is normalized independently.
// Malformed input at the file level is a structural error that rejects the
// whole call, but a record with unparseable cells still yields a row — its
// problems are reported later by the validator.
func ReadBatch(r io.Reader, tenantID, providerLabel string) (models.ImportBatch, error) {
	batch := models.ImportBatch{TenantID: tenantID, ProviderLabel: providerLabel}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return batch, ErrNoHeader
	}
	if err != nil {
		return batch, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		// Strip a UTF-8 BOM left by spreadsheet exports.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	mapping := MapHeader(header)
	if !hasRequiredColumns(mapping) {
		return batch, ErrNoRecognizedColumns
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return batch, fmt.Errorf("failed to read record: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		batch.Rows = append(batch.Rows, NormalizeRow(mapping, record))
	}
	return batch, nil
}

// hasRequiredColumns reports whether the mapping covers at least the card
// and date columns. A file missing those entirely is a wrong file, not a
// file with invalid rows.
func hasRequiredColumns(mapping map[int]string) bool {
	var card, date bool
	for _, field := range mapping {
		switch field {
		case FieldCardID:
			card = true
		case FieldDate:
			date = true
		}
	}
	return card && date
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
