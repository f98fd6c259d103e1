package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// ErrEmptyBatch rejects a batch with no data rows before any row processing.
var ErrEmptyBatch = errors.New("import batch has no rows")

// Coordinator orchestrates validate-only and commit runs over an import
// batch. Commit runs persist exactly the rows that pass validation, skip
// duplicates of already-persisted transactions, and retry transient storage
// failures once per row.
type Coordinator struct {
	validator *Validator
	txs       db.TransactionCollection
	locks     *keyedLocks
	now       func() time.Time
}

// NewCoordinator creates a batch import coordinator.
func NewCoordinator(validator *Validator, txs db.TransactionCollection) *Coordinator {
	return &Coordinator{
		validator: validator,
		txs:       txs,
		locks:     newKeyedLocks(),
		now:       time.Now,
	}
}

// Run processes the batch. With validateOnly no persistence occurs and the
// call is side-effect free, safe to repeat. A commit run is at-least-
// processed: rows flushed before a cancellation stay persisted, and a
// re-run skips them via the dedup key instead of double-importing.
func (c *Coordinator) Run(ctx context.Context, tenantID string, batch models.ImportBatch, validateOnly bool) (*models.ImportResult, error) {
	if len(batch.Rows) == 0 {
		return nil, ErrEmptyBatch
	}

	result := &models.ImportResult{
		BatchID:       uuid.NewString(),
		ProviderLabel: batch.ProviderLabel,
		ValidateOnly:  validateOnly,
		Total:         len(batch.Rows),
		Details:       make([]models.RowResult, 0, len(batch.Rows)),
	}

	for i, row := range batch.Rows {
		if err := ctx.Err(); err != nil {
			// Abandoned by the caller; rows already flushed are not rolled
			// back.
			return result, err
		}

		rr := models.RowResult{Row: i + 1}
		reasons := c.validator.Validate(ctx, tenantID, row)
		if len(reasons) > 0 {
			rr.Status = models.RowStatusInvalid
			rr.Reasons = reasons
			result.Invalid++
			result.Details = append(result.Details, rr)
			continue
		}
		result.Valid++

		if validateOnly {
			rr.Status = models.RowStatusValid
			result.Details = append(result.Details, rr)
			continue
		}

		rr = c.commitRow(ctx, tenantID, row, i+1)
		switch rr.Status {
		case models.RowStatusImported:
			result.Imported++
		case models.RowStatusSkippedDuplicate:
			result.SkippedDuplicate++
		case models.RowStatusFailed:
			result.Failed++
		}
		result.Details = append(result.Details, rr)
	}

	log.WithFields(log.Fields{
		"batch_id":          result.BatchID,
		"tenant_id":         tenantID,
		"validate_only":     validateOnly,
		"total":             result.Total,
		"valid":             result.Valid,
		"invalid":           result.Invalid,
		"imported":          result.Imported,
		"skipped_duplicate": result.SkippedDuplicate,
		"failed":            result.Failed,
	}).Info("Import batch processed")

	return result, nil
}

// commitRow persists one validated row. The dedup check and insert run under
// a per-tenant-and-card lock so two concurrent submissions of the same row
// cannot both pass the not-yet-imported check.
func (c *Coordinator) commitRow(ctx context.Context, tenantID string, row models.NormalizedRow, rowNum int) models.RowResult {
	rr := models.RowResult{Row: rowNum}
	tx := c.buildTransaction(tenantID, row)
	key := models.DedupKeyFor(tx)

	unlock := c.locks.lock(tenantID + "/" + tx.CardID)
	defer unlock()

	existingID, err := c.txs.FindByDedupKey(ctx, tenantID, key)
	switch {
	case err == nil:
		rr.Status = models.RowStatusSkippedDuplicate
		rr.Reasons = []string{"duplicate_of:" + existingID}
		rr.TransactionID = existingID
		return rr
	case !errors.Is(err, db.ErrNotFound):
		rr.Status = models.RowStatusFailed
		rr.Reasons = []string{fmt.Sprintf("dedup_check_failed:%v", err)}
		return rr
	}

	id, err := c.txs.InsertTransaction(ctx, tx)
	if err != nil && isTransient(err) {
		// One retry, no backoff; transient-lock class only.
		id, err = c.txs.InsertTransaction(ctx, tx)
	}
	if err != nil {
		rr.Status = models.RowStatusFailed
		rr.Reasons = []string{err.Error()}
		return rr
	}

	rr.Status = models.RowStatusImported
	rr.TransactionID = id
	return rr
}

// buildTransaction maps a validated row to the persisted record. Total cost
// is rounded to two decimals; a missing price-per-litre is derived from cost
// and litres for the audit trail.
func (c *Coordinator) buildTransaction(tenantID string, row models.NormalizedRow) models.FuelTransaction {
	price := 0.0
	if row.PricePerLitre != nil {
		price = *row.PricePerLitre
	} else if *row.Litres > 0 {
		price = *row.TotalCost / *row.Litres
	}
	tx := models.FuelTransaction{
		TenantID:      tenantID,
		CardID:        row.CardID,
		DriverID:      row.DriverID,
		VehicleID:     row.VehicleID,
		Date:          *row.Date,
		TimeOfDay:     row.TimeOfDay,
		StationName:   row.StationName,
		Litres:        *row.Litres,
		PricePerLitre: price,
		TotalCost:     models.Round2(*row.TotalCost),
		Mileage:       row.Mileage,
		ReceiptNumber: row.ReceiptNumber,
		Notes:         row.Notes,
		Source:        "import",
	}
	return tx
}

// isTransient reports whether a storage error is worth one retry.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	type timeouter interface{ Timeout() bool }
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}

// keyedLocks serializes work per string key.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
