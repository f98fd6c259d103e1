package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// fakeTransactionCollection stores inserted transactions keyed by dedup key.
type fakeTransactionCollection struct {
	byKey      map[string]string // dedup key -> transaction ID
	inserted   []models.FuelTransaction
	nextID     int
	insertErrs []error // consumed one per InsertTransaction call
	findErr    error
}

func newFakeTxs() *fakeTransactionCollection {
	return &fakeTransactionCollection{byKey: make(map[string]string)}
}

func (f *fakeTransactionCollection) InsertTransaction(ctx context.Context, tx models.FuelTransaction) (string, error) {
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.nextID++
	id := fmt.Sprintf("tx-%d", f.nextID)
	f.byKey[models.DedupKeyFor(tx).String()] = id
	f.inserted = append(f.inserted, tx)
	return id, nil
}

func (f *fakeTransactionCollection) FindByDedupKey(ctx context.Context, tenantID string, key models.DedupKey) (string, error) {
	if f.findErr != nil {
		return "", f.findErr
	}
	if id, ok := f.byKey[key.String()]; ok {
		return id, nil
	}
	return "", db.ErrNotFound
}

func (f *fakeTransactionCollection) QueryRange(ctx context.Context, tenantID string, from, to time.Time) ([]models.FuelTransaction, error) {
	var out []models.FuelTransaction
	for _, tx := range f.inserted {
		if tx.TenantID == tenantID && !tx.Date.Before(from) && tx.Date.Before(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// timeoutErr mimics a driver net error without a live server.
type timeoutErr struct{}

func (timeoutErr) Error() string { return "operation timed out" }
func (timeoutErr) Timeout() bool { return true }

func testCoordinator() (*Coordinator, *fakeTransactionCollection) {
	v, _ := testValidator()
	txs := newFakeTxs()
	c := NewCoordinator(v, txs)
	c.now = fixedNow
	return c, txs
}

func TestCoordinator_EmptyBatch(t *testing.T) {
	c, _ := testCoordinator()
	_, err := c.Run(context.Background(), testTenant, models.ImportBatch{}, false)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestCoordinator_ValidateOnly(t *testing.T) {
	c, txs := testCoordinator()

	bad := validRow()
	bad.CardID = "card-unknown"
	batch := models.ImportBatch{Rows: []models.NormalizedRow{validRow(), bad}}

	result, err := c.Run(context.Background(), testTenant, batch, true)
	assert.NoError(t, err)
	assert.True(t, result.ValidateOnly)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Valid)
	assert.Equal(t, 1, result.Invalid)
	assert.Equal(t, 0, result.Imported)
	assert.Empty(t, txs.inserted, "validate-only run must not persist")

	assert.Equal(t, models.RowStatusValid, result.Details[0].Status)
	assert.Equal(t, models.RowStatusInvalid, result.Details[1].Status)
	assert.Equal(t, []string{ReasonCardNotFound}, result.Details[1].Reasons)

	// repeatable with the same outcome
	again, err := c.Run(context.Background(), testTenant, batch, true)
	assert.NoError(t, err)
	assert.Equal(t, result.Valid, again.Valid)
	assert.Empty(t, txs.inserted)
}

func TestCoordinator_CommitMixedBatch(t *testing.T) {
	c, txs := testCoordinator()

	bad := validRow()
	bad.Litres = nil
	other := validRow()
	other.StationName = "BP Heathrow"
	batch := models.ImportBatch{Rows: []models.NormalizedRow{validRow(), bad, other}}

	result, err := c.Run(context.Background(), testTenant, batch, false)
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Valid)
	assert.Equal(t, 1, result.Invalid)
	assert.Equal(t, 2, result.Imported)
	assert.Len(t, txs.inserted, 2)

	assert.Equal(t, models.RowStatusImported, result.Details[0].Status)
	assert.NotEmpty(t, result.Details[0].TransactionID)
	assert.Equal(t, models.RowStatusInvalid, result.Details[1].Status)
	assert.Equal(t, models.RowStatusImported, result.Details[2].Status)

	tx := txs.inserted[0]
	assert.Equal(t, testTenant, tx.TenantID)
	assert.Equal(t, "import", tx.Source)
	assert.Equal(t, 75.0, tx.TotalCost)
}

func TestCoordinator_DuplicateWithinBatch(t *testing.T) {
	c, txs := testCoordinator()

	batch := models.ImportBatch{Rows: []models.NormalizedRow{validRow(), validRow()}}
	result, err := c.Run(context.Background(), testTenant, batch, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.SkippedDuplicate)
	assert.Len(t, txs.inserted, 1)

	dup := result.Details[1]
	assert.Equal(t, models.RowStatusSkippedDuplicate, dup.Status)
	assert.Equal(t, result.Details[0].TransactionID, dup.TransactionID)
	assert.Equal(t, []string{"duplicate_of:" + dup.TransactionID}, dup.Reasons)
}

func TestCoordinator_RerunIsIdempotent(t *testing.T) {
	c, txs := testCoordinator()
	batch := models.ImportBatch{Rows: []models.NormalizedRow{validRow()}}

	first, err := c.Run(context.Background(), testTenant, batch, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := c.Run(context.Background(), testTenant, batch, false)
	assert.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.SkippedDuplicate)
	assert.Len(t, txs.inserted, 1)
}

func TestCoordinator_DerivesPriceWhenAbsent(t *testing.T) {
	c, txs := testCoordinator()
	row := validRow()
	row.PricePerLitre = nil

	_, err := c.Run(context.Background(), testTenant, models.ImportBatch{Rows: []models.NormalizedRow{row}}, false)
	assert.NoError(t, err)
	if assert.Len(t, txs.inserted, 1) {
		assert.InDelta(t, 1.50, txs.inserted[0].PricePerLitre, 1e-9)
	}
}

func TestCoordinator_TransientInsertRetried(t *testing.T) {
	c, txs := testCoordinator()
	txs.insertErrs = []error{timeoutErr{}, nil}

	result, err := c.Run(context.Background(), testTenant, models.ImportBatch{Rows: []models.NormalizedRow{validRow()}}, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, txs.inserted, 1)
}

func TestCoordinator_PermanentInsertFailure(t *testing.T) {
	c, txs := testCoordinator()
	txs.insertErrs = []error{errors.New("document too large")}

	result, err := c.Run(context.Background(), testTenant, models.ImportBatch{Rows: []models.NormalizedRow{validRow()}}, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.RowStatusFailed, result.Details[0].Status)
	assert.Equal(t, []string{"document too large"}, result.Details[0].Reasons)
	assert.Empty(t, txs.inserted)
}

func TestCoordinator_TransientFailsTwice(t *testing.T) {
	c, txs := testCoordinator()
	txs.insertErrs = []error{timeoutErr{}, timeoutErr{}}

	result, err := c.Run(context.Background(), testTenant, models.ImportBatch{Rows: []models.NormalizedRow{validRow()}}, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, txs.inserted)
}

func TestCoordinator_DedupCheckFailure(t *testing.T) {
	c, txs := testCoordinator()
	txs.findErr = errors.New("connection reset")

	result, err := c.Run(context.Background(), testTenant, models.ImportBatch{Rows: []models.NormalizedRow{validRow()}}, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Details[0].Reasons[0], "dedup_check_failed")
	assert.Empty(t, txs.inserted)
}

func TestCoordinator_CancelledContextAbandonsRun(t *testing.T) {
	c, txs := testCoordinator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := models.ImportBatch{Rows: []models.NormalizedRow{validRow(), validRow()}}
	result, err := c.Run(ctx, testTenant, batch, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, result)
	assert.Equal(t, 0, result.Imported)
	assert.Empty(t, txs.inserted)
}
