package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/importer"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

const importCSV = `Card ID,Transaction Date,Litres,Total Cost,Station Name
card-1,2024-06-01,40,60.00,Shell Watford Gap
card-missing,2024-06-02,30,45.00,BP Heathrow
`

func newImportHandler(cards *MockCardCollection, txs *MockTransactionCollection) *ImportHandler {
	validator := importer.NewValidator(cards, new(MockDriverCollection), new(MockVehicleCollection))
	return NewImportHandler(importer.NewCoordinator(validator, txs))
}

func csvRequest(target, body string) *http.Request {
	req := authedRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	return req
}

func TestImportHandler_Validate(t *testing.T) {
	t.Run("dry run persists nothing", func(t *testing.T) {
		mockCards := new(MockCardCollection)
		mockTxs := new(MockTransactionCollection)
		handler := newImportHandler(mockCards, mockTxs)

		mockCards.On("FindCardByID", mock.Anything, "tenant-a", "card-1").Return(activeCard(), nil)
		mockCards.On("FindCardByID", mock.Anything, "tenant-a", "card-missing").Return(nil, db.ErrNotFound)

		req := csvRequest("/api/fuel/import/validate?provider=shell", importCSV)
		w := httptest.NewRecorder()

		handler.Validate(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var result models.ImportResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.ValidateOnly)
		assert.Equal(t, "shell", result.ProviderLabel)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Valid)
		assert.Equal(t, 1, result.Invalid)
		assert.Equal(t, 0, result.Imported)
		mockTxs.AssertNotCalled(t, "InsertTransaction")
		mockTxs.AssertNotCalled(t, "FindByDedupKey")
	})
}

func TestImportHandler_Import(t *testing.T) {
	t.Run("commits valid rows and reports invalid ones", func(t *testing.T) {
		mockCards := new(MockCardCollection)
		mockTxs := new(MockTransactionCollection)
		handler := newImportHandler(mockCards, mockTxs)

		mockCards.On("FindCardByID", mock.Anything, "tenant-a", "card-1").Return(activeCard(), nil)
		mockCards.On("FindCardByID", mock.Anything, "tenant-a", "card-missing").Return(nil, db.ErrNotFound)
		mockTxs.On("FindByDedupKey", mock.Anything, "tenant-a", mock.Anything).Return("", db.ErrNotFound)
		mockTxs.On("InsertTransaction", mock.Anything, mock.MatchedBy(func(tx models.FuelTransaction) bool {
			return tx.CardID == "card-1" && tx.Source == "import"
		})).Return("tx-1", nil)

		req := csvRequest("/api/fuel/import", importCSV)
		w := httptest.NewRecorder()

		handler.Import(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var result models.ImportResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.ValidateOnly)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, result.Invalid)
		require.Len(t, result.Details, 2)
		assert.Equal(t, models.RowStatusImported, result.Details[0].Status)
		assert.Equal(t, "tx-1", result.Details[0].TransactionID)
		assert.Equal(t, models.RowStatusInvalid, result.Details[1].Status)
		mockTxs.AssertExpectations(t)
	})

	t.Run("multipart upload", func(t *testing.T) {
		mockCards := new(MockCardCollection)
		mockTxs := new(MockTransactionCollection)
		handler := newImportHandler(mockCards, mockTxs)

		mockCards.On("FindCardByID", mock.Anything, "tenant-a", "card-1").Return(activeCard(), nil)
		mockTxs.On("FindByDedupKey", mock.Anything, "tenant-a", mock.Anything).Return("", db.ErrNotFound)
		mockTxs.On("InsertTransaction", mock.Anything, mock.Anything).Return("tx-1", nil)

		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		form.WriteField("provider", "keyfuels")
		part, err := form.CreateFormFile("file", "june.csv")
		require.NoError(t, err)
		part.Write([]byte("Card ID,Transaction Date,Litres,Total Cost,Station Name\ncard-1,2024-06-01,40,60.00,Shell Watford Gap\n"))
		require.NoError(t, form.Close())

		req := authedRequest("POST", "/api/fuel/import", &buf)
		req.Header.Set("Content-Type", form.FormDataContentType())
		w := httptest.NewRecorder()

		handler.Import(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var result models.ImportResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "keyfuels", result.ProviderLabel)
		assert.Equal(t, 1, result.Imported)
	})

	t.Run("empty file", func(t *testing.T) {
		handler := newImportHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := csvRequest("/api/fuel/import", "")
		w := httptest.NewRecorder()

		handler.Import(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unrecognized columns", func(t *testing.T) {
		handler := newImportHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := csvRequest("/api/fuel/import", "Foo,Bar,Baz\n1,2,3\n")
		w := httptest.NewRecorder()

		handler.Import(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Unreadable import file")
	})

	t.Run("header but no data rows", func(t *testing.T) {
		handler := newImportHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := csvRequest("/api/fuel/import", "Card ID,Transaction Date,Litres,Total Cost,Station Name\n")
		w := httptest.NewRecorder()

		handler.Import(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no rows")
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := newImportHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := authedRequest("GET", "/api/fuel/import", nil)
		w := httptest.NewRecorder()

		handler.Import(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := newImportHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := httptest.NewRequest("POST", "/api/fuel/import", strings.NewReader(importCSV))
		req.Header.Set("Content-Type", "text/csv")
		w := httptest.NewRecorder()

		handler.Import(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
