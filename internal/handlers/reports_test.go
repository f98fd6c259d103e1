package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transitkit/fuelcard-backoffice/internal/analytics"
	"github.com/transitkit/fuelcard-backoffice/internal/budget"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
	"github.com/transitkit/fuelcard-backoffice/internal/reconcile"
)

func newReportsHandler(cards *MockCardCollection, txs *MockTransactionCollection) *ReportsHandler {
	return NewReportsHandler(
		reconcile.NewClassifier(cards, txs, models.DefaultReconcileConfig()),
		budget.NewProjector(cards, txs, models.DefaultBudgetConfig()),
		analytics.NewAggregator(txs),
	)
}

func TestReportsHandler_Reconciliation(t *testing.T) {
	t.Run("empty range", func(t *testing.T) {
		mockCards := new(MockCardCollection)
		mockTxs := new(MockTransactionCollection)
		handler := newReportsHandler(mockCards, mockTxs)

		mockTxs.On("QueryRange", mock.Anything, "tenant-a", mock.Anything, mock.Anything).Return(nil, nil)
		mockCards.On("FindCards", mock.Anything, "tenant-a").Return(nil, nil)

		req := authedRequest("GET", "/api/fuel/reconciliation?start=2026-03-01&end=2026-03-31", nil)
		w := httptest.NewRecorder()

		handler.Reconciliation(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var report models.ReconciliationReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Empty(t, report.Unmatched)
		assert.Empty(t, report.Suspicious)
	})

	t.Run("invalid date", func(t *testing.T) {
		handler := newReportsHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := authedRequest("GET", "/api/fuel/reconciliation?start=March", nil)
		w := httptest.NewRecorder()

		handler.Reconciliation(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := newReportsHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := authedRequest("POST", "/api/fuel/reconciliation", nil)
		w := httptest.NewRecorder()

		handler.Reconciliation(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestReportsHandler_Budget(t *testing.T) {
	t.Run("tenant-wide projection", func(t *testing.T) {
		mockCards := new(MockCardCollection)
		mockTxs := new(MockTransactionCollection)
		handler := newReportsHandler(mockCards, mockTxs)

		txs := []models.FuelTransaction{
			{TenantID: "tenant-a", CardID: "card-1", TotalCost: 120, Date: time.Now().UTC()},
		}
		// current month has spend, previous month is empty
		mockTxs.On("QueryRange", mock.Anything, "tenant-a", mock.Anything, mock.Anything).Return(txs, nil).Once()
		mockTxs.On("QueryRange", mock.Anything, "tenant-a", mock.Anything, mock.Anything).Return(nil, nil).Once()
		mockCards.On("FindCards", mock.Anything, "tenant-a").Return(nil, nil)

		req := authedRequest("GET", "/api/fuel/budget", nil)
		w := httptest.NewRecorder()

		handler.Budget(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var proj models.BudgetProjection
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proj))
		assert.Equal(t, 120.0, proj.CurrentMonthTotal)
		assert.Nil(t, proj.PercentChange)
		assert.NotNil(t, proj.Alerts)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := newReportsHandler(new(MockCardCollection), new(MockTransactionCollection))

		req := httptest.NewRequest("GET", "/api/fuel/budget", nil)
		w := httptest.NewRecorder()

		handler.Budget(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestReportsHandler_Analytics(t *testing.T) {
	t.Run("default months", func(t *testing.T) {
		mockTxs := new(MockTransactionCollection)
		handler := newReportsHandler(new(MockCardCollection), mockTxs)

		mockTxs.On("QueryRange", mock.Anything, "tenant-a", mock.Anything, mock.Anything).Return(nil, nil)

		req := authedRequest("GET", "/api/fuel/analytics", nil)
		w := httptest.NewRecorder()

		handler.Analytics(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var report models.AnalyticsReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 12, report.Months)
		assert.Len(t, report.UsagePatterns, 7)
	})

	t.Run("explicit months", func(t *testing.T) {
		mockTxs := new(MockTransactionCollection)
		handler := newReportsHandler(new(MockCardCollection), mockTxs)

		mockTxs.On("QueryRange", mock.Anything, "tenant-a", mock.Anything, mock.Anything).Return(nil, nil)

		req := authedRequest("GET", "/api/fuel/analytics?months=3", nil)
		w := httptest.NewRecorder()

		handler.Analytics(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var report models.AnalyticsReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 3, report.Months)
	})

	t.Run("months out of range", func(t *testing.T) {
		handler := newReportsHandler(new(MockCardCollection), new(MockTransactionCollection))

		for _, v := range []string{"0", "61", "-1", "abc"} {
			req := authedRequest("GET", "/api/fuel/analytics?months="+v, nil)
			w := httptest.NewRecorder()

			handler.Analytics(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, "months=%s", v)
		}
	})
}
