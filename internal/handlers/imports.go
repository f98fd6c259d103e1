package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/importer"
)

// maxImportBytes bounds the accepted upload size.
const maxImportBytes = 10 << 20

// ImportHandler exposes the bulk import pipeline: a validate-only dry run
// and the committing import. Both accept a CSV file, either as the request
// body or as the "file" part of a multipart form; the optional provider
// label comes from the "provider" query or form value.
type ImportHandler struct {
	coordinator *importer.Coordinator
}

// NewImportHandler creates a new import handler.
func NewImportHandler(coordinator *importer.Coordinator) *ImportHandler {
	return &ImportHandler{coordinator: coordinator}
}

// Validate handles POST /api/fuel/import/validate. No persistence occurs;
// the call is safe to repeat while the operator fixes up the file.
func (h *ImportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, true)
}

// Import handles POST /api/fuel/import. Valid rows are persisted, invalid
// rows are reported, and rows matching an already-persisted transaction are
// skipped as duplicates. Importing 0 of N rows is still a 200 — the result
// body carries the outcome.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false)
}

func (h *ImportHandler) run(w http.ResponseWriter, r *http.Request, validateOnly bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	body, providerLabel, err := importSource(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	batch, err := importer.ReadBatch(body, tenantID, providerLabel)
	if err != nil {
		// Structural problems reject the call before any row processing.
		http.Error(w, fmt.Sprintf("Unreadable import file: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.coordinator.Run(r.Context(), tenantID, batch, validateOnly)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyBatch) {
			http.Error(w, "Import batch has no rows", http.StatusBadRequest)
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The client went away; nothing useful to write.
			return
		}
		http.Error(w, "Import failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// importSource extracts the CSV stream and provider label from the request.
func importSource(r *http.Request) (io.ReadCloser, string, error) {
	providerLabel := r.URL.Query().Get("provider")

	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, "", fmt.Errorf("unreadable multipart form: %w", err)
		}
		if v := r.FormValue("provider"); v != "" {
			providerLabel = v
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart form must include a \"file\" part")
		}
		return file, providerLabel, nil
	}

	return http.MaxBytesReader(nil, r.Body, maxImportBytes), providerLabel, nil
}

// dateRangeFromQuery parses optional start/end query parameters (inclusive
// calendar dates) into a half-open [from, to) range, defaulting to the
// trailing defaultDays days.
func dateRangeFromQuery(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -defaultDays)

	if v := r.URL.Query().Get("start"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	if v := r.URL.Query().Get("end"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		end = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	if !start.Before(end.AddDate(0, 0, 1)) {
		return time.Time{}, time.Time{}, errors.New("start date must not be after end date")
	}
	// end is inclusive for the caller.
	return start, end.AddDate(0, 0, 1), nil
}
