package main

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestBuildCSV_RowCounts(t *testing.T) {
	cards := []string{"64f0c2a1b3d4e5f6a7b8c9d0", "64f0c2a1b3d4e5f6a7b8c9d1"}
	buf := buildCSV(cards, 5, 3, 0, 0)

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("generated CSV does not parse: %v", err)
	}

	// header + days*rowsPerDay data rows, no duplicates at rate 0
	if len(records) != 1+5*3 {
		t.Errorf("expected %d records, got %d", 1+5*3, len(records))
	}
	if records[0][0] != "Card Number" {
		t.Errorf("unexpected first header: %s", records[0][0])
	}
	for i, rec := range records[1:] {
		if rec[0] != cards[0] && rec[0] != cards[1] {
			t.Errorf("row %d uses unknown card %s", i+1, rec[0])
		}
	}
}

func TestBuildCSV_DuplicateRate(t *testing.T) {
	cards := []string{"64f0c2a1b3d4e5f6a7b8c9d0"}
	buf := buildCSV(cards, 2, 5, 1.0, 0)

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("generated CSV does not parse: %v", err)
	}
	// at rate 1 every row after the first is echoed once
	if len(records) <= 1+2*5 {
		t.Errorf("expected duplicated rows, got only %d records", len(records))
	}
}

func TestEnvInt(t *testing.T) {
	os.Unsetenv("DATAGEN_TEST_N")
	if got := envInt("DATAGEN_TEST_N", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
	os.Setenv("DATAGEN_TEST_N", "12")
	if got := envInt("DATAGEN_TEST_N", 7); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
	os.Setenv("DATAGEN_TEST_N", "not-a-number")
	if got := envInt("DATAGEN_TEST_N", 7); got != 7 {
		t.Errorf("expected default for invalid value, got %d", got)
	}
	os.Setenv("DATAGEN_TEST_N", "-3")
	if got := envInt("DATAGEN_TEST_N", 7); got != 7 {
		t.Errorf("expected default for negative value, got %d", got)
	}
	os.Unsetenv("DATAGEN_TEST_N")
}

func TestCreateJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abc123"}`))
	}))
	defer server.Close()

	id, err := createJSON(server.URL, map[string]string{"name": "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "abc123" {
		t.Errorf("expected id abc123, got %s", id)
	}
}

func TestCreateJSON_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := createJSON(server.URL, map[string]string{"name": "test"}); err == nil {
		t.Error("expected error for 401 response")
	}
}

func TestRunImport_ParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fuel/import" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"batch_id":"b1","total":10,"valid":9,"invalid":1,"imported":9}`))
	}))
	defer server.Close()

	body := bytes.NewBufferString("Card Number,Transaction Date\nx,01/01/2026\n")
	if err := runImport(server.URL, body, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
