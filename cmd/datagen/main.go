package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Card mirrors the API payload for fuel-card creation.
type Card struct {
	LastFour     string   `json:"last_four"`
	Provider     string   `json:"provider"`
	DriverID     string   `json:"driver_id,omitempty"`
	VehicleID    string   `json:"vehicle_id,omitempty"`
	MonthlyLimit *float64 `json:"monthly_limit,omitempty"`
	Status       string   `json:"status"`
}

var providers = []string{"shell", "bp", "esso", "keyfuels", "ukfuels"}

var stations = []string{
	"Shell Watford Gap", "Shell Birmingham Central", "BP Heathrow",
	"Esso Leeds South", "Keyfuels Depot Manchester", "BP Bristol M4",
	"Shell Newport", "UK Fuels Carlisle", "Esso Glasgow East",
}

var driverNames = []string{
	"Aisha Patel", "Tom Whitfield", "Marek Kowalski", "Sandra Obi",
	"Liam Docherty", "Priya Shah", "Gareth Evans", "Chloe Murray",
}

var vehicleMakes = map[string][]string{
	"Mercedes": {"Sprinter", "Citaro"},
	"Volvo":    {"B8RLE", "FH"},
	"Scania":   {"K-series", "R450"},
	"DAF":      {"LF", "XF"},
}

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	return client.Do(req)
}

func createJSON(url string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	resp, err := authorizedPost(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("creation failed with status: %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	id, ok := result["id"].(string)
	if !ok {
		return "", fmt.Errorf("invalid ID in response")
	}
	return id, nil
}

func createDriver(apiURL string) (string, error) {
	payload := map[string]string{
		"name":   driverNames[rand.Intn(len(driverNames))],
		"status": "active",
	}
	return createJSON(apiURL+"/drivers", payload)
}

func createVehicle(apiURL string) (string, error) {
	make := []string{"Mercedes", "Volvo", "Scania", "DAF"}[rand.Intn(4)]
	model := vehicleMakes[make][rand.Intn(len(vehicleMakes[make]))]
	payload := map[string]interface{}{
		"registration": fmt.Sprintf("BX%02d %c%c%c", 10+rand.Intn(60), 'A'+rand.Intn(26), 'A'+rand.Intn(26), 'A'+rand.Intn(26)),
		"make":         make,
		"model":        model,
		"year":         2016 + rand.Intn(9),
		"fuel_type":    "diesel",
		"status":       "active",
	}
	return createJSON(apiURL+"/vehicles", payload)
}

func createCard(apiURL, driverID, vehicleID string) (string, error) {
	limit := 500.0 + float64(rand.Intn(20))*50
	card := Card{
		LastFour:     fmt.Sprintf("%04d", rand.Intn(10000)),
		Provider:     providers[rand.Intn(len(providers))],
		DriverID:     driverID,
		VehicleID:    vehicleID,
		MonthlyLimit: &limit,
		Status:       "active",
	}
	id, err := createJSON(apiURL+"/cards", card)
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{
		"card_id":   id,
		"provider":  card.Provider,
		"last_four": card.LastFour,
	}).Info("Created fuel card")
	return id, nil
}

// buildCSV writes a provider-styled statement: non-canonical headers, UK date
// format, thousands separators, plus a configurable share of duplicates and
// anomalous rows so the reconciliation report has something to find.
func buildCSV(cardIDs []string, days int, rowsPerDay int, duplicateRate, anomalyRate float64) *bytes.Buffer {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	w.Write([]string{"Card Number", "Transaction Date", "Time", "Volume (L)", "Unit Price", "Net Amount", "Site Name", "Odometer"})

	mileage := make(map[string]float64, len(cardIDs))
	for _, id := range cardIDs {
		mileage[id] = 20000 + rand.Float64()*80000
	}

	start := time.Now().UTC().AddDate(0, 0, -days)
	var lastRow []string
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		for i := 0; i < rowsPerDay; i++ {
			cardID := cardIDs[rand.Intn(len(cardIDs))]
			litres := 30 + rand.Float64()*60
			price := 1.40 + rand.Float64()*0.25
			if rand.Float64() < anomalyRate {
				// implausible fill or off-market price
				if rand.Intn(2) == 0 {
					litres *= 3.5
				} else {
					price = 0.15 + rand.Float64()*0.10
				}
			}
			cost := litres * price
			mileage[cardID] += 80 + rand.Float64()*250

			row := []string{
				cardID,
				date.Format("02/01/2006"),
				fmt.Sprintf("%02d:%02d", 5+rand.Intn(16), rand.Intn(60)),
				fmt.Sprintf("%.2f", litres),
				fmt.Sprintf("%.3f", price),
				fmt.Sprintf("%.2f", cost),
				stations[rand.Intn(len(stations))],
				fmt.Sprintf("%.0f", mileage[cardID]),
			}
			w.Write(row)
			if rand.Float64() < duplicateRate && lastRow != nil {
				w.Write(lastRow)
			}
			lastRow = row
		}
	}
	w.Flush()
	return buf
}

func runImport(apiURL string, body *bytes.Buffer, validateOnly bool) error {
	endpoint := apiURL + "/fuel/import"
	if validateOnly {
		endpoint += "/validate"
	}
	resp, err := authorizedPost(endpoint+"?provider=datagen", "text/csv", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("import failed with status: %d", resp.StatusCode)
	}
	var result struct {
		BatchID          string `json:"batch_id"`
		Total            int    `json:"total"`
		Valid            int    `json:"valid"`
		Invalid          int    `json:"invalid"`
		Imported         int    `json:"imported"`
		SkippedDuplicate int    `json:"skipped_duplicate"`
		Failed           int    `json:"failed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	log.WithFields(log.Fields{
		"batch_id":          result.BatchID,
		"total":             result.Total,
		"valid":             result.Valid,
		"invalid":           result.Invalid,
		"imported":          result.Imported,
		"skipped_duplicate": result.SkippedDuplicate,
		"failed":            result.Failed,
		"validate_only":     validateOnly,
	}).Info("Import batch completed")
	return nil
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func main() {
	// JWT for the protected API; register an operator first to get one.
	authToken = os.Getenv("DATAGEN_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	cardCount := envInt("CARD_COUNT", 8)
	days := envInt("DAYS", 30)
	rowsPerDay := envInt("ROWS_PER_DAY", 4)

	log.WithFields(log.Fields{
		"api_url":      apiURL,
		"card_count":   cardCount,
		"days":         days,
		"rows_per_day": rowsPerDay,
	}).Info("Starting fuel data generation")

	cardIDs := make([]string, 0, cardCount)
	for i := 0; i < cardCount; i++ {
		driverID, err := createDriver(apiURL)
		if err != nil {
			log.WithError(err).Error("Failed to create driver")
			continue
		}
		vehicleID, err := createVehicle(apiURL)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		cardID, err := createCard(apiURL, driverID, vehicleID)
		if err != nil {
			log.WithError(err).Error("Failed to create card")
			continue
		}
		cardIDs = append(cardIDs, cardID)
	}

	log.WithField("created_cards", len(cardIDs)).Info("Card creation completed")
	if len(cardIDs) == 0 {
		log.Error("No cards created. Ensure DATAGEN_AUTH_TOKEN is valid and API is reachable. Exiting.")
		os.Exit(1)
	}

	statement := buildCSV(cardIDs, days, rowsPerDay, 0.05, 0.03)

	// dry run first, then the real import
	if err := runImport(apiURL, bytes.NewBuffer(statement.Bytes()), true); err != nil {
		log.WithError(err).Fatal("Validation run failed")
	}
	if err := runImport(apiURL, statement, false); err != nil {
		log.WithError(err).Fatal("Import run failed")
	}

	log.Info("Fuel data generation completed")
}
