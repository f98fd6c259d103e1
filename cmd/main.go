package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/transitkit/fuelcard-backoffice/internal/analytics"
	"github.com/transitkit/fuelcard-backoffice/internal/auth"
	"github.com/transitkit/fuelcard-backoffice/internal/budget"
	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/handlers"
	"github.com/transitkit/fuelcard-backoffice/internal/importer"
	"github.com/transitkit/fuelcard-backoffice/internal/middleware"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
	"github.com/transitkit/fuelcard-backoffice/internal/reconcile"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	client, err := db.ConnectMongo()
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	database := client.Database(db.DatabaseName())
	logrus.WithField("database", database.Name()).Info("Connected to MongoDB")

	users := &db.MongoUserCollection{Collection: database.Collection("users")}
	cards := &db.MongoCardCollection{Collection: database.Collection("fuel_cards")}
	txs := &db.MongoTransactionCollection{Collection: database.Collection("fuel_transactions")}
	drivers := &db.MongoDriverCollection{Collection: database.Collection("drivers")}
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}

	authService, err := auth.NewService()
	if err != nil {
		logrus.Fatalf("Failed to initialize auth service: %v", err)
	}

	validator := importer.NewValidator(cards, drivers, vehicles)
	coordinator := importer.NewCoordinator(validator, txs)
	classifier := reconcile.NewClassifier(cards, txs, models.DefaultReconcileConfig())
	projector := budget.NewProjector(cards, txs, models.DefaultBudgetConfig())
	aggregator := analytics.NewAggregator(txs)

	authHandler := handlers.NewAuthHandler(authService, users)
	cardHandler := handlers.NewCardHandler(cards)
	txHandler := handlers.NewTransactionHandler(coordinator, txs)
	importHandler := handlers.NewImportHandler(coordinator)
	reportsHandler := handlers.NewReportsHandler(classifier, projector, aggregator)
	directoryHandler := handlers.NewDirectoryHandler(drivers, vehicles)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authHandler.GetProfile(w, r)
		case http.MethodPut:
			authHandler.UpdateProfile(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/auth/password", authHandler.ChangePassword)

	mux.HandleFunc("/api/cards", cardHandler.HandleCards)
	mux.HandleFunc("/api/cards/", cardHandler.HandleCardByID)
	mux.HandleFunc("/api/drivers", directoryHandler.HandleDrivers)
	mux.HandleFunc("/api/vehicles", directoryHandler.HandleVehicles)

	mux.HandleFunc("/api/fuel/transactions", txHandler.HandleTransactions)
	mux.HandleFunc("/api/fuel/import/validate", importHandler.Validate)
	mux.HandleFunc("/api/fuel/import", importHandler.Import)

	mux.HandleFunc("/api/fuel/reconciliation", reportsHandler.Reconciliation)
	mux.HandleFunc("/api/fuel/budget", reportsHandler.Budget)
	mux.HandleFunc("/api/fuel/analytics", reportsHandler.Analytics)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := rateLimiter.RateLimit(300, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logrus.WithField("port", port).Info("HTTP server listening")
	logrus.Fatal(http.ListenAndServe(":"+port, handler))
}
