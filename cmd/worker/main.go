package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lova-clover/DevHistory/internal/archive"
	"github.com/Lova-clover/DevHistory/internal/config"
	"github.com/Lova-clover/DevHistory/internal/forge"
	"github.com/Lova-clover/DevHistory/internal/jobs"
	"github.com/Lova-clover/DevHistory/internal/llm"
	"github.com/Lova-clover/DevHistory/internal/notifications"
	"github.com/Lova-clover/DevHistory/internal/scheduler"
	"github.com/Lova-clover/DevHistory/internal/store"
	"github.com/Lova-clover/DevHistory/internal/timeline"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting DevHistory weekly worker")

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	generator, err := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	if err != nil {
		logrus.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// Optional report archive in blob storage
	var reportArchive archive.Archive
	if cfg.StorageAccount != "" {
		reportArchive, err = archive.NewAzureArchive(context.Background(), cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize report archive: %v", err)
		}
	}

	dispatcher := jobs.NewDispatcher(db, timeline.NewBuilder(db), forge.NewGenerator(generator), jobs.Options{
		Notifier:   notifications.NewService(cfg),
		Archive:    reportArchive,
		Workers:    cfg.Workers,
		JobTimeout: cfg.JobTimeout,
	})
	dispatcher.Start()
	defer dispatcher.Stop()

	schedulerService := scheduler.NewService(cfg, dispatcher)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// HTTP surface for health checks, manual triggers and job polling
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/api/weekly/build", buildHandler(dispatcher)).Methods("POST")
	router.HandleFunc("/api/weekly/build-all", buildAllHandler(dispatcher)).Methods("POST")
	router.HandleFunc("/api/weekly/generate", generateHandler(dispatcher)).Methods("POST")
	router.HandleFunc("/api/weekly/{id}/regenerate", regenerateHandler(dispatcher)).Methods("POST")
	router.HandleFunc("/api/jobs/{id}", jobStatusHandler(dispatcher)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type buildRequest struct {
	UserID     string `json:"user_id"`
	WeekStart  string `json:"week_start"`
	WithReport bool   `json:"with_report"`
}

func buildHandler(dispatcher *jobs.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req buildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.WeekStart == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and week_start are required"})
			return
		}

		handle, err := dispatcher.BuildWeekly(req.UserID, req.WeekStart, req.WithReport)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Weekly summary build queued",
			"job_id":  handle.ID(),
			"status":  "processing",
		})
	}
}

func buildAllHandler(dispatcher *jobs.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := dispatcher.BuildAllWeeklySummaries()
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Weekly build fan-out queued",
			"job_id":  handle.ID(),
			"status":  "processing",
		})
	}
}

type generateRequest struct {
	UserID string `json:"user_id"`
}

func generateHandler(dispatcher *jobs.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
			return
		}

		handle := dispatcher.GenerateCurrentWeek(req.UserID)
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Weekly report generation started",
			"job_id":  handle.ID(),
			"status":  "processing",
		})
	}
}

func regenerateHandler(dispatcher *jobs.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
			return
		}

		handle, err := dispatcher.Regenerate(r.Context(), req.UserID, mux.Vars(r)["id"])
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "weekly summary not found"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Weekly report regeneration started",
			"job_id":  handle.ID(),
			"status":  "processing",
		})
	}
}

func jobStatusHandler(dispatcher *jobs.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle, err := dispatcher.Lookup(mux.Vars(r)["id"])
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}

		// Bounded poll: report "processing" instead of blocking the request.
		result, err := handle.Result(0)
		switch {
		case errors.Is(err, jobs.ErrStillProcessing):
			writeJSON(w, http.StatusOK, map[string]any{"job_id": handle.ID(), "status": "processing"})
		case err != nil:
			writeJSON(w, http.StatusOK, map[string]any{"job_id": handle.ID(), "status": "failed", "error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"job_id": handle.ID(), "status": "completed", "result": result})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
