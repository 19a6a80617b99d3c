package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"classicist-scraper/extractor"
	"classicist-scraper/internal/types"
)

// APIRequest represents the request body for the API
type APIRequest struct {
	URL        string                `json:"url,omitempty"`
	Summaries  []types.SummaryRecord `json:"summaries,omitempty"`
	StartIndex int                   `json:"start_index,omitempty"`
	Limit      int                   `json:"limit,omitempty"`
	DelayMs    int                   `json:"delay_ms,omitempty"`
}

// APIResponse represents the response from the API
type APIResponse struct {
	Success bool             `json:"success"`
	Data    *types.ScrapeRun `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Server holds the API server configuration
type Server struct {
	logger *logrus.Logger
	config *types.Config
}

// NewServer creates a new API server
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	// Setup logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Server{
		logger: logger,
		config: types.DefaultConfig(),
	}
}

// handleScrape runs a full directory traversal and returns the records
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	writeCommonHeaders(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req APIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	config := *s.config
	if req.URL != "" {
		config.TargetURL = req.URL
	}

	s.logger.Infof("API scrape request for %s", config.TargetURL)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	dir := extractor.NewDirectoryExtractor(&config, s.logger)
	defer dir.Close()

	run, err := dir.ExtractAll(ctx)
	if err != nil && len(run.Records) == 0 {
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.sendRun(w, run)
}

// handleDetails runs a detail batch over the summaries in the request body
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	writeCommonHeaders(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req APIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Summaries) == 0 {
		s.sendError(w, "No summaries provided", http.StatusBadRequest)
		return
	}

	delay := s.config.RequestDelay
	if req.DelayMs > 0 {
		delay = time.Duration(req.DelayMs) * time.Millisecond
	}

	s.logger.Infof("API detail request for %d summaries", len(req.Summaries))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	det := extractor.NewDetailExtractor(s.config, s.logger)
	defer det.Close()

	run := det.Run(ctx, req.Summaries, req.StartIndex, req.Limit, delay)
	s.sendRun(w, run)
}

func writeCommonHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) sendRun(w http.ResponseWriter, run *types.ScrapeRun) {
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: true, Data: run}); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message}); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Start starts the API server
func (s *Server) Start(port string) error {
	http.HandleFunc("/scrape", s.handleScrape)
	http.HandleFunc("/details", s.handleDetails)
	http.HandleFunc("/health", s.handleHealth)

	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /scrape  - Traverse the membership directory listing")
	s.logger.Info("  POST /details - Scrape detail pages for submitted summaries")
	s.logger.Info("  GET  /health  - Health check")

	return http.ListenAndServe(":"+port, nil)
}

func main() {
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
		fmt.Printf("Using port from environment variable API_PORT: %s\n", serverPort)
	} else {
		fmt.Printf("No API_PORT environment variable found, using default: %s\n", serverPort)
	}

	server := NewServer()
	log.Fatal(server.Start(serverPort))
}
