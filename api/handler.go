package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/costwatch/receipt-scanner-service/internal/ai"
	"github.com/costwatch/receipt-scanner-service/internal/db"
	"github.com/costwatch/receipt-scanner-service/internal/models"
	"github.com/costwatch/receipt-scanner-service/internal/normalizer"
	"github.com/costwatch/receipt-scanner-service/internal/scraper"
	"github.com/costwatch/receipt-scanner-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.0.0"
)

// Handler handles HTTP requests for receipt processing
type Handler struct {
	config  *models.Config
	scanner *scraper.Scanner
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config) *Handler {
	return &Handler{
		config:  config,
		scanner: scraper.New(config.Scraper),
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Receipts
	router.HandleFunc("/api/upload", h.UploadReceipt).Methods("POST")
	router.HandleFunc("/api/receipts", h.ListReceipts).Methods("GET")
	router.HandleFunc("/api/receipts", h.ClearReceipts).Methods("DELETE")
	router.HandleFunc("/api/receipt/{id}", h.GetReceipt).Methods("GET")
	router.HandleFunc("/api/receipt/{id}", h.DeleteReceipt).Methods("DELETE")
	router.HandleFunc("/api/receipt/{id}/pdf", h.GetReceiptPDF).Methods("GET")
	router.HandleFunc("/api/receipt/{id}/item/{index}", h.UpdateReceiptItem).Methods("PUT")
	router.HandleFunc("/api/reparse/{id}", h.ReparseReceipt).Methods("POST")

	// Price drops
	router.HandleFunc("/api/scan-prices", h.ScanPrices).Methods("POST")
	router.HandleFunc("/api/price-drops", h.ListPriceDrops).Methods("GET")
	router.HandleFunc("/api/price-drops", h.ClearPriceDrops).Methods("DELETE")
	router.HandleFunc("/api/price-drop/{id}", h.DeletePriceDrop).Methods("DELETE")

	// Analysis
	router.HandleFunc("/api/analyze", h.Analyze).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Database: h.checkDatabase(),
		Storage:  h.checkStorage(),
		AI: map[string]string{
			"defaultProvider": h.config.AI.DefaultProvider,
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// parseReceipt runs AI extraction on a PDF and normalizes the result.
func (h *Handler) parseReceipt(ctx context.Context, pdfData []byte, providerName, modelName string) (*models.ParsedReceipt, []models.Item, float64, error) {
	provider, err := h.createProvider(providerName, modelName)
	if err != nil {
		return nil, nil, 0, err
	}

	extractor := ai.NewExtractor(provider)
	parsed, aiDuration, err := extractor.ExtractReceipt(ctx, pdfData)
	if err != nil {
		return nil, nil, aiDuration, fmt.Errorf("AI extraction failed: %w", err)
	}

	items := normalizer.Normalize(parsed.Items)
	return parsed, items, aiDuration, nil
}

// createProvider creates the appropriate AI provider
func (h *Handler) createProvider(providerName, modelName string) (ai.Provider, error) {
	if providerName == "" {
		providerName = h.config.AI.DefaultProvider
	}

	switch providerName {
	case "openai":
		model := modelName
		if model == "" {
			model = h.config.AI.OpenAI.Model
		}
		return ai.NewOpenAIProvider(
			h.config.AI.OpenAI.APIKey,
			h.config.AI.OpenAI.BaseURL,
			model,
		), nil

	case "gemini":
		model := modelName
		if model == "" {
			model = h.config.AI.Gemini.Model
		}
		return ai.NewGeminiProvider(
			h.config.AI.Gemini.APIKey,
			model,
		), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
