package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sand/swift-screening-app/backend/internal/core/ports"
	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/internal/swift"
	"github.com/sand/swift-screening-app/backend/internal/usecases"
)

var (
	_ ports.EnrichmentService = (*usecases.EnrichmentService)(nil)
	_ ports.MessageService    = (*usecases.MessageService)(nil)
)

type HTTPHandler struct {
	logger     *slog.Logger
	enricher   ports.EnrichmentService
	messages   ports.MessageService
	sdnService ports.SDNService
}

func NewHTTPHandler(logger *slog.Logger, enricher ports.EnrichmentService, messages ports.MessageService, sdnService ports.SDNService) *HTTPHandler {
	return &HTTPHandler{
		logger:     logger,
		enricher:   enricher,
		messages:   messages,
		sdnService: sdnService,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	// API endpoints.

	// SWIFT messages
	router.HandleFunc("/api/process-swift", h.ProcessSwift).Methods("POST")
	router.HandleFunc("/api/messages", h.GetMessages).Methods("GET")
	router.HandleFunc("/api/messages/{reference}", h.GetMessage).Methods("GET")

	// OFAC SDN list
	router.HandleFunc("/api/sdn-list", h.GetSDNList).Methods("GET")
	router.HandleFunc("/api/update-sdn-list", h.UpdateSDNList).Methods("POST")

	// Static files - register last to avoid intercepting other routes.
	fs := http.FileServer(http.Dir("./static"))
	router.PathPrefix("/").Handler(http.StripPrefix("/", fs))
}

type processSwiftRequest struct {
	Message string `json:"message"`
}

// ProcessSwift разбирает, обогащает и сохраняет присланное сообщение.
func (h *HTTPHandler) ProcessSwift(w http.ResponseWriter, r *http.Request) {
	var req processSwiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.enricher.Enrich(r.Context(), req.Message)
	if errors.Is(err, swift.ErrEmptyMessage) || errors.Is(err, usecases.ErrMissingReference) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "[Process SWIFT] Enrichment failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err = h.messages.Store(r.Context(), record); err != nil {
		h.logger.ErrorContext(r.Context(), "[Process SWIFT] Failed to store record",
			"reference", *record.Reference, "error", err)
		http.Error(w, "Failed to store message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, record)
}

func (h *HTTPHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	records, err := h.messages.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list messages", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Пустая база отдается как [], а не null.
	if records == nil {
		records = []entities.TransactionRecord{}
	}
	writeJSON(w, records)
}

func (h *HTTPHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]

	record, err := h.messages.Get(r.Context(), reference)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to get message", "reference", reference, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	writeJSON(w, record)
}

func (h *HTTPHandler) GetSDNList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sdnService.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load SDN list", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, entries)
}

func (h *HTTPHandler) UpdateSDNList(w http.ResponseWriter, r *http.Request) {
	count, err := h.sdnService.Update(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to update SDN list", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"status":        "SDN list updated",
		"entries_count": count,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
