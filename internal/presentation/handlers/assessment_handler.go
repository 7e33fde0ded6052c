package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/application/services"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

const maxRequestBytes = 1 << 20

// AssessmentHandler handles HTTP requests for token assessments
type AssessmentHandler struct {
	service *services.AssessmentService
	timeout time.Duration
	logger  *zap.Logger
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(service *services.AssessmentService, timeout time.Duration, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		timeout: timeout,
		logger:  logger,
	}
}

// AssessmentResponse is the API response for a single report
type AssessmentResponse struct {
	Data *entities.AssessmentReport `json:"data"`
}

// AssessmentListResponse is the API response for a list of reports
type AssessmentListResponse struct {
	Data []entities.AssessmentReport `json:"data"`
}

// RegisterRoutes registers the assessment routes
func (h *AssessmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/assessments", h.Assess)
	r.Get("/assessments", h.ListRecent)
	r.Get("/tokens/{address}/assessment", h.GetLatest)
}

// Assess handles POST /api/v1/assessments
func (h *AssessmentHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req entities.AssessmentRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !isValidAddress(req.TokenAddress) {
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
		return
	}
	if req.Chain == 0 {
		req.Chain = entities.ChainEthereum
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.service.Assess(ctx, req)
	if err != nil {
		h.handleServiceError(w, err, req.TokenAddress, "Failed to assess token")
		return
	}

	// Signals cut off by the deadline are undetermined, not failed
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		h.logger.Warn("Assessment timed out",
			zap.String("address", req.TokenAddress),
			zap.Duration("timeout", h.timeout),
			zap.Int("signal_errors", len(report.SignalErrors)),
		)
		h.respondError(w, http.StatusGatewayTimeout, "Assessment timed out")
		return
	}

	h.respondJSON(w, http.StatusOK, AssessmentResponse{Data: report})
}

// GetLatest handles GET /api/v1/tokens/{address}/assessment
func (h *AssessmentHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	if !isValidAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
		return
	}

	chain := entities.ChainEthereum
	if v := r.URL.Query().Get("chain_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid chain_id")
			return
		}
		chain = entities.Chain(id)
	}

	report, err := h.service.GetLatest(r.Context(), chain, strings.ToLower(address))
	if err != nil {
		h.handleServiceError(w, err, address, "Failed to get assessment")
		return
	}

	if report == nil {
		h.respondError(w, http.StatusNotFound, "assessment not found")
		return
	}

	h.respondJSON(w, http.StatusOK, AssessmentResponse{Data: report})
}

// ListRecent handles GET /api/v1/assessments
func (h *AssessmentHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	// Parse limit parameter (default 20, max 100)
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if l > 100 {
			l = 100
		}
		limit = l
	}

	reports, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, err, "", "Failed to list assessments")
		return
	}

	h.respondJSON(w, http.StatusOK, AssessmentListResponse{Data: reports})
}

func (h *AssessmentHandler) handleServiceError(w http.ResponseWriter, err error, address, message string) {
	switch {
	case errors.Is(err, entities.ErrUnsupportedChain):
		h.respondError(w, http.StatusBadRequest, "Unsupported chain")
	case errors.Is(err, services.ErrInvalidAddress):
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
	default:
		h.logger.Error(message, zap.Error(err), zap.String("address", address))
		h.respondError(w, http.StatusInternalServerError, message)
	}
}

func (h *AssessmentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *AssessmentHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// isValidAddress checks for a 0x-prefixed 20-byte hex address
func isValidAddress(addr string) bool {
	if len(addr) != 42 {
		return false
	}
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return false
	}
	for _, c := range addr[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
