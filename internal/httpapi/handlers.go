package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/api"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// Handler serves the payment network operations over HTTP.
type Handler struct {
	network api.Network
	logger  *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(network api.Network, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{network: network, logger: logger}
}

// AuthorizePurchase handles POST /v1/authorizations.
func (h *Handler) AuthorizePurchase(w http.ResponseWriter, r *http.Request) {
	var req api.AuthorizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.network.AuthorizePurchase(r.Context(), domainReq)
	if err != nil && result == nil {
		h.writeError(w, err)
		return
	}
	if err != nil {
		h.logger.Error("authorization failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, api.NewAuthorizeResponse(result))
}

// SettlePurchase handles POST /v1/settlements.
func (h *Handler) SettlePurchase(w http.ResponseWriter, r *http.Request) {
	var req api.SettleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.network.SettlePurchase(r.Context(), req.ToDomain())
	if err != nil && result == nil {
		h.writeError(w, err)
		return
	}
	if err != nil {
		h.logger.Error("settlement failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, api.NewSettleResponse(result))
}

// ProcessNetworkTransaction handles POST /v1/network-transactions.
// Declines are business outcomes and are returned with 200.
func (h *Handler) ProcessNetworkTransaction(w http.ResponseWriter, r *http.Request) {
	var req api.PurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.network.ProcessNetworkTransaction(r.Context(), domainReq)
	if err != nil && result == nil {
		h.writeError(w, err)
		return
	}
	if err != nil {
		h.logger.Error("network transaction incomplete", zap.String("payment_id", req.PaymentID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, api.NewPurchaseResponse(result))
}

// GetNetworkTransaction handles GET /v1/network-transactions/{paymentId}.
func (h *Handler) GetNetworkTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.network.GetNetworkTransaction(r.Context(), chi.URLParam(r, "paymentId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewNetworkTransaction(txn))
}

// ReverseSettlement handles POST /v1/settlements/{settlementId}/reversal.
func (h *Handler) ReverseSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.network.ReverseSettlement(r.Context(), chi.URLParam(r, "settlementId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewSettlement(settlement))
}

// ListAccountLedger handles GET /v1/accounts/{accountId}/ledger.
func (h *Handler) ListAccountLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountId"))
	if err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid account id")
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	entries, err := h.network.AccountHistory(r.Context(), accountID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewLedgerResponse(accountID.String(), entries))
}

// writeError converts domain errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case api.IsClientError(err):
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case api.IsNotFound(err):
		sendErrorResponse(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrSettlementReversed):
		sendErrorResponse(w, http.StatusConflict, "FAILED_PRECONDITION", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		sendErrorResponse(w, http.StatusGatewayTimeout, "DEADLINE_EXCEEDED", "request timed out")
	default:
		h.logger.Error("request failed", zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body: "+err.Error())
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter. Absent means zero.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, api.ErrorResponse{
		ID:      uuid.NewString(),
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
