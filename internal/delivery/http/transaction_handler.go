package http

import (
	"context"
	"net/http"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
)

// TransactionService defines the audit trail queries the handler needs.
type TransactionService interface {
	ListByVehicle(ctx context.Context, vehicleReg string, limit, offset int) ([]*domain.Transaction, error)
	ListByToll(ctx context.Context, tollID string, limit, offset int) ([]*domain.Transaction, error)
}

// TransactionHandler handles audit trail endpoints.
type TransactionHandler struct {
	txnService TransactionService
	logger     logger.Logger
}

// NewTransactionHandler creates a transaction handler.
func NewTransactionHandler(txnService TransactionService, logger logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		txnService: txnService,
		logger:     logger,
	}
}

// List returns transactions filtered by vehicle registration or toll ID,
// newest first.
// GET /api/v1/transactions?vehicle_reg=KA01AB1234 or ?toll_id=T1
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicleReg := r.URL.Query().Get("vehicle_reg")
	tollID := r.URL.Query().Get("toll_id")
	limit, offset := paginationParams(r)

	var (
		txns []*domain.Transaction
		err  error
	)
	switch {
	case vehicleReg != "":
		txns, err = h.txnService.ListByVehicle(r.Context(), vehicleReg, limit, offset)
	case tollID != "":
		txns, err = h.txnService.ListByToll(r.Context(), tollID, limit, offset)
	default:
		respondError(w, http.StatusBadRequest, "Either vehicle_reg or toll_id is required")
		return
	}
	if err != nil {
		h.logger.Error("Failed to list transactions", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    txns,
		"pagination": map[string]int{
			"limit":  limit,
			"offset": offset,
		},
	})
}
