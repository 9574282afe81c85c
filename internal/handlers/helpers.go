package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskmarket/backend/internal/billing"
	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/lifecycle"
	"github.com/taskmarket/backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core error kinds to HTTP statuses. Anything unrecognized is
// logged and reported as a generic 500 — internals never reach the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, billing.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, billing.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientBalance):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "insufficient balance"})
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, services.ErrPayoutPrecondition),
		errors.Is(err, services.ErrAlreadyPaidOut),
		errors.Is(err, services.ErrEvaluationDecided),
		errors.Is(err, billing.ErrAlreadyPaid):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	return id, err == nil
}
