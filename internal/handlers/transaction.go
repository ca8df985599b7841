package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pennywise-app/apiserver/internal/services"
	"github.com/pennywise-app/apiserver/internal/store"
)

// TransactionHandler provides HTTP handlers for the caller's transactions.
type TransactionHandler struct {
	transactionService *services.TransactionService
	exportService      *services.ExportService
	opts               Options
}

// NewTransactionHandler constructs a handler with the provided services.
func NewTransactionHandler(transactionService *services.TransactionService, exportService *services.ExportService, opts Options) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		exportService:      exportService,
		opts:               opts,
	}
}

// TransactionRouter registers transaction routes on the given router. Every
// route requires authMiddleware.
func TransactionRouter(
	r chi.Router,
	transactionService *services.TransactionService,
	exportService *services.ExportService,
	authMiddleware func(http.Handler) http.Handler,
	opts Options,
) {
	handler := NewTransactionHandler(transactionService, exportService, opts)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.ListTransactions)
		r.Post("/", handler.CreateTransaction)
		r.Post("/export", handler.ExportStatement)
		r.Put("/{transactionID:[0-9]+}", handler.UpdateTransaction)
		r.Delete("/{transactionID:[0-9]+}", handler.DeleteTransaction)
	})
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.transactionService.List(r.Context(), userID)
	if err != nil {
		h.opts.writeInternalError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	created, err := h.transactionService.Create(r.Context(), userID, fields)
	if err != nil {
		if errors.Is(err, services.ErrMissingField) || errors.Is(err, services.ErrInvalidFormat) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.opts.writeInternalError(w, r, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Transaction added", ID: created.ID})
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := parseTransactionID(w, r)
	if !ok {
		return
	}

	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	if _, err := h.transactionService.Update(r.Context(), userID, id, fields); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidFormat):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "transaction not found")
		default:
			h.opts.writeInternalError(w, r, "failed to update transaction", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Transaction updated"})
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := parseTransactionID(w, r)
	if !ok {
		return
	}

	if err := h.transactionService.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.opts.writeInternalError(w, r, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Transaction deleted"})
}

// ExportStatement uploads a CSV statement of the caller's transactions.
func (h *TransactionHandler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	export, err := h.exportService.Export(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrExportDisabled) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.opts.writeInternalError(w, r, "failed to export statement", err)
		return
	}

	writeJSON(w, http.StatusCreated, export)
}

// decodeFields reads a JSON object body. Anything else is a 400.
func decodeFields(w http.ResponseWriter, r *http.Request) (services.TransactionFields, bool) {
	var fields services.TransactionFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return nil, false
	}
	return fields, true
}

// parseTransactionID answers 404 for ids outside the int range; the route
// pattern already rejects non-digits.
func parseTransactionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "transactionID"))
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, "transaction not found")
		return 0, false
	}
	return id, true
}
