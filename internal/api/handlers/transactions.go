package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/request"
	"github.com/bolsamaster/bolsamaster-backend/internal/api/response"
	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/importer"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/service"
	"github.com/bolsamaster/bolsamaster-backend/internal/validation"
)

// maxUploadBytes bounds the size of an imported file.
const maxUploadBytes = 10 << 20

// TransactionHandler handles HTTP requests for ledger endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// AllTransactions handles GET requests to retrieve the whole ledger in ledger order.
//
// Endpoint: GET /api/transaction
// Response: 200 OK with array of TransactionResponse
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactionService.ListTransactions(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, toTransactionResponses(transactions))
}

// GetTransaction handles GET requests to retrieve a single ledger entry by ID.
//
// Endpoint: GET /api/transaction/{uuid}
// Response: 200 OK with TransactionResponse
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	transaction, err := h.transactionService.GetTransaction(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransaction.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction.ToResponse())
}

// CreateTransaction handles POST requests to append an entry to the ledger.
// Validates the request body before anything is stored.
//
// Endpoint: POST /api/transaction
// Request Body: CreateTransactionRequest (date, ticker, type, quantity, price, costs)
// Response: 201 Created with TransactionResponse
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		response.RespondValidationError(w, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction.ToResponse())
}

// DeleteTransaction handles DELETE requests to remove a ledger entry.
//
// Endpoint: DELETE /api/transaction/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if deletion fails
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	if err := h.transactionService.DeleteTransaction(r.Context(), transactionID); err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete transaction", err.Error())
		return
	}

	response.RespondNoContent(w)
}

// ImportTransactions handles multipart uploads of broker exports.
// Every valid row becomes a BUY entry dated today; rejected rows are listed
// in the response.
//
// Endpoint: POST /api/transaction/import
// Request Body: multipart/form-data with a "file" part (.csv, .txt, .xlsx)
// Response: 201 Created with ImportResponse
// Error: 400 Bad Request if the upload is missing or too large
// Error: 415 Unsupported Media Type if the file extension is not supported
// Error: 422 Unprocessable Entity if no row could be imported
// Error: 500 Internal Server Error if the import fails
func (h *TransactionHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid upload", "missing file part")
		return
	}
	defer file.Close()

	result, err := h.transactionService.ImportTransactions(r.Context(), header.Filename, file, time.Now())
	switch {
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		response.RespondError(w, http.StatusUnsupportedMediaType, apperrors.ErrUnsupportedFormat.Error(), header.Filename)
		return
	case errors.Is(err, apperrors.ErrNoCandidates):
		response.RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrNoCandidates.Error(), toRejectedCandidates(result.Rejected))
		return
	case err != nil:
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToImportTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, model.ImportResponse{
		Imported:     len(result.Imported),
		Transactions: toTransactionResponses(result.Imported),
		Rejected:     toRejectedCandidates(result.Rejected),
	})
}

// Tickers handles GET requests for ticker suggestions.
//
// Endpoint: GET /api/transaction/tickers?prefix=PE
// Response: 200 OK with array of at most six tickers
// Error: 500 Internal Server Error if the ledger cannot be read
func (h *TransactionHandler) Tickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.transactionService.Tickers(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, tickers)
}

func toTransactionResponses(ts []model.Transaction) []model.TransactionResponse {
	out := make([]model.TransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ToResponse())
	}
	return out
}

func toRejectedCandidates(rejected []importer.Rejection) []model.RejectedCandidate {
	out := make([]model.RejectedCandidate, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, model.RejectedCandidate{
			Line:   r.Candidate.Line,
			Ticker: r.Candidate.Ticker,
			Reason: r.Reason,
		})
	}
	return out
}
