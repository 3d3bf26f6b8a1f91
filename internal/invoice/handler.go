package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zheli/invoice-bun/internal/auth"
	"github.com/zheli/invoice-bun/internal/httputil"
	"github.com/zheli/invoice-bun/internal/logging"
	"github.com/zheli/invoice-bun/internal/user"
)

const (
	defaultSkip  = 0
	defaultLimit = 100
)

// PDFRenderer renders an invoice with its owner's letterhead into PDF bytes
type PDFRenderer interface {
	Render(inv *Invoice, owner *user.User) ([]byte, error)
}

// Handler contains HTTP handlers for invoice endpoints. All routes require an
// authenticated user and operate only on that user's invoices.
type Handler struct {
	repo     *Repository
	renderer PDFRenderer
	logger   *logging.Logger
}

func NewHandler(repo *Repository, renderer PDFRenderer, logger *logging.Logger) *Handler {
	return &Handler{
		repo:     repo,
		renderer: renderer,
		logger:   logger,
	}
}

// List returns a page of the caller's invoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        skip  query int false "Offset" default(0)
// @Param        limit query int false "Page size" default(100)
// @Success      200 {array} Invoice
// @Router       /invoices/ [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusForbidden)
		return
	}

	skip := queryInt(r, "skip", defaultSkip)
	limit := queryInt(r, "limit", defaultLimit)

	invoices, err := h.repo.List(r.Context(), currentUser.ID, skip, limit)
	if err != nil {
		logger.Error("failed to list invoices", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list invoices", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, invoices, http.StatusOK)
}

// Create stores a new invoice owned by the caller
// @Summary      Create an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateParams true "Invoice fields"
// @Success      201 {object} Invoice
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Router       /invoices/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusForbidden)
		return
	}

	var params CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		logger.Warn("invalid invoice request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.repo.Create(r.Context(), currentUser.ID, params)
	if err != nil {
		logger.Error("failed to create invoice", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create invoice", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("invoice created", "invoice_id", created.ID, "invoice_number", created.InvoiceNumber)

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// Get returns one owned invoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        invoiceID path string true "Invoice ID"
// @Success      200 {object} Invoice
// @Failure      404 {object} httputil.ErrorResponse "Invoice not found"
// @Router       /invoices/{invoiceID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, invoiceID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	inv, err := h.repo.GetByID(r.Context(), currentUser.ID, invoiceID)
	if err != nil {
		h.respondLookupError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, inv, http.StatusOK)
}

// Update applies a partial update to one owned invoice
// @Summary      Update an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        invoiceID path string true "Invoice ID"
// @Param        request body UpdateParams true "Fields to change"
// @Success      200 {object} Invoice
// @Failure      404 {object} httputil.ErrorResponse "Invoice not found"
// @Router       /invoices/{invoiceID} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, invoiceID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		logger.Warn("invalid invoice request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.repo.Update(r.Context(), currentUser.ID, invoiceID, params)
	if err != nil {
		h.respondLookupError(w, logger, err)
		return
	}

	logger.Info("invoice updated", "invoice_id", updated.ID)

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete removes one owned invoice and returns its data as confirmation
// @Summary      Delete an invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        invoiceID path string true "Invoice ID"
// @Success      200 {object} Invoice
// @Failure      404 {object} httputil.ErrorResponse "Invoice not found"
// @Router       /invoices/{invoiceID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, invoiceID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(r.Context(), currentUser.ID, invoiceID)
	if err != nil {
		h.respondLookupError(w, logger, err)
		return
	}

	logger.Info("invoice deleted", "invoice_id", deleted.ID)

	httputil.RespondJSON(w, deleted, http.StatusOK)
}

// RenderPDF renders one owned invoice as a PDF document
// @Summary      Download an invoice as PDF
// @Tags         invoices
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        invoiceID path string true "Invoice ID"
// @Success      200 {file} binary
// @Failure      404 {object} httputil.ErrorResponse "Invoice not found"
// @Router       /invoices/{invoiceID}/pdf [get]
func (h *Handler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, invoiceID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	inv, err := h.repo.GetByID(r.Context(), currentUser.ID, invoiceID)
	if err != nil {
		h.respondLookupError(w, logger, err)
		return
	}

	pdfBytes, err := h.renderer.Render(inv, currentUser)
	if err != nil {
		logger.Error("failed to render invoice pdf", "invoice_id", inv.ID, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to render pdf", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfBytes); err != nil {
		logger.Error("failed to write pdf response", "error", err.Error())
	}
}

// requestScope pulls the authenticated user and the invoice id path parameter,
// writing the error response itself when either is missing
func (h *Handler) requestScope(w http.ResponseWriter, r *http.Request) (*user.User, uuid.UUID, bool) {
	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusForbidden)
		return nil, uuid.Nil, false
	}

	invoiceID, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid invoice id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return nil, uuid.Nil, false
	}

	return currentUser, invoiceID, true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, logger *logging.Logger, err error) {
	if errors.Is(err, ErrNotFound) {
		httputil.RespondErrorWithCode(w, "invoice not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}
	logger.Error("invoice lookup failed", "error", err.Error())
	httputil.RespondErrorWithCode(w, "failed to load invoice", httputil.CodeInternalError, http.StatusInternalServerError)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return defaultValue
	}

	return parsed
}
