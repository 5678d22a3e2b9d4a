package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/diewo77/fakti/i18n"
	"github.com/diewo77/fakti/internal/billing"
	"github.com/diewo77/fakti/internal/pdf"
	"github.com/diewo77/fakti/internal/services"
	"github.com/diewo77/fakti/validation"
	"github.com/shopspring/decimal"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
	users    *services.UserService
	renderer pdf.Renderer
}

func NewInvoiceHandler(invoices *services.InvoiceService, users *services.UserService, renderer pdf.Renderer) *InvoiceHandler {
	if renderer == nil {
		renderer = pdf.Disabled{}
	}
	return &InvoiceHandler{invoices: invoices, users: users, renderer: renderer}
}

// invoiceRequest is the JSON body of create and update.
type invoiceRequest struct {
	ClientID        uint             `json:"client_id"`
	InvoiceNumber   string           `json:"invoice_number"`
	IssueDate       string           `json:"issue_date"`
	DueDate         string           `json:"due_date"`
	Status          billing.Status   `json:"status"`
	Currency        billing.Currency `json:"currency"`
	Notes           string           `json:"notes"`
	TaxPercent      decimal.Decimal  `json:"tax_percent"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

func (req invoiceRequest) input(v validation.Violations) services.InvoiceInput {
	return services.InvoiceInput{
		ClientID:        req.ClientID,
		InvoiceNumber:   req.InvoiceNumber,
		IssueDate:       parseDate("issue_date", req.IssueDate, v),
		DueDate:         parseDate("due_date", req.DueDate, v),
		Status:          req.Status,
		Currency:        req.Currency,
		Notes:           req.Notes,
		TaxPercent:      req.TaxPercent,
		DiscountPercent: req.DiscountPercent,
	}
}

type createInvoiceRequest struct {
	invoiceRequest
	Items []services.ItemInput `json:"items"`
}

type updateInvoiceRequest struct {
	invoiceRequest
	Items services.ItemChanges `json:"items"`
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := services.InvoiceFilter{
		Status:   billing.Status(r.URL.Query().Get("status")),
		ClientID: queryID(r, "client"),
	}
	invoices, err := h.invoices.List(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// New returns the pre-filled values of a new invoice, including the
// suggested number.
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	d, err := h.invoices.Defaults(r.Context(), userID(r), queryID(r, "client"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client_id":      d.ClientID,
		"invoice_number": d.InvoiceNumber,
		"issue_date":     d.IssueDate.Format(DateLayout),
		"due_date":       d.DueDate.Format(DateLayout),
		"status":         d.Status,
		"currency":       d.Currency,
	})
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	v := make(validation.Violations)
	in := req.input(v)
	if !v.Empty() {
		writeViolations(w, r, v)
		return
	}
	inv, err := h.invoices.Create(r.Context(), userID(r), in, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	v := make(validation.Violations)
	in := req.input(v)
	if !v.Empty() {
		writeViolations(w, r, v)
		return
	}
	inv, err := h.invoices.Update(r.Context(), userID(r), id, in, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.invoices.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.ChangeStatus(r.Context(), userID(r), id, billing.Status(r.PathValue("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// SaveItems applies a whole item group with one recalculation.
func (h *InvoiceHandler) SaveItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var changes services.ItemChanges
	if !decode(w, r, &changes) {
		return
	}
	inv, err := h.invoices.SaveItems(r.Context(), userID(r), id, changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.ItemInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.invoices.AddItem(r.Context(), userID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	var in services.ItemInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.invoices.UpdateItem(r.Context(), userID(r), id, itemID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	inv, err := h.invoices.RemoveItem(r.Context(), userID(r), id, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// PDF renders the invoice as an attachment. When rendering is disabled the
// response is 503 pdf_unavailable.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	if !h.renderer.Available() {
		writeError(w, r, pdf.ErrUnavailable)
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	uid := userID(r)
	inv, err := h.invoices.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	issuer, err := h.users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	doc := pdf.Document{Invoice: inv, Issuer: issuer, Lang: i18n.LangFromContext(r.Context())}
	if err := h.renderer.Render(&buf, doc); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdf.Filename(inv)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
