package quotations

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quotedesk/quotedesk/internal/discount"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{
		Terminal: r.URL.Query().Get("terminal"),
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		req.Status = &status
	}
	if c := r.URL.Query().Get("customer"); c != "" {
		req.CustomerCode = &c
	}
	if d := r.URL.Query().Get("from"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			req.DateFrom = &t
		}
	}
	if d := r.URL.Query().Get("to"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			req.DateTo = &t
		}
	}

	found, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotations": found, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.Create(r.Context(), req, h.userCode(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	var req ApplyDiscountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	q, err := h.service.ApplyDiscount(r.Context(), id, req, h.userCode(r))
	if err != nil {
		h.respondDiscountError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	var req ConvertRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
			return
		}
	}

	q, err := h.service.Convert(r.Context(), id, req, h.userCode(r))
	if err != nil {
		var credErr *CreditLimitError
		if errors.As(err, &credErr) {
			httpx.JSON(w, http.StatusPaymentRequired, map[string]any{
				"title":         "Credit Limit Exceeded",
				"status":        http.StatusPaymentRequired,
				"detail":        credErr.Error(),
				"customer_code": credErr.CustomerCode,
				"exceeded_by":   credErr.ExceededBy.StringFixed(2),
			})
			return
		}
		h.respondDiscountError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	q, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	if err := h.service.Print(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) userCode(r *http.Request) string {
	return shared.SessionFromContext(r.Context()).User()
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrNotEditable):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrCustomerRequired), errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("quotation request failed", "error", err)
		httpx.RespondError(w, err)
	}
}

// respondDiscountError maps negotiation outcomes. A capped distribution
// answers 422 with the achievable figures so the form can offer the clerk
// the reduced discount.
func (h *Handler) respondDiscountError(w http.ResponseWriter, err error) {
	var limErr *discount.LimitExceededError
	switch {
	case errors.As(err, &limErr):
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"title":              "Discount Limited",
			"status":             http.StatusUnprocessableEntity,
			"detail":             limErr.Error(),
			"achievable_amount":  limErr.AchievableAmount.StringFixed(2),
			"achievable_percent": limErr.AchievablePercent.StringFixed(2),
			"limiting_items":     limErr.LimitingItems,
			"soft":               limErr.Soft,
		})
	case errors.Is(err, discount.ErrAuthorizationDenied):
		httpx.Problem(w, http.StatusForbidden, "Not Authorized", err.Error())
	case errors.Is(err, discount.ErrAuthorizationCancelled):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Authorization Cancelled", err.Error())
	case errors.Is(err, discount.ErrDisabled), errors.Is(err, discount.ErrNoLimitConfigured),
		errors.Is(err, discount.ErrNoLines):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Discount Rejected", err.Error())
	case errors.Is(err, shared.ErrNegotiationOpen):
		httpx.Problem(w, http.StatusConflict, "Negotiation Open", err.Error())
	default:
		h.respondServiceError(w, err)
	}
}
