package payterms

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

type Handler struct {
	logger *slog.Logger
	repo   Repository
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payment-terms", h.list)
	r.Get("/payment-terms/{code}", h.show)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	terms, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list payment terms failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payment_terms": terms})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	term, err := h.repo.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get payment term failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, term)
}
