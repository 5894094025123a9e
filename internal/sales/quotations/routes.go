package quotations

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.list)
	r.Post("/quotations", h.create)
	r.Get("/quotations/{id}", h.show)
	r.Put("/quotations/{id}", h.update)
	r.Post("/quotations/{id}/discount", h.applyDiscount)
	r.Post("/quotations/{id}/convert", h.convert)
	r.Post("/quotations/{id}/cancel", h.cancel)
	r.Post("/quotations/{id}/print", h.print)
}
