package banquethttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/banquet-desk/internal/platform/httpx"
)

const submitLimit = 30
const submitWindow = time.Minute

// MountRoutes registers the desk endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(submitLimit, submitWindow,
		httprate.WithKeyFuncs(h.rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "slow down before submitting again")
		}),
	)
	r.Route("/desk", func(r chi.Router) {
		r.Use(h.deskContext)
		r.Get("/", h.handleShow)
		r.Patch("/header", h.handleHeader)
		r.Put("/dates/{which}", h.handleDates)
		r.Put("/item", h.handleItem)
		r.Post("/item/begin", h.handleBeginItem)
		r.Post("/items", h.handleCommitItem)
		r.Delete("/items/{index}", h.handleRemoveItem)
		r.Post("/reset", h.handleReset)
		r.Post("/suspend", h.handleSuspend)
		r.Get("/validate", h.handleValidate)
		r.Get("/search/{kind}", h.handleSearch)
		r.Get("/receipts/{voucherID}/print", h.handleReceiptPrint)

		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/save", h.handleSave)
			gr.Post("/invoice", h.handleInvoice)
			gr.Post("/receipts", h.handleCreateReceipt)
			gr.Delete("/receipts/{voucherID}", h.handleDeleteReceipt)
			gr.Post("/quotations/{id}/load", h.handleLoad)
		})
	})
}

func (h *Handler) deskContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := h.desks.resolve(w, r)
		if err != nil {
			h.logger.Error("resolve desk", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(withDesk(r.Context(), d)))
	})
}

func (h *Handler) rateLimitKey(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(DeskCookie); err == nil && cookie.Value != "" {
		return "desk:" + cookie.Value, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
