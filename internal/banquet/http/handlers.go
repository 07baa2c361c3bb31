// Package banquethttp exposes the banquet booking desk over JSON.
package banquethttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/lifecycle"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
	"github.com/odyssey-erp/banquet-desk/internal/platform/httpx"
)

// Handler serves the desk endpoints.
type Handler struct {
	logger   *slog.Logger
	desks    *Registry
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, desks *Registry) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, desks: desks, validate: newValidator()}
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, viewOf(deskFrom(r.Context()), true))
}

func (h *Handler) handleHeader(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	var patch headerPatch
	if err := h.decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	changed := d.ctrl.Update(patch.apply)
	httpx.JSON(w, http.StatusOK, changeResponse{Changed: changed, Desk: viewOf(d, false)})
}

// handleDates accepts the entry, from and to moments. Start edits are
// coalesced per frame, so they are acknowledged before they are applied.
func (h *Handler) handleDates(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	var patch momentPatch
	if err := h.decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	var changed bool
	switch chi.URLParam(r, "which") {
	case "entry":
		changed = d.ctrl.SetEntry(patch.apply(d.ctrl.Draft().Entry))
	case "to":
		changed = d.ctrl.SetTo(patch.apply(d.ctrl.Draft().To))
	case "from":
		if patch.Date != nil {
			d.ctrl.SetFromDate(*patch.Date)
		}
		if patch.Time != nil {
			d.ctrl.SetFromTime(*patch.Time)
		}
		httpx.JSON(w, http.StatusAccepted, map[string]bool{"queued": true})
		return
	default:
		h.fail(w, r, fmt.Errorf("%w: unknown moment %q", httpx.ErrNotFound, chi.URLParam(r, "which")))
		return
	}
	httpx.JSON(w, http.StatusOK, changeResponse{Changed: changed, Desk: viewOf(d, false)})
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	var item draft.Item
	if err := h.decode(r, &item); err != nil {
		h.fail(w, r, err)
		return
	}
	changed := d.ctrl.UpdateCurrentItem(func(it *draft.Item) { *it = item })
	httpx.JSON(w, http.StatusOK, changeResponse{Changed: changed, Desk: viewOf(d, false)})
}

func (h *Handler) handleBeginItem(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	req := beginItemRequest{Index: draft.NewItemIndex}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := d.ctrl.BeginItem(req.Index); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(d, false))
}

func (h *Handler) handleCommitItem(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	index, err := d.ctrl.CommitItem()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, commitResponse{Index: index, Desk: viewOf(d, false)})
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: item index must be a number", httpx.ErrBadRequest))
		return
	}
	if err := d.ctrl.RemoveItem(index); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(d, false))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	d.ctrl.Reset(r.Context())
	httpx.JSON(w, http.StatusOK, viewOf(d, false))
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	deskFrom(r.Context()).ctrl.Suspend()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	res := deskFrom(r.Context()).ctrl.Validate()
	out := validateResponse{OK: res.OK(), Violations: res.Violations}
	if out.Violations == nil {
		out.Violations = []validation.Violation{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	var req saveRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := d.ctrl.Save(r.Context(), lifecycle.SaveOptions{KeepEditing: req.KeepEditing})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, submitResponse{QuotationID: res.QuotationID, BillID: res.BillID, Desk: viewOf(d, false)})
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	res, err := d.ctrl.Invoice(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, submitResponse{QuotationID: res.QuotationID, BillID: res.BillID, Desk: viewOf(d, false)})
}

func (h *Handler) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	var in lifecycle.ReceiptInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := d.ctrl.CreateReceipt(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(d, false))
}

func (h *Handler) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	if err := d.ctrl.DeleteReceipt(r.Context(), chi.URLParam(r, "voucherID")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(d, false))
}

func (h *Handler) handleReceiptPrint(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	doc, err := d.ctrl.ReceiptPrint(r.Context(), chi.URLParam(r, "voucherID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || id == "0" {
		h.fail(w, r, fmt.Errorf("%w: quotation id required", httpx.ErrBadRequest))
		return
	}
	if err := d.ctrl.Load(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(d, false))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	d := deskFrom(r.Context())
	kind, ok := remote.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		h.fail(w, r, fmt.Errorf("%w: unknown catalog %q", httpx.ErrNotFound, chi.URLParam(r, "kind")))
		return
	}
	refs, err := d.ctrl.Search(r.Context(), kind, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if refs == nil {
		refs = []draft.Ref{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": refs})
}
