// Package lifecycle drives a banquet booking from draft to quotation, from
// quotation to invoice, and through the receipts recorded against it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/datetime"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/schedule"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/session"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/totals"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/validation"
)

// Defaults applied when Options leaves a duration zero.
const (
	DefaultSafetyTimeout = 45 * time.Second
	DefaultCooldown      = 750 * time.Millisecond
	DefaultItemTimeout   = 5 * time.Second
)

// Options configures a Controller. A negative Cooldown disables the cooldown.
type Options struct {
	Identity  Identity
	Service   Service
	Backend   session.Backend
	Namespace string
	Logger    *slog.Logger
	Recorder  Recorder
	Notify    func(Notice)
	Clock     schedule.Clock

	Debounce      time.Duration
	Frame         time.Duration
	SafetyTimeout time.Duration
	Cooldown      time.Duration
	ItemTimeout   time.Duration
}

// OpenOptions carries what the screen knows when it opens.
type OpenOptions struct {
	// CalendarDate is a start date picked on the calendar before opening.
	CalendarDate string
}

// SaveOptions tunes a quotation save.
type SaveOptions struct {
	// KeepEditing keeps the draft after a successful save instead of clearing it.
	KeepEditing bool
}

// Controller owns one desk: its draft, its session mirror and its
// submissions to the booking service.
type Controller struct {
	store    *draft.Store
	port     *session.Port
	mirror   *session.Mirror
	svc      Service
	id       Identity
	logger   *slog.Logger
	recorder Recorder
	notify   func(Notice)
	now      schedule.Clock

	gates    map[Action]*schedule.Gate
	itemFlag *schedule.Flag
	from     *schedule.FrameThrottle[datetime.Moment]

	mu          sync.Mutex
	marker      session.EditMarker
	pendingFrom *datetime.Moment
	detached    bool
	receiptSeq  uint64
	memo        totalsMemo
}

type totalsMemo struct {
	valid    bool
	version  uint64
	receipts uint64
	totals   totals.Totals
}

// New builds a controller. Open must be called before use.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	backend := opts.Backend
	if backend == nil {
		backend = session.NewMemoryBackend()
	}
	safety := opts.SafetyTimeout
	if safety <= 0 {
		safety = DefaultSafetyTimeout
	}
	cooldown := opts.Cooldown
	switch {
	case cooldown == 0:
		cooldown = DefaultCooldown
	case cooldown < 0:
		cooldown = 0
	}
	itemTimeout := opts.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}

	port := session.NewPort(backend, opts.Namespace, logger)
	c := &Controller{
		store:    draft.NewStore(),
		port:     port,
		mirror:   session.NewMirror(port, opts.Debounce),
		svc:      opts.Service,
		id:       opts.Identity,
		logger:   logger.With(slog.String("desk", opts.Namespace)),
		recorder: opts.Recorder,
		notify:   opts.Notify,
		now:      now,
		gates:    make(map[Action]*schedule.Gate, len(actions)),
		itemFlag: schedule.NewFlag(itemTimeout, now),
	}
	for _, a := range actions {
		c.gates[a] = schedule.NewGate(safety, cooldown, now)
	}
	c.from = schedule.NewFrameThrottle(opts.Frame, c.applyFrom)
	c.store.Subscribe(c.mirror.Observe)
	return c
}

// Open recovers the session: a persisted draft wins, an edit marker without
// a draft reloads the quotation, and otherwise a fresh draft is started.
func (c *Controller) Open(ctx context.Context, opts OpenOptions) error {
	marker := c.port.LoadEdit(ctx)
	c.mu.Lock()
	c.marker = marker
	c.mu.Unlock()

	snap, ok := c.port.LoadDraft(ctx)
	switch {
	case ok:
		c.store.Restore(snap.Draft)
		if marker.IsEditMode {
			if rs, ok := c.port.LoadReceipts(ctx, marker.QuotationID); ok {
				c.setReceipts(rs)
			}
		}
	case marker.IsEditMode && marker.QuotationID != "":
		return c.Load(ctx, marker.QuotationID)
	default:
		t := c.now()
		c.store.Restore(draft.State{
			Booking:      draft.Booking{Entry: datetime.Moment{Date: datetime.Today(t), Time: datetime.Clock(t)}},
			CurrentIndex: draft.NewItemIndex,
		})
	}

	if opts.CalendarDate != "" && !marker.IsEditMode {
		if _, valid := datetime.ParseDate(opts.CalendarDate); valid {
			c.store.SetFromDate(opts.CalendarDate)
		} else {
			c.logger.Info("calendar date ignored", slog.String("date", opts.CalendarDate))
		}
	}
	return nil
}

// Load enters edit mode for quotationID: the draft is hydrated from the
// booking service and the receipt cache refreshed.
func (c *Controller) Load(ctx context.Context, quotationID string) error {
	if err := c.id.Check(); err != nil {
		return err
	}
	done, ok := c.gates[ActionLoad].Begin()
	if !ok {
		return c.refuse(ActionLoad, ErrBusy)
	}
	defer done()

	started := c.now()
	q, err := c.svc.FetchQuotation(ctx, quotationID, c.id.HotelID)
	c.observe(ActionLoad, started, err)
	if err != nil {
		c.logger.Error("load quotation", slog.String("quotation_id", quotationID), slog.Any("error", err))
		c.emit(Notice{Action: ActionLoad, Message: "Could not load the quotation"})
		return fmt.Errorf("load quotation %s: %w", quotationID, err)
	}

	receipts := q.Receipts
	if receipts == nil {
		if cur := c.Marker(); cur.QuotationID == q.QuotationID {
			receipts = c.store.Receipts()
		} else if cached, ok := c.port.LoadReceipts(ctx, q.QuotationID); ok {
			receipts = cached
		}
	}
	c.setReceipts(receipts)
	c.store.Hydrate(q.Booking)
	c.setMarker(ctx, session.EditMarker{IsEditMode: true, QuotationID: q.QuotationID, InvoiceID: q.BillID})
	c.port.SaveReceipts(ctx, q.QuotationID, receipts)
	c.emit(Notice{Action: ActionLoad, OK: true, Message: "Quotation loaded"})
	return nil
}

// Save stores the draft as a quotation, creating it when none is being
// edited. Unless KeepEditing is set the session ends on success.
func (c *Controller) Save(ctx context.Context, opts SaveOptions) (remote.SubmitResult, error) {
	marker := c.Marker()
	res, err := c.submit(ctx, SaveDraft{QuotationID: marker.QuotationID})
	if err != nil {
		return res, err
	}
	if opts.KeepEditing {
		c.store.MarkSaved()
		c.setMarker(ctx, session.EditMarker{IsEditMode: true, QuotationID: res.QuotationID, InvoiceID: marker.InvoiceID})
		return res, nil
	}
	c.end(ctx, res.QuotationID, marker.IsEditMode)
	return res, nil
}

// Invoice creates the invoice, or updates it when one already exists. The
// desk stays on the booking so receipts can follow.
func (c *Controller) Invoice(ctx context.Context) (remote.SubmitResult, error) {
	marker := c.Marker()
	var req Request = CreateInvoice{QuotationID: marker.QuotationID}
	if marker.InvoiceID != "" {
		req = ModifyInvoice{QuotationID: marker.QuotationID, BillID: marker.InvoiceID}
	}
	res, err := c.submit(ctx, req)
	if err != nil {
		return res, err
	}
	if res.BillID == "" {
		res.BillID = marker.InvoiceID
	}
	if res.BillID == "" {
		c.logger.Error("invoice acknowledged without bill id", slog.String("quotation_id", res.QuotationID))
		return res, fmt.Errorf("invoice: %w: %w", remote.ErrService, remote.ErrAmbiguous)
	}
	c.store.MarkSaved()
	c.setMarker(ctx, session.EditMarker{IsEditMode: true, QuotationID: res.QuotationID, InvoiceID: res.BillID})
	return res, nil
}

// submit runs the checks shared by every booking submission and sends req.
// The draft is left untouched on failure.
func (c *Controller) submit(ctx context.Context, req Request) (remote.SubmitResult, error) {
	action := req.Action()
	if err := c.id.Check(); err != nil {
		c.logger.Warn("submission blocked", slog.String("action", string(action)), slog.Any("error", err))
		return remote.SubmitResult{}, err
	}
	b := c.Settle()
	if res := validation.Validate(b); !res.OK() {
		return remote.SubmitResult{}, &ValidationError{Result: res}
	}
	done, ok := c.gates[action].Begin()
	if !ok {
		return remote.SubmitResult{}, c.refuse(action, ErrBusy)
	}
	defer done()

	started := c.now()
	res, err := c.svc.SubmitBooking(ctx, req.Build(c.id, b))
	c.observe(action, started, err)
	if err != nil {
		c.logger.Error("booking submission failed", slog.String("action", string(action)), slog.Any("error", err))
		c.emit(Notice{Action: action, Message: "Submission failed, please try again"})
		return remote.SubmitResult{}, fmt.Errorf("%s: %w", action, err)
	}
	c.logger.Info("booking submitted",
		slog.String("action", string(action)),
		slog.String("quotation_id", res.QuotationID),
		slog.String("bill_id", res.BillID))
	c.emit(Notice{Action: action, OK: true, Message: "Saved"})
	return res, nil
}

// end clears the draft and leaves edit mode. The receipt cache of an edited
// quotation is kept.
func (c *Controller) end(ctx context.Context, quotationID string, editing bool) {
	c.from.Cancel()
	c.store.Reset(false)
	c.mirror.Discard()
	c.port.ClearDraft(ctx, quotationID, editing)
	c.port.ClearEdit(ctx)
	c.mu.Lock()
	c.marker = session.EditMarker{}
	c.pendingFrom = nil
	c.receiptSeq++
	c.mu.Unlock()
}

// Reset discards the draft. In edit mode the receipts and the edit marker
// survive so the quotation can still be worked on.
func (c *Controller) Reset(ctx context.Context) {
	marker := c.Marker()
	c.from.Cancel()
	c.mu.Lock()
	c.pendingFrom = nil
	c.mu.Unlock()
	c.store.Reset(marker.IsEditMode)
	c.mirror.Discard()
	c.port.ClearDraft(ctx, marker.QuotationID, marker.IsEditMode)
	if !marker.IsEditMode {
		c.bumpReceipts()
	}
}

// Marker returns the current edit marker.
func (c *Controller) Marker() session.EditMarker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.marker
}

func (c *Controller) setMarker(ctx context.Context, m session.EditMarker) {
	c.mu.Lock()
	c.marker = m
	c.mu.Unlock()
	c.port.SaveEdit(ctx, m)
}

// Phase derives the lifecycle phase from the edit marker and the balance.
func (c *Controller) Phase() Phase {
	m := c.Marker()
	switch {
	case m.InvoiceID != "":
		if len(c.store.Receipts()) == 0 {
			return PhaseInvoiced
		}
		if c.Totals().Settled() {
			return PhaseInvoicedFull
		}
		return PhaseInvoicedPartial
	case m.IsEditMode:
		return PhaseDraftingEditing
	default:
		return PhaseDraftingNew
	}
}

// Totals returns the bill figures of the draft and its receipts. Results are
// reused until the draft or the receipts change.
func (c *Controller) Totals() totals.Totals {
	version := c.store.Version()
	c.mu.Lock()
	seq := c.receiptSeq
	if c.memo.valid && c.memo.version == version && c.memo.receipts == seq {
		t := c.memo.totals
		c.mu.Unlock()
		return t
	}
	c.mu.Unlock()

	t := totals.ForBooking(c.store.Draft(), c.store.Receipts())
	c.mu.Lock()
	c.memo = totalsMemo{valid: true, version: version, receipts: seq, totals: t}
	c.mu.Unlock()
	return t
}

// Validate runs every draft rule.
func (c *Controller) Validate() validation.Result {
	return validation.Validate(c.Settle())
}

// Dirty reports unsaved changes.
func (c *Controller) Dirty() bool {
	c.from.Flush()
	return c.store.Dirty()
}

// Draft returns the draft with any queued date edit applied.
func (c *Controller) Draft() draft.Booking {
	return c.Settle()
}

// Receipts returns the cached receipts.
func (c *Controller) Receipts() []draft.Receipt {
	return c.store.Receipts()
}

// CurrentItem returns the item being composed and its target index.
func (c *Controller) CurrentItem() (draft.Item, int) {
	return c.store.CurrentItem()
}

// Busy reports the gate state of every action.
func (c *Controller) Busy() map[Action]schedule.GateState {
	out := make(map[Action]schedule.GateState, len(c.gates))
	for a, g := range c.gates {
		out[a] = g.State()
	}
	return out
}

// Search passes a catalog lookup through to the booking service.
func (c *Controller) Search(ctx context.Context, kind remote.Kind, term string) ([]draft.Ref, error) {
	refs, err := c.svc.SearchCatalog(ctx, kind, term)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	return refs, nil
}

// Suspend persists everything pending, before the screen navigates to a picker.
func (c *Controller) Suspend() {
	c.from.Flush()
	c.mirror.Flush()
}

// Close persists everything pending and stops the timers.
func (c *Controller) Close() {
	c.from.Flush()
	c.mirror.Close()
}

// Detach marks the screen as gone. Submissions still in flight complete and
// update the draft, but their notices are dropped.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
}

func (c *Controller) emit(n Notice) {
	c.mu.Lock()
	detached := c.detached
	c.mu.Unlock()
	if detached {
		c.logger.Debug("notice dropped after detach", slog.String("action", string(n.Action)))
		return
	}
	if c.notify != nil {
		c.notify(n)
	}
}

func (c *Controller) refuse(action Action, err error) error {
	c.logger.Info("submission refused", slog.String("action", string(action)), slog.String("reason", err.Error()))
	return err
}

func (c *Controller) observe(action Action, started time.Time, err error) {
	if c.recorder == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, remote.ErrAmbiguous):
		outcome = "ambiguous"
	case errors.Is(err, remote.ErrRejected):
		outcome = "rejected"
	default:
		outcome = "failure"
	}
	c.recorder.ObserveSubmission(string(action), outcome, c.now().Sub(started))
}

func (c *Controller) setReceipts(rs []draft.Receipt) {
	c.store.SetReceipts(rs)
	c.bumpReceipts()
}

func (c *Controller) bumpReceipts() {
	c.mu.Lock()
	c.receiptSeq++
	c.mu.Unlock()
}
