// Package session mirrors the active desk into a key-value store so a
// session survives navigation to picker screens and back.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/draft"
)

// ErrNotFound is returned by backends for a missing key.
var ErrNotFound = errors.New("session: key not found")

// Backend is a fallible key-value store.
type Backend interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// SnapshotVersion tags the persisted draft layout.
const SnapshotVersion = 1

// Snapshot is the whole draft side of a session, written atomically.
type Snapshot struct {
	Version int         `json:"version"`
	Draft   draft.State `json:"draft"`
	SavedAt time.Time   `json:"saved_at"`
}

// EditMarker tells a returning screen which remote records it is editing. It
// lives apart from the draft and outlives a draft clear.
type EditMarker struct {
	IsEditMode  bool   `json:"is_edit_mode"`
	QuotationID string `json:"editing_quotation_id"`
	InvoiceID   string `json:"editing_invoice_id"`
}

// Port reads and writes session state. Backend failures are logged and
// swallowed; no method returns an error.
type Port struct {
	backend   Backend
	namespace string
	logger    *slog.Logger
	now       func() time.Time
}

// NewPort builds a port scoped to namespace, usually the desk id.
func NewPort(backend Backend, namespace string, logger *slog.Logger) *Port {
	if logger == nil {
		logger = slog.Default()
	}
	return &Port{backend: backend, namespace: namespace, logger: logger, now: time.Now}
}

func (p *Port) key(parts ...string) string {
	return "banquet:" + p.namespace + ":" + strings.Join(parts, ":")
}

// DraftKey is the key of the draft snapshot.
func (p *Port) DraftKey() string { return p.key("draft") }

// EditKey is the key of the edit marker.
func (p *Port) EditKey() string { return p.key("edit", "marker") }

// ReceiptsKey is the key of the receipt cache for quotationID.
func (p *Port) ReceiptsKey(quotationID string) string { return p.key("receipts", quotationID) }

// Save stores v as JSON under key.
func (p *Port) Save(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("session encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := p.backend.Set(ctx, key, raw); err != nil {
		p.logger.Warn("session write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Load decodes the value under key into dst and reports whether it existed.
func (p *Port) Load(ctx context.Context, key string, dst any) bool {
	raw, err := p.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("session read failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.logger.Warn("session decode failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

// Remove deletes key.
func (p *Port) Remove(ctx context.Context, key string) {
	if err := p.backend.Del(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		p.logger.Warn("session delete failed", slog.String("key", key), slog.Any("error", err))
	}
}

// SaveDraft writes the draft snapshot.
func (p *Port) SaveDraft(ctx context.Context, st draft.State) {
	p.Save(ctx, p.DraftKey(), Snapshot{Version: SnapshotVersion, Draft: st, SavedAt: p.now().UTC()})
}

// LoadDraft reads the draft snapshot. Snapshots of another layout are ignored.
func (p *Port) LoadDraft(ctx context.Context) (Snapshot, bool) {
	var snap Snapshot
	if !p.Load(ctx, p.DraftKey(), &snap) {
		return Snapshot{}, false
	}
	if snap.Version != SnapshotVersion {
		p.logger.Info("session snapshot version mismatch", slog.Int("version", snap.Version))
		return Snapshot{}, false
	}
	return snap, true
}

// ClearDraft removes the draft snapshot. The receipt cache of quotationID is
// removed too unless editing, and edit markers are never touched.
func (p *Port) ClearDraft(ctx context.Context, quotationID string, editing bool) {
	p.Remove(ctx, p.DraftKey())
	if !editing && quotationID != "" {
		p.Remove(ctx, p.ReceiptsKey(quotationID))
	}
}

// SaveEdit writes the edit marker.
func (p *Port) SaveEdit(ctx context.Context, m EditMarker) {
	p.Save(ctx, p.EditKey(), m)
}

// LoadEdit reads the edit marker; a missing marker means a new booking.
func (p *Port) LoadEdit(ctx context.Context) EditMarker {
	var m EditMarker
	p.Load(ctx, p.EditKey(), &m)
	return m
}

// ClearEdit removes the edit marker.
func (p *Port) ClearEdit(ctx context.Context) {
	p.Remove(ctx, p.EditKey())
}

// SaveReceipts caches the receipt list of quotationID.
func (p *Port) SaveReceipts(ctx context.Context, quotationID string, rs []draft.Receipt) {
	if quotationID == "" {
		return
	}
	if rs == nil {
		rs = []draft.Receipt{}
	}
	p.Save(ctx, p.ReceiptsKey(quotationID), rs)
}

// LoadReceipts reads the cached receipt list of quotationID.
func (p *Port) LoadReceipts(ctx context.Context, quotationID string) ([]draft.Receipt, bool) {
	if quotationID == "" {
		return nil, false
	}
	var rs []draft.Receipt
	if !p.Load(ctx, p.ReceiptsKey(quotationID), &rs) {
		return nil, false
	}
	return rs, true
}
