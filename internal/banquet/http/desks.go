package banquethttp

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/lifecycle"
)

// DeskCookie binds a browser to its desk.
const DeskCookie = "banquet_desk"

const maxNotices = 20

// Factory builds the controller of a desk. notify receives the desk's notices.
type Factory func(deskID string, notify func(lifecycle.Notice)) *lifecycle.Controller

type desk struct {
	id   string
	ctrl *lifecycle.Controller

	open    sync.Once
	openErr error

	mu       sync.Mutex
	notices  []lifecycle.Notice
	lastSeen time.Time
}

func (d *desk) push(n lifecycle.Notice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, n)
	if len(d.notices) > maxNotices {
		d.notices = d.notices[len(d.notices)-maxNotices:]
	}
}

func (d *desk) drain() []lifecycle.Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.notices
	d.notices = nil
	return out
}

// Registry keeps one controller per desk cookie. Idle desks are closed by
// Sweep; their drafts stay in the session backend and are recovered when the
// cookie comes back.
type Registry struct {
	factory Factory
	idle    time.Duration
	secure  bool
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	desks map[string]*desk
}

// NewRegistry constructs a Registry.
func NewRegistry(factory Factory, idle time.Duration, secure bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory: factory,
		idle:    idle,
		secure:  secure,
		logger:  logger,
		now:     time.Now,
		desks:   make(map[string]*desk),
	}
}

// resolve returns the desk bound to the request and refreshes its cookie.
// A missing or foreign cookie starts a new desk.
func (reg *Registry) resolve(w http.ResponseWriter, r *http.Request) (*desk, error) {
	id := ""
	if cookie, err := r.Cookie(DeskCookie); err == nil {
		if _, perr := uuid.Parse(cookie.Value); perr == nil {
			id = cookie.Value
		}
	}
	if id == "" {
		fresh, err := uuid.NewRandom()
		if err != nil {
			return nil, err
		}
		id = fresh.String()
	}

	reg.mu.Lock()
	d, ok := reg.desks[id]
	if !ok {
		d = &desk{id: id}
		d.ctrl = reg.factory(id, d.push)
		reg.desks[id] = d
	}
	d.lastSeen = reg.now()
	reg.mu.Unlock()

	d.open.Do(func() {
		d.openErr = d.ctrl.Open(r.Context(), lifecycle.OpenOptions{CalendarDate: r.URL.Query().Get("date")})
		if d.openErr != nil {
			reg.logger.Warn("desk reopened without its quotation", slog.String("desk", id), slog.Any("error", d.openErr))
		}
	})

	http.SetCookie(w, &http.Cookie{
		Name:     DeskCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   reg.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  reg.now().Add(reg.idle),
	})
	return d, nil
}

// Len reports the number of open desks.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.desks)
}

// Sweep closes desks idle for longer than the registry's idle window.
func (reg *Registry) Sweep() int {
	cutoff := reg.now().Add(-reg.idle)
	reg.mu.Lock()
	var stale []*desk
	for id, d := range reg.desks {
		if d.lastSeen.Before(cutoff) {
			stale = append(stale, d)
			delete(reg.desks, id)
		}
	}
	reg.mu.Unlock()
	for _, d := range stale {
		d.ctrl.Detach()
		d.ctrl.Close()
	}
	if len(stale) > 0 {
		reg.logger.Debug("idle desks closed", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done, then closes every desk.
func (reg *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			reg.Close()
			return
		case <-ticker.C:
			reg.Sweep()
		}
	}
}

// Close persists and closes every desk.
func (reg *Registry) Close() {
	reg.mu.Lock()
	desks := reg.desks
	reg.desks = make(map[string]*desk)
	reg.mu.Unlock()
	for _, d := range desks {
		d.ctrl.Detach()
		d.ctrl.Close()
	}
}

type deskKey struct{}

func withDesk(ctx context.Context, d *desk) context.Context {
	return context.WithValue(ctx, deskKey{}, d)
}

func deskFrom(ctx context.Context) *desk {
	d, _ := ctx.Value(deskKey{}).(*desk)
	return d
}
