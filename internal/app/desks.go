package app

import (
	"log/slog"
	"time"

	banquethttp "github.com/odyssey-erp/banquet-desk/internal/banquet/http"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/lifecycle"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/session"
	"github.com/odyssey-erp/banquet-desk/internal/observability"
)

var _ lifecycle.Recorder = (*observability.Metrics)(nil)

// DeskDeps are the collaborators shared by every desk.
type DeskDeps struct {
	Config   *Config
	Logger   *slog.Logger
	Service  lifecycle.Service
	Backend  session.Backend
	Recorder lifecycle.Recorder
}

// NewDeskFactory builds desk controllers from the runtime configuration.
func NewDeskFactory(deps DeskDeps) banquethttp.Factory {
	cfg := deps.Config
	identity := lifecycle.Identity{HotelID: cfg.HotelID, LoginID: cfg.LoginID}
	return func(deskID string, notify func(lifecycle.Notice)) *lifecycle.Controller {
		return lifecycle.New(lifecycle.Options{
			Identity:      identity,
			Service:       deps.Service,
			Backend:       deps.Backend,
			Namespace:     deskID,
			Logger:        deps.Logger,
			Recorder:      deps.Recorder,
			Notify:        notify,
			Debounce:      cfg.DraftDebounce,
			Frame:         cfg.DateFrame,
			SafetyTimeout: cfg.ActionSafetyTimeout,
			Cooldown:      cooldown(cfg.ActionCooldown),
		})
	}
}

// cooldown maps an explicit zero to a disabled cooldown.
func cooldown(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}
