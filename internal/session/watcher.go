// Package session tracks API activity and announces when the idle limit
// from the settings is reached. Locking the screen is the client's job;
// the server only broadcasts the signal.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/settings"
	"github.com/phongkham/phongkham-backend/ws"
)

var logoutDurations = map[string]time.Duration{
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
}

type Watcher struct {
	Settings *settings.Service
	Logger   *zap.Logger

	mu           sync.Mutex
	lastActivity time.Time
	notified     bool
}

func NewWatcher(svc *settings.Service, logger *zap.Logger) *Watcher {
	return &Watcher{
		Settings:     svc,
		Logger:       logger,
		lastActivity: time.Now(),
	}
}

// Middleware records every API request as activity.
func (w *Watcher) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			w.Touch(time.Now())
			return next(c)
		}
	}
}

func (w *Watcher) Touch(now time.Time) {
	w.mu.Lock()
	w.lastActivity = now
	w.notified = false
	w.mu.Unlock()
}

// Run checks the idle time once a minute until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.check(ctx, now)
		}
	}
}

func (w *Watcher) check(ctx context.Context, now time.Time) {
	current, err := w.Settings.Get(ctx)
	if err != nil {
		w.Logger.Warn("session watcher could not read settings", zap.Error(err))
		return
	}
	limit, ok := logoutDurations[current.AutoLogoutDuration]
	if !ok {
		// "never" or unknown value, nothing to enforce
		return
	}

	w.mu.Lock()
	idle := now.Sub(w.lastActivity)
	shouldNotify := idle >= limit && !w.notified
	if shouldNotify {
		w.notified = true
	}
	w.mu.Unlock()

	if shouldNotify {
		w.Logger.Info("idle limit reached", zap.Duration("idle", idle))
		ws.HubInstance.BroadcastEvent("session_lock", map[string]interface{}{
			"idleMinutes": int(idle.Minutes()),
		})
	}
}
