package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/export"
	"github.com/saravenpi/firewood/internal/history"
	"github.com/saravenpi/firewood/internal/profiles"
	"github.com/saravenpi/firewood/internal/scene"
	"github.com/saravenpi/firewood/internal/session"
)

// Env is what every screen shares: the live session and the services that
// act on it.
type Env struct {
	Ctx        context.Context
	Session    *session.Session
	Exporter   *export.Exporter
	Builder    *scene.Builder
	Profiles   *profiles.Store
	History    *history.Store
	IMessageDB string
}

func (e *Env) ctx() context.Context {
	if e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}

// sized replays the last known window size into a freshly built model.
func sized[M tea.Model](m M, width, height int) M {
	if width <= 0 {
		return m
	}
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	if next, ok := updated.(M); ok {
		return next
	}
	return m
}
