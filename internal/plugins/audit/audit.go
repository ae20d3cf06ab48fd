// Package audit provides a built-in plugin that records registry lifecycle
// signals as structured log entries and counts them.
package audit

import (
	"context"
	"sync/atomic"

	"github.com/gantry-dev/gantry/internal/logger"
	"github.com/gantry-dev/gantry/internal/plugin"
	"github.com/gantry-dev/gantry/internal/signal"
)

// Plugin observes lifecycle signals for the lifetime of its registration.
type Plugin struct {
	log  *logger.Logger
	seen atomic.Uint64
}

// New creates the audit plugin.
func New(log *logger.Logger) *Plugin {
	return &Plugin{log: log.WithComponent("audit")}
}

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "audit",
		Version:     "0.1.0",
		Description: "records plugin lifecycle transitions",
	}
}

// Install subscribes to every registry lifecycle signal. The subscriptions
// are owner-tagged, so unregistering the plugin detaches them.
func (p *Plugin) Install(ctx context.Context, pc *plugin.Context) error {
	signals := []string{
		plugin.SignalRegistered,
		plugin.SignalEnabled,
		plugin.SignalDisabled,
		plugin.SignalUnregistered,
	}
	for _, name := range signals {
		if _, err := pc.Signals.Subscribe(name, p.record, signal.WithOwner(pc.Metadata.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Services exposes the observed transition count.
func (p *Plugin) Services() map[string]any {
	return map[string]any{
		"audit.count": func() uint64 { return p.seen.Load() },
	}
}

func (p *Plugin) record(ctx context.Context, e signal.Entry) error {
	p.seen.Add(1)
	p.log.WithFields(map[string]any{"signal": e.Name, "payload": e.Payload}).Debug("lifecycle transition")
	return nil
}
