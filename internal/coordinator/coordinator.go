package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/mailbox"
)

// Console is the surface only the coordinator goroutine may drive.
type Console interface {
	OpenSettings()
	OpenOrders()
	NotifyUpdate(version, downloadURL string)
}

// drainInterval matches the cadence at which the console owner consumes
// pending requests.
const drainInterval = 100 * time.Millisecond

// Coordinator drains the mailbox on a fixed tick and executes the requested
// actions. It is the single goroutine allowed to mutate console state.
type Coordinator struct {
	mailbox *mailbox.Mailbox
	console Console
	logger  *zap.Logger
}

// New wires a coordinator instance.
func New(mb *mailbox.Mailbox, console Console, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{mailbox: mb, console: console, logger: logger}
}

// Run drains the mailbox until the context is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.DrainTick()
		}
	}
}

// DrainTick consumes at most one pending action and executes it.
func (c *Coordinator) DrainTick() {
	action, ok := c.mailbox.Take()
	if !ok {
		return
	}

	switch action.Kind {
	case models.ActionShowSettings:
		c.console.OpenSettings()
	case models.ActionShowOrders:
		c.console.OpenOrders()
	case models.ActionUpdate:
		c.console.NotifyUpdate(action.Version, action.DownloadURL)
	default:
		c.logger.Warn("unknown pending action", zap.String("kind", string(action.Kind)))
	}
}
