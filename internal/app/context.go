package app

import (
	"sync/atomic"

	"github.com/cascadegear/storesync/internal/config"
	"github.com/cascadegear/storesync/internal/mailbox"
)

// Context is the application context constructed once in main and passed to
// every worker. The configuration is held behind an atomic pointer and only
// ever replaced wholesale, so a worker reading it mid-cycle always sees
// either the old or the new complete value, never a partial one.
type Context struct {
	cfg     atomic.Pointer[config.Config]
	Mailbox *mailbox.Mailbox
}

// New builds an application context around the initial configuration.
func New(cfg *config.Config) *Context {
	ctx := &Context{Mailbox: mailbox.New()}
	ctx.cfg.Store(cfg)
	return ctx
}

// Config returns the current configuration snapshot.
func (a *Context) Config() *config.Config {
	return a.cfg.Load()
}

// ReplaceConfig swaps in a new configuration. Callers must pass a fully
// constructed, validated value; it is never mutated in place afterwards.
func (a *Context) ReplaceConfig(cfg *config.Config) {
	a.cfg.Store(cfg)
}
