package mailbox

import (
	"sync/atomic"

	"github.com/cascadegear/storesync/internal/domain/models"
)

// Mailbox is a single-slot, last-write-wins cell through which background
// workers request operator actions. A new request silently discards any
// unconsumed prior value; intermediate requests may be lost by design. It is
// never a queue.
type Mailbox struct {
	slot atomic.Pointer[models.PendingAction]
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// Request overwrites the slot with the given action.
func (m *Mailbox) Request(action models.PendingAction) {
	m.slot.Store(&action)
}

// Take reads and clears the slot, reporting whether an action was pending.
func (m *Mailbox) Take() (models.PendingAction, bool) {
	pending := m.slot.Swap(nil)
	if pending == nil {
		return models.PendingAction{}, false
	}
	return *pending, true
}
