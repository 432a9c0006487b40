package models

// ActionKind enumerates operator actions a background worker may request from
// the console-owning goroutine.
type ActionKind string

const (
	ActionShowSettings ActionKind = "settings"
	ActionShowOrders   ActionKind = "orders"
	ActionUpdate       ActionKind = "update"
)

// PendingAction is the transient single-slot value exchanged through the
// mailbox. A newer request overwrites an unconsumed older one; intermediate
// requests may be lost.
type PendingAction struct {
	Kind        ActionKind
	Version     string // update actions only
	DownloadURL string // update actions only
}
