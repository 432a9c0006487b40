package coordinator

import (
	"sync"

	"go.uber.org/zap"
)

// View names the management views an operator can have open.
type View string

const (
	ViewNone     View = ""
	ViewSettings View = "settings"
	ViewOrders   View = "orders"
)

// UpdateInfo records the latest announced release.
type UpdateInfo struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
}

// Manager tracks operator-facing console state. At most one modal management
// view is open at a time; opening either closes the other first. All
// mutations come from the coordinator goroutine, reads may come from admin
// handlers.
type Manager struct {
	mu         sync.Mutex
	activeView View
	update     *UpdateInfo
	logger     *zap.Logger
}

// NewManager wires a console manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// OpenSettings activates the settings view, closing the orders view if open.
func (m *Manager) OpenSettings() {
	m.open(ViewSettings)
}

// OpenOrders activates the orders view, closing the settings view if open.
func (m *Manager) OpenOrders() {
	m.open(ViewOrders)
}

func (m *Manager) open(view View) {
	m.mu.Lock()
	previous := m.activeView
	m.activeView = view
	m.mu.Unlock()

	if previous != ViewNone && previous != view {
		m.logger.Info("closed management view", zap.String("view", string(previous)))
	}
	m.logger.Info("opened management view", zap.String("view", string(view)))
}

// CloseView deactivates whatever view is open.
func (m *Manager) CloseView() {
	m.mu.Lock()
	m.activeView = ViewNone
	m.mu.Unlock()
}

// ActiveView returns the currently open management view.
func (m *Manager) ActiveView() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeView
}

// NotifyUpdate records an available release for the status surface.
func (m *Manager) NotifyUpdate(version, downloadURL string) {
	m.mu.Lock()
	m.update = &UpdateInfo{Version: version, DownloadURL: downloadURL}
	m.mu.Unlock()
	m.logger.Info("update available", zap.String("version", version), zap.String("url", downloadURL))
}

// AvailableUpdate returns the last announced release, if any.
func (m *Manager) AvailableUpdate() *UpdateInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update
}
