package printing

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Lister enumerates the printer queue names installed on this machine.
type Lister interface {
	AvailablePrinters() []string
}

// PowerShellLister enumerates printers through Get-Printer. Enumeration
// failures degrade to an empty list; Resolve then passes the configured name
// through untouched.
type PowerShellLister struct {
	logger *zap.Logger
}

// NewPowerShellLister wires the default printer enumerator.
func NewPowerShellLister(logger *zap.Logger) *PowerShellLister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PowerShellLister{logger: logger}
}

// AvailablePrinters returns the installed queue names, or nil when they
// cannot be enumerated.
func (l *PowerShellLister) AvailablePrinters() []string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	script := "Get-Printer -ErrorAction SilentlyContinue | Select-Object -ExpandProperty Name"
	output, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		l.logger.Warn("could not enumerate printers", zap.Error(err))
		return nil
	}

	var printers []string
	for _, line := range strings.Split(string(output), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			printers = append(printers, name)
		}
	}
	return printers
}
