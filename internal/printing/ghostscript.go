package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ErrEngineNotFound means no Ghostscript executable could be located.
var ErrEngineNotFound = errors.New("ghostscript not found")

// Print jobs that take longer than this have stalled in the rasterizer, not
// the queue.
const dispatchTimeout = 60 * time.Second

// Installer defaults checked before falling back to PATH lookup.
var wellKnownPaths = []string{
	`C:\Program Files\gs\gs10.06.0\bin\gswin64c.exe`,
	`C:\Program Files\gs\gs10.01.2\bin\gswin64c.exe`,
	`C:\Program Files\gs\gs10.0.0\bin\gswin64c.exe`,
	`C:\Program Files (x86)\gs\gs10.06.0\bin\gswin32c.exe`,
	`C:\Program Files (x86)\gs\gs10.01.2\bin\gswin32c.exe`,
	`C:\Program Files (x86)\gs\gs10.0.0\bin\gswin32c.exe`,
}

var pathCandidates = []string{"gswin64c.exe", "gswin32c.exe", "gs"}

// Dispatcher submits rendered documents to a named OS printer queue through
// Ghostscript's mswinpr2 device.
type Dispatcher struct {
	overridePath string
	logger       *zap.Logger
}

// NewDispatcher wires a print dispatcher. overridePath, when non-empty, wins
// over auto-detection.
func NewDispatcher(overridePath string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{overridePath: overridePath, logger: logger}
}

// Send submits the document at pdfPath to printerName. It returns an error
// for a missing document, a missing rasterization engine, or a nonzero exit
// from the external process; it never panics past this boundary.
func (d *Dispatcher) Send(ctx context.Context, pdfPath, printerName string) error {
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("document missing: %w", err)
	}

	engine, err := d.locateEngine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, engine,
		"-sDEVICE=mswinpr2",
		"-sOutputFile=%printer%"+printerName,
		"-dBATCH",
		"-dNOPAUSE",
		"-dQUIET",
		pdfPath,
	)

	d.logger.Info("submitting document to print queue",
		zap.String("printer", printerName),
		zap.String("document", pdfPath))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ghostscript dispatch failed: %w: %s", err, string(output))
	}

	d.logger.Info("document sent to printer", zap.String("printer", printerName))
	return nil
}

func (d *Dispatcher) locateEngine() (string, error) {
	if d.overridePath != "" {
		if _, err := os.Stat(d.overridePath); err == nil {
			return d.overridePath, nil
		}
		d.logger.Warn("configured ghostscript path missing, falling back to detection",
			zap.String("path", d.overridePath))
	}

	for _, path := range wellKnownPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, name := range pathCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", ErrEngineNotFound
}
