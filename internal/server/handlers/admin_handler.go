package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/app"
	"github.com/cascadegear/storesync/internal/coordinator"
	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/scheduler"
	"github.com/cascadegear/storesync/internal/service/shipping"
)

// AdminHandler serves the local operator surface: status, on-demand sync,
// console action requests, settings replacement and label issuance.
type AdminHandler struct {
	app         *app.Context
	sched       *scheduler.Scheduler
	shippingSvc *shipping.Service
	console     *coordinator.Manager
	logger      *zap.Logger
}

// NewAdminHandler wires the admin handler.
func NewAdminHandler(appCtx *app.Context, sched *scheduler.Scheduler, shippingSvc *shipping.Service, console *coordinator.Manager, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{app: appCtx, sched: sched, shippingSvc: shippingSvc, console: console, logger: logger}
}

// Status reports store identity and console state.
func (h *AdminHandler) Status(c *gin.Context) {
	cfg := h.app.Config()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"store":           cfg.Store.Name,
		"watch_folder":    cfg.Store.WatchFolder,
		"printer_enabled": cfg.Printing.Enabled,
		"active_view":     h.console.ActiveView(),
		"update":          h.console.AvailableUpdate(),
	})
}

// SyncNow kicks off one full cycle on a short-lived worker, independent of
// the fixed polling schedule.
func (h *AdminHandler) SyncNow(c *gin.Context) {
	go h.sched.RunCycle()
	c.JSON(http.StatusAccepted, gin.H{"status": "sync started"})
}

// RequestSettings asks the console owner to open the settings view.
func (h *AdminHandler) RequestSettings(c *gin.Context) {
	h.app.Mailbox.Request(models.PendingAction{Kind: models.ActionShowSettings})
	c.JSON(http.StatusAccepted, gin.H{"status": "requested"})
}

// RequestOrders asks the console owner to open the orders view.
func (h *AdminHandler) RequestOrders(c *gin.Context) {
	h.app.Mailbox.Request(models.PendingAction{Kind: models.ActionShowOrders})
	c.JSON(http.StatusAccepted, gin.H{"status": "requested"})
}

type updateRequest struct {
	Version     string `json:"version" binding:"required"`
	DownloadURL string `json:"download_url" binding:"required"`
}

// AnnounceUpdate records an available release through the mailbox.
func (h *AdminHandler) AnnounceUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.app.Mailbox.Request(models.PendingAction{
		Kind:        models.ActionUpdate,
		Version:     req.Version,
		DownloadURL: req.DownloadURL,
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "requested"})
}

type issueLabelRequest struct {
	WeightLB     float64 `json:"weight_lb"`
	AllowReissue bool    `json:"allow_reissue"`
}

// IssueLabel creates a carrier shipping label for the order. Reissuing over
// an existing tracking number requires allow_reissue.
func (h *AdminHandler) IssueLabel(c *gin.Context) {
	var req issueLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.shippingSvc.IssueLabel(c.Request.Context(), h.app.Config(), shipping.IssueParams{
		OrderID:      c.Param("id"),
		WeightLB:     req.WeightLB,
		AllowReissue: req.AllowReissue,
	})
	if err != nil {
		switch {
		case errors.Is(err, shipping.ErrTrackingExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, shipping.ErrNotConfigured), errors.Is(err, shipping.ErrNoShippingAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("label issuance failed", zap.String("order_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracking_number": result.TrackingNumber,
		"label_path":      result.LabelPath,
		"printed":         result.Printed,
	})
}

type settingsRequest struct {
	StoreName        *string `json:"store_name"`
	WatchFolder      *string `json:"watch_folder"`
	FilePattern      *string `json:"file_pattern"`
	SalesFilePattern *string `json:"sales_file_pattern"`
	OutputDir        *string `json:"output_dir"`
	PrintingEnabled  *bool   `json:"printing_enabled"`
	PrinterName      *string `json:"printer_name"`
}

// UpdateSettings validates and atomically replaces the configuration. The
// polling worker picks up the new snapshot on its next cycle.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next := *h.app.Config()
	if req.StoreName != nil {
		next.Store.Name = *req.StoreName
	}
	if req.WatchFolder != nil {
		next.Store.WatchFolder = *req.WatchFolder
	}
	if req.FilePattern != nil {
		next.Store.FilePattern = *req.FilePattern
	}
	if req.SalesFilePattern != nil {
		next.Store.SalesFilePattern = *req.SalesFilePattern
	}
	if req.OutputDir != nil {
		next.Store.OutputDir = *req.OutputDir
	}
	if req.PrintingEnabled != nil {
		next.Printing.Enabled = *req.PrintingEnabled
	}
	if req.PrinterName != nil {
		next.Printing.PrinterName = *req.PrinterName
	}

	if err := next.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.app.ReplaceConfig(&next)
	h.logger.Info("settings replaced")
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
