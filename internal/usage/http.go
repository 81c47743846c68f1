// Package usage exposes read-only quota consumption reports.
package usage

import (
	"context"
	"net/http"

	"github.com/abduss/mediavault/internal/auth"
	"github.com/abduss/mediavault/internal/quota"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	storageService   = "StorageManagementService"
	bandwidthService = "UsageMonitoringService"
)

type usageLedger interface {
	CurrentUsage(ctx context.Context, userID uuid.UUID) (quota.Snapshot, error)
}

type auditor interface {
	Emit(userID *uuid.UUID, action, description, service string)
}

// StorageReport describes live storage consumption against the limit.
type StorageReport struct {
	TotalStorageBytes int64   `json:"total_storage_bytes"`
	MaxStorageBytes   int64   `json:"max_storage_bytes"`
	UsagePercent      float64 `json:"usage_percent"`
}

// BandwidthReport describes today's upload volume against the daily limit.
type BandwidthReport struct {
	TodayBandwidthBytes int64 `json:"today_bandwidth_bytes"`
	DailyLimitBytes     int64 `json:"daily_limit_bytes"`
	ThresholdExceeded   bool  `json:"threshold_exceeded"`
}

// RegisterRoutes mounts usage reporting under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, ledger usageLedger, policy quota.Policy, audit auditor) {
	handler := &httpHandler{ledger: ledger, policy: policy, audit: audit}
	group.GET("/usage/storage", handler.storage)
	group.GET("/usage/bandwidth", handler.bandwidth)
}

type httpHandler struct {
	ledger usageLedger
	policy quota.Policy
	audit  auditor
}

func (h *httpHandler) storage(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	snapshot, err := h.ledger.CurrentUsage(c.Request.Context(), userID)
	if err != nil {
		h.audit.Emit(&userID, "CHECK_STORAGE", "Error: "+err.Error(), storageService)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute storage usage"})
		return
	}

	report := StorageReport{
		TotalStorageBytes: snapshot.TotalStorageBytes,
		MaxStorageBytes:   h.policy.MaxStorageBytes,
	}
	if h.policy.MaxStorageBytes > 0 {
		report.UsagePercent = float64(snapshot.TotalStorageBytes) / float64(h.policy.MaxStorageBytes) * 100
	}

	h.audit.Emit(&userID, "CHECK_STORAGE", "User checked storage usage", storageService)
	c.JSON(http.StatusOK, report)
}

func (h *httpHandler) bandwidth(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	snapshot, err := h.ledger.CurrentUsage(c.Request.Context(), userID)
	if err != nil {
		h.audit.Emit(&userID, "CHECK_BANDWIDTH", "Error: "+err.Error(), bandwidthService)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute bandwidth usage"})
		return
	}

	report := BandwidthReport{
		TodayBandwidthBytes: snapshot.TodayBandwidthBytes,
		DailyLimitBytes:     h.policy.MaxDailyBandwidthBytes,
		ThresholdExceeded:   snapshot.TodayBandwidthBytes >= h.policy.MaxDailyBandwidthBytes,
	}

	h.audit.Emit(&userID, "CHECK_BANDWIDTH", "User checked bandwidth usage", bandwidthService)
	c.JSON(http.StatusOK, report)
}
