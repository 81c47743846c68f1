package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reason label values for UploadsRejected.
const (
	ReasonBusy      = "busy"
	ReasonStorage   = "storage_limit"
	ReasonBandwidth = "bandwidth_limit"
	ReasonInternal  = "internal"
)

var (
	// UploadsAccepted counts committed uploads.
	UploadsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediavault_uploads_accepted_total",
		Help: "Number of uploads committed to blob and metadata stores.",
	})

	// UploadsRejected counts rejected or failed uploads by reason.
	UploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediavault_uploads_rejected_total",
		Help: "Number of uploads rejected or failed, by reason.",
	}, []string{"reason"})

	// BytesStored counts bytes committed to the blob store.
	BytesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediavault_bytes_stored_total",
		Help: "Total bytes committed to the blob store.",
	})

	// AuditDropped counts audit entries dropped due to a full queue.
	AuditDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediavault_audit_dropped_total",
		Help: "Audit entries dropped because the emitter queue was full.",
	})
)

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
