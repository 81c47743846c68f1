package server

import (
	"github.com/abduss/mediavault/internal/audit"
	"github.com/abduss/mediavault/internal/auth"
	"github.com/abduss/mediavault/internal/config"
	"github.com/abduss/mediavault/internal/media"
	"github.com/abduss/mediavault/internal/metrics"
	"github.com/abduss/mediavault/internal/quota"
	"github.com/abduss/mediavault/internal/usage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	DB           *pgxpool.Pool
	ObjectStore  *minio.Client
	AuthService  *auth.Service
	MediaService *media.Service
	Ledger       *quota.Ledger
	AuditRepo    *audit.Repository
	Audit        *audit.Emitter
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService, deps.Audit)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.MediaService != nil {
			media.RegisterRoutes(protected, deps.MediaService)
		}
		if deps.Ledger != nil {
			policy := quota.Policy{
				MaxStorageBytes:        deps.Config.Quota.MaxStorageBytes,
				MaxDailyBandwidthBytes: deps.Config.Quota.MaxDailyBandwidthBytes,
			}
			usage.RegisterRoutes(protected, deps.Ledger, policy, deps.Audit)
		}
		if deps.AuditRepo != nil {
			audit.RegisterRoutes(protected, deps.AuditRepo)
		}
	}

	return router
}
