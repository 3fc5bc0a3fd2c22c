package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finrota.com/app/internal/http/handlers"
	"finrota.com/app/internal/http/middleware"
	"finrota.com/app/internal/modules/merchants"
	"finrota.com/app/internal/modules/refunds"
)

func NewRouter(logger *slog.Logger, db *gorm.DB, refundSvc *refunds.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Recovery sits inside ErrorHandler so a recovered panic still renders
	// through the normal error path.
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.Recovery(logger))

	health := &handlers.HealthHandler{DB: db}
	r.GET("/healthz", health.Check)

	refundH := handlers.NewRefundHandler(logger, refundSvc)

	api := r.Group("/api")
	api.Use(middleware.APIKeyAuth(merchants.NewRepo(db)))
	{
		api.POST("/refunds", refundH.Create)
		api.GET("/refunds/:id", refundH.Retrieve)
		api.GET("/refunds", refundH.List)
	}

	return r
}
