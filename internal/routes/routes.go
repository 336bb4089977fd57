// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mw-source-service/internal/config"
	"mw-source-service/internal/handler"
	"mw-source-service/internal/middleware"
	"mw-source-service/pkg/microwave"
)

// Router holds all dependencies for routing
type Router struct {
	config *config.Config
	logger *zap.Logger
	source microwave.Source
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, source microwave.Source) *Router {
	return &Router{
		config: config,
		logger: logger,
		source: source,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(r.logger))
	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.config, r.source, r.logger)
	sourceHandler := handler.NewSourceHandler(r.source, r.logger)
	statusStream := handler.NewStatusStreamHandler(r.source, r.config.Device.StatusStreamInterval, r.logger)

	router.GET("/health", healthHandler.Health)
	router.GET("/healthz", healthHandler.Health)

	apiV1 := router.Group("/api/v1")
	source := apiV1.Group("/source")
	{
		source.GET("/limits", sourceHandler.GetLimits)
		source.GET("/status", sourceHandler.GetStatus)
		source.POST("/on", sourceHandler.TurnOn)
		source.POST("/off", sourceHandler.TurnOff)

		source.GET("/frequency", sourceHandler.GetFrequency)
		source.PUT("/frequency", sourceHandler.SetFrequency)
		source.GET("/power", sourceHandler.GetPower)
		source.PUT("/power", sourceHandler.SetPower)

		source.POST("/cw", sourceHandler.ConfigureCW)
		source.POST("/cw/start", sourceHandler.StartCW)

		source.POST("/list", sourceHandler.ConfigureList)
		source.POST("/list/start", sourceHandler.StartList)
		source.POST("/list/reset", sourceHandler.ResetListPosition)

		source.POST("/sweep", sourceHandler.ConfigureSweep)
		source.POST("/sweep/start", sourceHandler.StartSweep)
		source.POST("/sweep/reset-position", sourceHandler.ResetSweepPosition)
		source.POST("/sweep/restart", sourceHandler.RestartSweep)

		source.POST("/trigger", sourceHandler.SetTrigger)
	}

	// WebSocket status stream
	router.GET("/ws/status", statusStream.Stream)

	r.logger.Info("All routes configured successfully")
}
