package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/meeting-session/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	sessionHandler *Session
	recordHandler  *Record
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, sessionHandler *Session, recordHandler *Record) *Router {
	return &Router{
		cfg:            cfg,
		sessionHandler: sessionHandler,
		recordHandler:  recordHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// Swagger UI, served from the registered docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupSessionRoutes(v1)
	rt.setupRecordRoutes(v1)
}

// setupSessionRoutes configures the control API of the running session
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessionGroup := g.Group("/session")

	if rt.sessionHandler == nil {
		sessionGroup.Any("*", rt.notImplemented)
		return
	}

	sessionGroup.GET("", rt.sessionHandler.GetState)

	sessionGroup.POST("/devices/refresh", rt.sessionHandler.RefreshDevices)
	sessionGroup.PUT("/devices", rt.sessionHandler.SelectDevice)

	sessionGroup.POST("/microphone", rt.sessionHandler.SetMicrophone)
	sessionGroup.POST("/camera", rt.sessionHandler.SetCamera)

	sessionGroup.POST("/share/toggle", rt.sessionHandler.ToggleShare)
	sessionGroup.POST("/share/select", rt.sessionHandler.SelectShareSource)
	sessionGroup.POST("/share/cancel", rt.sessionHandler.CancelSharePicker)

	sessionGroup.POST("/chat", rt.sessionHandler.SendChat)
	sessionGroup.POST("/translations", rt.sessionHandler.AddTranslation)
	sessionGroup.POST("/terms", rt.sessionHandler.AddTerm)

	sessionGroup.POST("/end", rt.sessionHandler.End)
	sessionGroup.POST("/record/retry", rt.sessionHandler.RetryRecord)
}

// setupRecordRoutes configures meeting record routes
func (rt *Router) setupRecordRoutes(g *echo.Group) {
	recordGroup := g.Group("/records")

	if rt.recordHandler == nil {
		recordGroup.Any("*", rt.notImplemented)
		return
	}

	recordGroup.GET("", rt.recordHandler.ListRecords)
	recordGroup.GET("/:id", rt.recordHandler.GetRecord)
	recordGroup.GET("/:id/archive", rt.recordHandler.GetArchiveURL)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	environment := "production"
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": environment,
	})
}
