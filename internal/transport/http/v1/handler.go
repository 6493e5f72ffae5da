// Package v1 provides the HTTP handlers of the lending gateway.
package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/auth"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

// Stats reports live subscriber counts for the health endpoint.
type Stats interface {
	ConnectionCount() int
	SessionCount() int
}

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	stats   Stats
}

// NewHandler creates a new handler. stats may be nil.
func NewHandler(service *service.Service, stats Stats) *Handler {
	return &Handler{
		service: service,
		stats:   stats,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Proxies; the token travels in the body
	e.POST("/api/invoke-agent", h.InvokeAgent)
	e.POST("/api/invoke-lambda", h.InvokeLambda)

	files := e.Group("/api/files", auth.Middleware())
	files.GET("/input", h.ListInputFiles)
	files.GET("/output", h.ListOutputFiles)
	files.GET("/content", h.GetFileContent)
	files.POST("/process", h.ProcessFile)

	streams := e.Group("/api/streams", auth.Middleware())
	streams.POST("", h.StartStream)
	streams.GET("/:session_id", h.GetStream)
	streams.GET("/:session_id/events", h.GetStreamEvents)
	streams.GET("/:session_id/runs", h.ListRuns)
	streams.DELETE("/:session_id", h.ClearStream)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "healthy",
		"version": "0.1.0",
	}
	if h.stats != nil {
		resp["connections"] = h.stats.ConnectionCount()
		resp["sessions"] = h.stats.SessionCount()
	}
	return c.JSON(http.StatusOK, resp)
}

// writeError maps service errors onto status codes.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	var rerr *service.RemoteError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: verr.Message})
	case errors.Is(err, stream.ErrMissingSessionID):
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, stream.ErrMissingBearerToken):
		return c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrPolicyDenied):
		return c.JSON(http.StatusForbidden, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrStreamNotFound):
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, stream.ErrStreamActive):
		return c.JSON(http.StatusConflict, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrFunctionsUnavailable):
		return c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: err.Error()})
	case errors.As(err, &rerr):
		return c.JSON(http.StatusBadGateway, domain.ErrorResponse{Error: rerr.Error()})
	default:
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: err.Error()})
	}
}
