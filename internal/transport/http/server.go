// Package http provides the HTTP server for the lending gateway.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
	v1 "github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/transport/http/v1"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/ws"
)

// NewServer creates the gateway HTTP server: the browser-facing API, the
// stream session API and the WebSocket endpoint.
func NewServer(svc *service.Service, stats v1.Stats, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.NewHandler(svc, stats).RegisterRoutes(e)
	e.GET("/ws", wsServer.HandleWebSocket)

	return e
}
