package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
)

// InvokeAgent proxies an invocation to the agent runtime and relays its
// event stream.
// POST /api/invoke-agent
func (h *Handler) InvokeAgent(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.InvokeAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	body, err := h.service.InvokeAgent(ctx, req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: verr.Message})
		}
		log.Printf("ERROR: agent invocation for session %s failed: %v", req.SessionID, err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Failed to invoke agent endpoint",
			Details: err.Error(),
		})
	}
	defer body.Close()

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "streaming not supported"})
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	if err := service.ForwardFrames(c.Response(), flusher.Flush, body); err != nil {
		// Headers are already sent.
		log.Printf("WARN: agent stream for session %s ended early: %v", req.SessionID, err)
	}
	return nil
}
