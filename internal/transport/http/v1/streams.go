package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/auth"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
)

// StartStream starts a server-side stream session.
// POST /api/streams
func (h *Handler) StartStream(c echo.Context) error {
	var req domain.StartStreamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	resp, err := h.service.StartStream(c.Request().Context(), auth.FromContext(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, resp)
}

// GetStream returns the live aggregate of a session.
// GET /api/streams/:session_id
func (h *Handler) GetStream(c echo.Context) error {
	sessionID := c.Param("session_id")

	snap, err := h.service.GetStream(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	if snap == nil {
		return writeError(c, service.ErrStreamNotFound)
	}
	return c.JSON(http.StatusOK, snap)
}

// GetStreamEvents returns recorded events of a session's run.
// GET /api/streams/:session_id/events?run_id=&after_seq=&limit=
func (h *Handler) GetStreamEvents(c echo.Context) error {
	sessionID := c.Param("session_id")

	var afterSeq int64
	if v := c.QueryParam("after_seq"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid after_seq"})
		}
		afterSeq = n
	}
	limit, ok := parseLimit(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid limit"})
	}

	events, err := h.service.GetStreamEvents(c.Request().Context(), sessionID, c.QueryParam("run_id"), afterSeq, limit)
	if err != nil {
		return writeError(c, err)
	}
	if events == nil {
		events = []domain.StreamEventRecord{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"events":     events,
	})
}

// ListRuns lists recorded runs of a session.
// GET /api/streams/:session_id/runs
func (h *Handler) ListRuns(c echo.Context) error {
	limit, ok := parseLimit(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid limit"})
	}

	runs, err := h.service.ListRuns(c.Request().Context(), c.Param("session_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	if runs == nil {
		runs = []domain.StreamRun{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": runs})
}

// ClearStream empties the live aggregate of an idle session.
// DELETE /api/streams/:session_id
func (h *Handler) ClearStream(c echo.Context) error {
	if err := h.service.ClearStream(c.Param("session_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func parseLimit(c echo.Context) (int, bool) {
	v := c.QueryParam("limit")
	if v == "" {
		return 100, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
