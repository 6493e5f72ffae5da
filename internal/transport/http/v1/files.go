package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/auth"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

// ListInputFiles lists uploaded applications.
// GET /api/files/input
func (h *Handler) ListInputFiles(c echo.Context) error {
	return h.listFiles(c, domain.PrefixInput)
}

// ListOutputFiles lists generated assessments.
// GET /api/files/output
func (h *Handler) ListOutputFiles(c echo.Context) error {
	return h.listFiles(c, domain.PrefixOutput)
}

func (h *Handler) listFiles(c echo.Context, prefix string) error {
	files, err := h.service.ListFiles(c.Request().Context(), auth.FromContext(c), prefix)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"prefix": prefix,
		"files":  files,
	})
}

// GetFileContent returns the content of one file.
// GET /api/files/content?key=
func (h *Handler) GetFileContent(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "key is required"})
	}

	content, err := h.service.ReadFile(c.Request().Context(), auth.FromContext(c), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"key":     key,
		"content": content,
	})
}

// ProcessFile starts an assessment stream for a file.
// POST /api/files/process
func (h *Handler) ProcessFile(c echo.Context) error {
	var req domain.ProcessFileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	resp, err := h.service.ProcessFile(c.Request().Context(), auth.FromContext(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, resp)
}
