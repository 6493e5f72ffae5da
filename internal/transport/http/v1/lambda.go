package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
)

// InvokeLambda runs a tool on the file function.
// POST /api/invoke-lambda
func (h *Handler) InvokeLambda(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.InvokeLambdaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body"})
	}

	resp, err := h.service.InvokeFunction(ctx, req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: verr.Message})
		case errors.Is(err, service.ErrPolicyDenied):
			return c.JSON(http.StatusForbidden, domain.ErrorResponse{Error: err.Error()})
		}
		log.Printf("ERROR: function invocation %s failed: %v", req.ToolName, err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Failed to invoke Lambda function",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, resp)
}
