package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/application/service"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/garyjia/pharma-billing/internal/domain/workflow"
)

// Error codes returned in Response.Code
const (
	CodeBadRequest  = "bad_request"
	CodeValidation  = "validation"
	CodeStock       = "stock"
	CodeConflict    = "conflict"
	CodeCalculation = "calculation"
	CodeNotFound    = "not_found"
	CodeInternal    = "internal"
)

// statusFor maps a service error to its HTTP status and code
func statusFor(err error) (int, string) {
	switch {
	case pricing.IsValidation(err):
		return http.StatusBadRequest, CodeValidation
	case pricing.IsStock(err):
		return http.StatusConflict, CodeStock
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, port.ErrNotFound), errors.Is(err, service.ErrLineNotFound):
		return http.StatusNotFound, CodeNotFound
	case pricing.IsCalculation(err):
		return http.StatusUnprocessableEntity, CodeCalculation
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes err in the standard envelope. Internal errors are logged
// and replaced with fallback so storage details do not leak to clients.
func (h *Handlers) respondError(c *gin.Context, err error, fallback string) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback, "path", c.Request.URL.Path, "error", err)
		message = fallback
	}
	c.JSON(status, Response{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   message,
		Code:    CodeBadRequest,
	})
}
