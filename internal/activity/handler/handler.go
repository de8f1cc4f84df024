package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prospectai_backend/internal/activity/service"
	"prospectai_backend/internal/activity/transport"
	"prospectai_backend/platform/httpkit"
	"prospectai_backend/platform/validator"
)

// Handler handles HTTP requests for the activity log.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new activity handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns the company's activity log.
// GET /api/v1/prospect/activity
func (h *Handler) List(c *gin.Context) {
	var req transport.ListActivityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, identity)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
