package handler

import (
	"net/http"

	"prospectai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// TriggerSweep starts an overdue lead sweep now.
// POST /api/v1/admin/prospect/sweep
func (h *Handler) TriggerSweep(c *gin.Context) {
	if h.sweeps == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "sweep is not available", nil)
		return
	}

	result, err := h.sweeps.TriggerSweep(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	status := http.StatusOK
	if result.Enqueued {
		status = http.StatusAccepted
	}
	httpkit.JSON(c, status, result)
}
