package handler

import (
	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// GetDeadlines returns a salesperson's initial-contact policy.
// GET /api/v1/prospect/team/:memberId/deadlines
func (h *Handler) GetDeadlines(c *gin.Context) {
	memberID, ok := parseUUIDParam(c, "memberId", msgInvalidMemberID)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	settings, err := h.deadlines.GetDeadlineSettings(c.Request.Context(), actor, memberID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToDeadlineSettingsResponse(memberID, settings))
}

// UpdateDeadlines replaces a salesperson's initial-contact policy.
// PUT /api/v1/prospect/team/:memberId/deadlines
func (h *Handler) UpdateDeadlines(c *gin.Context) {
	memberID, ok := parseUUIDParam(c, "memberId", msgInvalidMemberID)
	if !ok {
		return
	}
	var req transport.DeadlineSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	settings, err := h.deadlines.UpdateDeadlineSettings(c.Request.Context(), actor, memberID, req.ToDeadlineSettings())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToDeadlineSettingsResponse(memberID, settings))
}
