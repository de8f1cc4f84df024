package handler

import (
	"net/http"

	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// ListStages returns the company's funnel.
// GET /api/v1/prospect/pipeline
func (h *Handler) ListStages(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stages, err := h.pipelines.ListStages(c.Request.Context(), actor.TenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.StageListResponse{Items: stages})
}

// AddStage appends a stage before the closing block.
// POST /api/v1/prospect/pipeline/stages
func (h *Handler) AddStage(c *gin.Context) {
	var req transport.AddStageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stage, err := h.pipelines.AddStage(c.Request.Context(), actor, req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, stage)
}

// RenameStage renames a non-fixed stage.
// PATCH /api/v1/prospect/pipeline/stages/:stageId
func (h *Handler) RenameStage(c *gin.Context) {
	var req transport.RenameStageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stage, err := h.pipelines.RenameStage(c.Request.Context(), actor, c.Param("stageId"), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stage)
}

// SetStageEnabled enables or disables a non-fixed stage.
// POST /api/v1/prospect/pipeline/stages/:stageId/enabled
func (h *Handler) SetStageEnabled(c *gin.Context) {
	var req transport.SetStageEnabledRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stage, err := h.pipelines.SetStageEnabled(c.Request.Context(), actor, c.Param("stageId"), *req.Enabled)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stage)
}

// DeleteStage removes an empty non-fixed stage.
// DELETE /api/v1/prospect/pipeline/stages/:stageId
func (h *Handler) DeleteStage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	if err := h.pipelines.DeleteStage(c.Request.Context(), actor, c.Param("stageId")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
