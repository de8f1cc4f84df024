package handler

import (
	"net/http"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/management"
	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const feedbackImageField = "file"

// CreateLead registers a lead in the entry stage.
// POST /api/v1/prospect/leads
func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), actor, management.CreateLeadInput{
		SalespersonID:   req.SalespersonID,
		Name:            req.Name,
		Phone:           req.Phone,
		InterestVehicle: req.InterestVehicle,
		RawData:         req.RawData,
		Details:         req.Details,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

// GetLead returns one lead.
// GET /api/v1/prospect/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "id", msgInvalidLeadID)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	lead, err := h.leads.GetLead(c.Request.Context(), actor, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ListActionableStages returns the stages the lead may move to next.
// GET /api/v1/prospect/leads/:id/actionable-stages
func (h *Handler) ListActionableStages(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "id", msgInvalidLeadID)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stages, err := h.leads.ListActionableStages(c.Request.Context(), actor, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ActionableStagesResponse{Items: stages})
}

// TransitionLead moves a lead to another stage.
// POST /api/v1/prospect/leads/:id/transition
func (h *Handler) TransitionLead(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "id", msgInvalidLeadID)
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	outcome, valid := domain.ParseOutcome(req.Outcome)
	if !valid {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "unknown outcome")
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	lead, err := h.leads.TransitionLead(c.Request.Context(), actor, leadID, domain.TransitionInput{
		TargetStageID:   req.TargetStageID,
		Outcome:         outcome,
		AppointmentDate: req.AppointmentDate,
		Force:           req.Force,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// SubmitFeedback appends a feedback entry to a lead.
// POST /api/v1/prospect/leads/:id/feedback
func (h *Handler) SubmitFeedback(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "id", msgInvalidLeadID)
	if !ok {
		return
	}
	var req transport.FeedbackRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	lead, err := h.leads.SubmitFeedback(c.Request.Context(), actor, leadID, req.Text, req.Images)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// UploadFeedbackImage stores one image for a later feedback entry.
// POST /api/v1/prospect/leads/:id/feedback/images (multipart, field "file")
func (h *Handler) UploadFeedbackImage(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "id", msgInvalidLeadID)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile(feedbackImageField)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	ref, err := h.leads.UploadFeedbackImage(c.Request.Context(), actor, leadID, management.ImageUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, ref)
}

// ReassignLead hands a lead to another salesperson.
// POST /api/v1/prospect/leads/:id/reassign
func (h *Handler) ReassignLead(c *gin.Context) {
	leadID, ok := parseUUIDParam(c, "id", msgInvalidLeadID)
	if !ok {
		return
	}
	var req transport.ReassignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	lead, err := h.leads.ReassignManually(c.Request.Context(), actor, leadID, req.NewOwnerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}
