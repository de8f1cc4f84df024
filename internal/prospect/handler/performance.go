package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/performance"
	"prospectai_backend/internal/prospect/reports"
	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) performanceReport(c *gin.Context) (performance.Report, bool) {
	var q transport.PerformanceQuery
	if !h.bindQuery(c, &q) {
		return performance.Report{}, false
	}
	actor, ok := actorFrom(c)
	if !ok {
		return performance.Report{}, false
	}

	report, err := h.performance.ComputeMetrics(c.Request.Context(), actor, performance.Query{
		Period:        domain.Period(q.Period),
		From:          q.From,
		To:            q.To,
		SalespersonID: optionalUUID(q.SalespersonID),
	})
	if httpkit.HandleError(c, err) {
		return performance.Report{}, false
	}
	return report, true
}

// Performance returns the KPI report.
// GET /api/v1/prospect/performance?period=&from=&to=&salespersonId=
func (h *Handler) Performance(c *gin.Context) {
	report, ok := h.performanceReport(c)
	if !ok {
		return
	}
	httpkit.OK(c, transport.ToPerformanceResponse(report))
}

// ExportPerformance returns the KPI report as an XLSX workbook.
// GET /api/v1/prospect/performance/export
func (h *Handler) ExportPerformance(c *gin.Context) {
	report, ok := h.performanceReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := reports.WritePerformanceWorkbook(&buf, report, h.loc); err != nil {
		_ = c.Error(err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to build report", nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reports.FileName(h.now(), h.loc)))
	c.Data(http.StatusOK, reports.ContentType, buf.Bytes())
}

// GetKPISettings returns the monthly leads card configuration.
// GET /api/v1/prospect/settings/kpi
func (h *Handler) GetKPISettings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	kpi, err := h.performance.GetKPISettings(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToKPISettingsResponse(kpi))
}

// UpdateKPISettings stores the monthly leads card configuration.
// PUT /api/v1/prospect/settings/kpi
func (h *Handler) UpdateKPISettings(c *gin.Context) {
	var req transport.KPISettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	kpi, err := h.performance.UpdateKPISettings(c.Request.Context(), actor, req.ToMonthlyLeadsKPI())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToKPISettingsResponse(kpi))
}
