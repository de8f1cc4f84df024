package handler

import (
	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Board returns the funnel view of a salesperson.
// GET /api/v1/prospect/board?salespersonId=
func (h *Handler) Board(c *gin.Context) {
	var q transport.BoardQuery
	if !h.bindQuery(c, &q) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	board, err := h.leads.Board(c.Request.Context(), actor, optionalUUID(q.SalespersonID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBoardResponse(board))
}

// Lock reports whether the salesperson may take new leads.
// GET /api/v1/prospect/lock?salespersonId=
func (h *Handler) Lock(c *gin.Context) {
	var q transport.BoardQuery
	if !h.bindQuery(c, &q) {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	state, err := h.leads.ProspectingLock(c.Request.Context(), actor, optionalUUID(q.SalespersonID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLockResponse(state))
}
