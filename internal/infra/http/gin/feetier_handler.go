package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tourbook/internal/app/commands"
	"tourbook/internal/app/dto"
	FeeTierApp "tourbook/internal/app/handlers/feetier"
	"tourbook/internal/app/queries"
)

type FeeTierHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h FeeTierHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	result, err := queries.Ask[FeeTierApp.GetScheduleQuery, *dto.FeeTierSchedule](c.Request.Context(), h.Queries, FeeTierApp.GetScheduleQuery{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type tierRequest struct {
	FromDays int     `json:"from_days"`
	ToDays   *int    `json:"to_days"`
	Percent  float64 `json:"percent"`
}

type upsertScheduleRequest struct {
	AdvancePaid []tierRequest `json:"advance_paid"`
	FullyPaid   []tierRequest `json:"fully_paid"`
}

func (h FeeTierHandler) Upsert(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req upsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := FeeTierApp.UpsertScheduleCommand{
		AdvancePaid: toTierInputs(req.AdvancePaid),
		FullyPaid:   toTierInputs(req.FullyPaid),
	}
	result, err := commands.Dispatch[FeeTierApp.UpsertScheduleCommand, *dto.FeeTierSchedule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func toTierInputs(in []tierRequest) []FeeTierApp.TierInput {
	out := make([]FeeTierApp.TierInput, len(in))
	for i, t := range in {
		out[i] = FeeTierApp.TierInput{FromDays: t.FromDays, ToDays: t.ToDays, Percent: t.Percent}
	}
	return out
}

var _ FeeTierHTTP = FeeTierHandler{}
