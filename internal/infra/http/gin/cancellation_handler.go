package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourbook/internal/app/commands"
	"tourbook/internal/app/dto"
	CancellationApp "tourbook/internal/app/handlers/cancellation"
	"tourbook/internal/app/queries"
)

type CancellationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type raiseCancellationRequest struct {
	TravellerIDs      []string  `json:"traveller_ids"`
	CancelledAt       time.Time `json:"cancelled_at"`
	ExtraRemarkAmount float64   `json:"extra_remark_amount"`
	TransportAmount   float64   `json:"transport_amount"`
	TrainAmount       float64   `json:"train_amount"`
	FlightAmount      float64   `json:"flight_amount"`
	Remark            string    `json:"remark"`
}

func (h CancellationHandler) Raise(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req raiseCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := CancellationApp.RaiseCancellationCommand{
		CommandID:         generateCommandID(),
		BookingID:         c.Param("id"),
		TravellerIDs:      req.TravellerIDs,
		CancelledAt:       req.CancelledAt,
		ExtraRemarkAmount: req.ExtraRemarkAmount,
		TransportAmount:   req.TransportAmount,
		TrainAmount:       req.TrainAmount,
		FlightAmount:      req.FlightAmount,
		Remark:            req.Remark,
	}
	result, err := commands.Dispatch[CancellationApp.RaiseCancellationCommand, *CancellationApp.RaiseCancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type approveCancellationRequest struct {
	TravellerIDs []string `json:"traveller_ids"`
}

func (h CancellationHandler) Approve(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req approveCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := CancellationApp.ApproveCancellationCommand{
		BookingID:    c.Param("id"),
		TravellerIDs: req.TravellerIDs,
	}
	result, err := commands.Dispatch[CancellationApp.ApproveCancellationCommand, *CancellationApp.ApproveCancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rejectCancellationRequest struct {
	TravellerIDs []string `json:"traveller_ids"`
}

func (h CancellationHandler) Reject(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req rejectCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := CancellationApp.RejectCancellationCommand{
		BookingID:    c.Param("id"),
		RecordID:     c.Param("recordId"),
		TravellerIDs: req.TravellerIDs,
	}
	result, err := commands.Dispatch[CancellationApp.RejectCancellationCommand, *CancellationApp.RejectCancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CancellationHandler) ListPending(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	result, err := queries.Ask[CancellationApp.ListPendingQuery, *dto.CancellationRecordCollection](c.Request.Context(), h.Queries, CancellationApp.ListPendingQuery{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ CancellationHTTP = CancellationHandler{}
