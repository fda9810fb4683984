package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/application/locationservice"
)

type BusHandler struct {
	locationSvc locationservice.ILocationService
	logger      zerolog.Logger
}

func NewBusHandler(locationSvc locationservice.ILocationService, logger zerolog.Logger) *BusHandler {
	return &BusHandler{
		locationSvc: locationSvc,
		logger:      logger,
	}
}

type updateLocationRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
	Stop     string `json:"stop" binding:"required"`
}

func (h *BusHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bus, err := h.locationSvc.UpdateLocation(c.Request.Context(), req.DriverID, req.Stop)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		h.logger.Error().Err(err).Str("driver_id", req.DriverID).Msg("Failed to update bus location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, bus)
}

func (h *BusHandler) GetLocation(c *gin.Context) {
	busID := c.Param("bus_id")

	bus, location, err := h.locationSvc.GetBusLocation(c.Request.Context(), busID)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
			return
		}
		h.logger.Error().Err(err).Str("bus_id", busID).Msg("Failed to resolve bus location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bus":      bus,
		"location": location,
	})
}
