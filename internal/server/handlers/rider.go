package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/application/riderservice"
)

type RiderHandler struct {
	riderSvc riderservice.IRiderService
	logger   zerolog.Logger
}

func NewRiderHandler(riderSvc riderservice.IRiderService, logger zerolog.Logger) *RiderHandler {
	return &RiderHandler{
		riderSvc: riderSvc,
		logger:   logger,
	}
}

type createRiderRequest struct {
	FullName       string          `json:"full_name" binding:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type creditRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *RiderHandler) CreateRider(c *gin.Context) {
	var req createRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rider, err := h.riderSvc.Create(c.Request.Context(), req.FullName, req.InitialBalance)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create rider")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rider)
}

func (h *RiderHandler) GetRider(c *gin.Context) {
	profile, err := h.riderSvc.Get(c.Request.Context(), c.Param("rider_id"))
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		h.logger.Error().Err(err).Str("rider_id", c.Param("rider_id")).Msg("Failed to fetch rider")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *RiderHandler) CreditRider(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.riderSvc.Credit(c.Request.Context(), c.Param("rider_id"), req.Amount)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		h.logger.Error().Err(err).Str("rider_id", c.Param("rider_id")).Msg("Failed to credit rider")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *RiderHandler) ListTransactions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	transactions, err := h.riderSvc.Transactions(c.Request.Context(), c.Param("rider_id"), limit)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		h.logger.Error().Err(err).Str("rider_id", c.Param("rider_id")).Msg("Failed to list transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
