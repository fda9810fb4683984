package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/application/recognitionservice"
	"github.com/campustransit/farebeacon/internal/domain/models"
)

type RecognitionHandler struct {
	recognitionSvc recognitionservice.IRecognitionService
	logger         zerolog.Logger
}

func NewRecognitionHandler(recognitionSvc recognitionservice.IRecognitionService, logger zerolog.Logger) *RecognitionHandler {
	return &RecognitionHandler{
		recognitionSvc: recognitionSvc,
		logger:         logger,
	}
}

func (h *RecognitionHandler) Recognize(c *gin.Context) {
	var req models.RecognitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.RecognitionResponse{
			Status:   "error",
			Message:  err.Error(),
			Continue: true,
		})
		return
	}

	resp, err := h.recognitionSvc.Recognize(c.Request.Context(), &req)
	if err != nil {
		// Store or extractor unavailable; the kiosk keeps scanning.
		h.logger.Error().Err(err).Msg("Recognition failed")
		c.JSON(http.StatusInternalServerError, models.RecognitionResponse{
			Status:   "error",
			Message:  "Recognition is temporarily unavailable. Please try again.",
			Continue: true,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
