package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/application/enrollmentservice"
	"github.com/campustransit/farebeacon/internal/domain/models"
)

type EnrollmentHandler struct {
	enrollmentSvc enrollmentservice.IEnrollmentService
	logger        zerolog.Logger
}

func NewEnrollmentHandler(enrollmentSvc enrollmentservice.IEnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentSvc: enrollmentSvc,
		logger:        logger,
	}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req models.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	riderID := c.Param("rider_id")
	resp, err := h.enrollmentSvc.Enroll(c.Request.Context(), riderID, &req)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Rider not found"})
			return
		}
		if message, ok := captureMessage(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": message})
			return
		}
		h.logger.Error().Err(err).Str("rider_id", riderID).Msg("Enrollment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *EnrollmentHandler) Retire(c *gin.Context) {
	riderID := c.Param("rider_id")
	recordID := c.Param("record_id")

	if err := h.enrollmentSvc.Retire(c.Request.Context(), riderID, recordID); err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Embedding record not found"})
			return
		}
		h.logger.Error().Err(err).
			Str("rider_id", riderID).
			Str("record_id", recordID).
			Msg("Failed to retire embedding")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Embedding retired"})
}

// captureMessage maps a capture quality failure to the message shown to the
// enrollment operator.
func captureMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, models.ErrUndecodable):
		return "Could not decode the image. Please capture again.", true
	case errors.Is(err, models.ErrLowResolution):
		return "Image resolution is too low. Please use a higher resolution camera.", true
	case errors.Is(err, models.ErrNoFace):
		return "No face detected in the image. Please capture again.", true
	case errors.Is(err, models.ErrMultipleFaces):
		return "Multiple faces detected. Please capture one person at a time.", true
	case errors.Is(err, models.ErrFaceTooSmall):
		return "Face is too small in the image. Please move closer to the camera.", true
	case errors.Is(err, models.ErrNoEmbedding):
		return "Could not read the face. Please capture again.", true
	default:
		return "", false
	}
}
