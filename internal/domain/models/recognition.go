package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoundingBox is a detected face region in pixel coordinates.
type BoundingBox struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceDetection is one face found by the embedding engine: its region and
// the fixed-length embedding extracted from it.
type FaceDetection struct {
	Box       BoundingBox `json:"box"`
	Embedding []float64   `json:"embedding"`
}

// EnrollmentRequest is the capture payload for one angle. Image is a
// base64-encoded JPEG or PNG, optionally with a data-URI header.
type EnrollmentRequest struct {
	Image string `json:"image" binding:"required"`
	Angle string `json:"angle"`
}

// EnrollmentResponse reports the outcome of one enrollment capture.
// Progress and quality are informational; nothing blocks captures past
// completion.
type EnrollmentResponse struct {
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	Quality       string  `json:"quality,omitempty"`
	QualityScore  float64 `json:"quality_score,omitempty"`
	FaceWidth     int     `json:"face_width,omitempty"`
	FaceHeight    int     `json:"face_height,omitempty"`
	AnglesCount   int     `json:"angles_count"`
	TotalRequired int     `json:"total_required"`
	Complete      bool    `json:"complete"`
	Progress      float64 `json:"progress"`
}

// RecognitionRequest is one boarding scan frame.
type RecognitionRequest struct {
	Image string `json:"image" binding:"required"`
}

// RecognitionResponse is the single-shot session reply. Continue tells the
// scanning client whether to keep submitting frames; it is true for both
// transient capture problems and definitive outcomes, since the kiosk scans
// continuously.
type RecognitionResponse struct {
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	Rider       string           `json:"rider,omitempty"`
	Confidence  *float64         `json:"confidence,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	LastCheckIn *time.Time       `json:"last_check_in,omitempty"`
	Continue    bool             `json:"continue"`
}

// MatchResult is an accepted nearest-rider match.
type MatchResult struct {
	RiderID    string          `json:"rider_id"`
	FullName   string          `json:"full_name"`
	Distance   float64         `json:"distance"`
	Confidence float64         `json:"confidence"`
	Balance    decimal.Decimal `json:"balance"`
}
