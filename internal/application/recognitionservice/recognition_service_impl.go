package recognitionservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/application/settlementservice"
	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/facematch"
	"github.com/campustransit/farebeacon/internal/imaging"
	"github.com/campustransit/farebeacon/internal/repositories/riderrepo"
	"github.com/campustransit/farebeacon/pkg/config"
)

// sessionState tracks one scan through the single-shot pipeline. Every
// request traverses Idle to Responded exactly once.
type sessionState string

const (
	stateIdle          sessionState = "idle"
	stateProbeReceived sessionState = "probe_received"
	stateMatched       sessionState = "matched"
	stateUnmatched     sessionState = "unmatched"
	stateSettled       sessionState = "settled"
	stateResponded     sessionState = "responded"
)

type recognitionService struct {
	riderRepo  riderrepo.IRiderRepository
	extractor  interfaces.ExtractorClient
	settlement settlementservice.ISettlementService
	cfg        config.RecognitionConfig
	logger     zerolog.Logger
}

func New(
	riderRepo riderrepo.IRiderRepository,
	extractor interfaces.ExtractorClient,
	settlement settlementservice.ISettlementService,
	cfg config.RecognitionConfig,
	logger zerolog.Logger,
) IRecognitionService {
	return &recognitionService{
		riderRepo:  riderRepo,
		extractor:  extractor,
		settlement: settlement,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *recognitionService) Recognize(ctx context.Context, req *models.RecognitionRequest) (*models.RecognitionResponse, error) {
	state := stateIdle

	probe, resp, err := s.extractProbe(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		// Quality rejection: short-circuit straight to the response.
		s.transition(&state, stateResponded)
		return resp, nil
	}
	s.transition(&state, stateProbeReceived)

	templates, err := s.riderRepo.AllTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rider templates: %w", err)
	}

	match, report := facematch.Match(probe, templates, s.cfg.MatchThreshold)
	if len(report.Skipped) > 0 {
		s.logger.Warn().
			Int("skipped_records", len(report.Skipped)).
			Int("considered_records", report.Considered).
			Msg("Some stored embeddings were unusable during match scan")
	}

	if match == nil {
		s.transition(&state, stateUnmatched)
		resp = s.unmatchedResponse(report)
		s.transition(&state, stateResponded)
		return resp, nil
	}
	s.transition(&state, stateMatched)

	result, err := s.settlement.Settle(ctx, match.RiderID, match.FullName)
	if err != nil {
		return nil, fmt.Errorf("failed to settle fare for rider %s: %w", match.RiderID, err)
	}
	s.transition(&state, stateSettled)

	resp = s.outcomeResponse(match, result)
	s.transition(&state, stateResponded)
	return resp, nil
}

// extractProbe decodes and screens the scan frame. A non-nil response means
// the capture was rejected and the client should retry with a new frame.
func (s *recognitionService) extractProbe(ctx context.Context, image string) ([]float64, *models.RecognitionResponse, error) {
	frame, err := imaging.Decode(image)
	if err != nil {
		return nil, retryResponse(err), nil
	}
	if err := imaging.CheckResolution(frame, s.cfg.MinResolution); err != nil {
		return nil, retryResponse(err), nil
	}

	detections, err := s.extractor.Extract(ctx, frame.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract probe embedding: %w", err)
	}
	face, err := imaging.ScreenDetections(detections, s.cfg.MinFaceSize)
	if err != nil {
		return nil, retryResponse(err), nil
	}
	return face.Embedding, nil, nil
}

func (s *recognitionService) transition(state *sessionState, to sessionState) {
	s.logger.Debug().
		Str("from", string(*state)).
		Str("to", string(to)).
		Msg("Recognition session transition")
	*state = to
}

func (s *recognitionService) unmatchedResponse(report *facematch.Report) *models.RecognitionResponse {
	if best := report.Best(); best != nil {
		confidence := facematch.Confidence(best.Distance)
		s.logger.Info().
			Str("nearest_rider_id", best.RiderID).
			Float64("distance", best.Distance).
			Float64("confidence", confidence).
			Msg("Scan below match threshold")
		return &models.RecognitionResponse{
			Status:     "error",
			Message:    fmt.Sprintf("Face not recognized (closest match confidence: %.1f%%). Please try again.", confidence),
			Confidence: &confidence,
			Continue:   true,
		}
	}

	return &models.RecognitionResponse{
		Status:   "error",
		Message:  "Face not recognized. No enrolled riders to match against.",
		Continue: true,
	}
}

func (s *recognitionService) outcomeResponse(match *models.MatchResult, result *models.SettlementResult) *models.RecognitionResponse {
	balance := result.Balance
	confidence := match.Confidence

	switch result.Outcome {
	case models.OutcomeDuplicate:
		return &models.RecognitionResponse{
			Status:      "info",
			Message:     fmt.Sprintf("Already checked in within the last %d minutes. Rider: %s", int(s.cfg.DuplicateWindow.Minutes()), match.FullName),
			Rider:       match.FullName,
			Confidence:  &confidence,
			Balance:     &balance,
			LastCheckIn: result.PriorTimestamp,
			Continue:    true,
		}
	case models.OutcomeApproved:
		return &models.RecognitionResponse{
			Status:     "success",
			Message:    fmt.Sprintf("Face recognized: %s (confidence: %.1f%%). Payment successful. New balance: %s", match.FullName, confidence, balance.String()),
			Rider:      match.FullName,
			Confidence: &confidence,
			Balance:    &balance,
			Continue:   true,
		}
	default:
		return &models.RecognitionResponse{
			Status:     "error",
			Message:    fmt.Sprintf("Insufficient balance for %s. Current balance: %s", match.FullName, balance.String()),
			Rider:      match.FullName,
			Confidence: &confidence,
			Balance:    &balance,
			Continue:   true,
		}
	}
}

// retryResponse maps a probe quality failure to the message the scanning
// kiosk shows between frames.
func retryResponse(err error) *models.RecognitionResponse {
	var message string
	switch {
	case errors.Is(err, models.ErrUndecodable):
		message = "Could not decode the image. Please try again."
	case errors.Is(err, models.ErrLowResolution):
		message = "Image resolution is too low. Please move closer to the camera."
	case errors.Is(err, models.ErrNoFace):
		message = "No face detected. Please face the camera."
	case errors.Is(err, models.ErrMultipleFaces):
		message = "Multiple faces detected. Please scan one rider at a time."
	case errors.Is(err, models.ErrFaceTooSmall):
		message = "Face is too small in the frame. Please move closer."
	case errors.Is(err, models.ErrNoEmbedding):
		message = "Could not read the face. Please try again."
	default:
		message = "Could not process the image. Please try again."
	}
	return &models.RecognitionResponse{
		Status:   "error",
		Message:  message,
		Continue: true,
	}
}
