package enrollmentservice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/facematch"
	"github.com/campustransit/farebeacon/internal/imaging"
	"github.com/campustransit/farebeacon/internal/repositories/riderrepo"
	"github.com/campustransit/farebeacon/pkg/config"
)

type enrollmentService struct {
	riderRepo riderrepo.IRiderRepository
	extractor interfaces.ExtractorClient
	cfg       config.RecognitionConfig
	logger    zerolog.Logger
}

func New(
	riderRepo riderrepo.IRiderRepository,
	extractor interfaces.ExtractorClient,
	cfg config.RecognitionConfig,
	logger zerolog.Logger,
) IEnrollmentService {
	return &enrollmentService{
		riderRepo: riderRepo,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, riderID string, req *models.EnrollmentRequest) (*models.EnrollmentResponse, error) {
	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	angle := req.Angle
	if angle == "" {
		angle = models.AngleCenter
	}

	frame, err := imaging.Decode(req.Image)
	if err != nil {
		return nil, err
	}
	if err := imaging.CheckResolution(frame, s.cfg.MinResolution); err != nil {
		return nil, err
	}

	detections, err := s.extractor.Extract(ctx, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract embedding: %w", err)
	}
	face, err := imaging.ScreenDetections(detections, s.cfg.MinFaceSize)
	if err != nil {
		return nil, err
	}

	record := &models.EmbeddingRecord{
		RiderID:       rider.ID,
		Angle:         angle,
		Encoding:      facematch.EncodeEmbedding(face.Embedding),
		SchemaVersion: models.EmbeddingSchemaVersion,
		FaceWidth:     face.Box.Width,
		FaceHeight:    face.Box.Height,
		CapturedAt:    time.Now().UTC(),
	}
	if err := s.riderRepo.AppendEmbedding(ctx, record); err != nil {
		return nil, err
	}

	count, err := s.riderRepo.CountActiveEmbeddings(ctx, rider.ID)
	if err != nil {
		return nil, err
	}

	quality, score := imaging.QualityGrade(face.Box, frame)

	s.logger.Info().
		Str("rider_id", rider.ID).
		Str("record_id", record.ID).
		Str("angle", angle).
		Str("quality", quality).
		Int("angles_count", count).
		Msg("Embedding enrolled")

	required := s.cfg.RequiredAngles
	progress := float64(count) / float64(required) * 100
	if progress > 100 {
		progress = 100
	}

	return &models.EnrollmentResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Face angle '%s' enrolled successfully. (%d/%d)", angle, count, required),
		Quality:       quality,
		QualityScore:  score,
		FaceWidth:     face.Box.Width,
		FaceHeight:    face.Box.Height,
		AnglesCount:   count,
		TotalRequired: required,
		Complete:      count >= required,
		Progress:      progress,
	}, nil
}

func (s *enrollmentService) Retire(ctx context.Context, riderID, recordID string) error {
	if err := s.riderRepo.RetireEmbedding(ctx, riderID, recordID); err != nil {
		return err
	}

	s.logger.Info().
		Str("rider_id", riderID).
		Str("record_id", recordID).
		Msg("Embedding retired")
	return nil
}

func (s *enrollmentService) Progress(ctx context.Context, riderID string) (*models.RiderProfile, error) {
	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	count, err := s.riderRepo.CountActiveEmbeddings(ctx, riderID)
	if err != nil {
		return nil, err
	}

	return &models.RiderProfile{
		Rider:         *rider,
		AnglesCount:   count,
		TotalRequired: s.cfg.RequiredAngles,
		Complete:      count >= s.cfg.RequiredAngles,
	}, nil
}
