package recognitionservice

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type IRecognitionService interface {
	// Recognize runs one boarding scan end to end: probe quality gates,
	// nearest-rider match, fare settlement. Capture problems and business
	// outcomes both come back as structured responses; an error means the
	// store or the extractor was unreachable.
	Recognize(ctx context.Context, req *models.RecognitionRequest) (*models.RecognitionResponse, error)
}
