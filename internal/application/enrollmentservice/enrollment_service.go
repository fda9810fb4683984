package enrollmentservice

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

type IEnrollmentService interface {
	// Enroll runs one capture through the quality gates, extracts its
	// embedding and appends it to the rider's sequence. Gate failures come
	// back as the sentinel errors in the models package.
	Enroll(ctx context.Context, riderID string, req *models.EnrollmentRequest) (*models.EnrollmentResponse, error)

	// Retire marks one embedding record inactive without deleting it.
	Retire(ctx context.Context, riderID, recordID string) error

	// Progress reports how far along multi-angle enrollment the rider is.
	Progress(ctx context.Context, riderID string) (*models.RiderProfile, error)
}
