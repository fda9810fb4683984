package interfaces

import (
	"context"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

// ExtractorClient talks to the external face-embedding engine. One fixed
// extraction profile is shared by enrollment and recognition call sites;
// mixing profiles invalidates stored distance comparisons.
type ExtractorClient interface {
	// Extract returns every detected face in the image together with its
	// embedding vector. The vector length is a property of the engine
	// profile, not of the call.
	Extract(ctx context.Context, image []byte) ([]models.FaceDetection, error)
}

// GeocoderClient resolves a free-form stop name to coordinates.
type GeocoderClient interface {
	Geocode(ctx context.Context, query string) (*models.Location, error)
}

// LocationCache is a TTL cache for geocoded stops.
type LocationCache interface {
	GetLocation(ctx context.Context, key string) (*models.Location, error)
	SetLocation(ctx context.Context, key string, loc *models.Location) error
}

// EventPublisher emits settlement events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
	Close() error
}

// PositionBroadcaster pushes bus position updates to connected dashboard
// clients.
type PositionBroadcaster interface {
	BroadcastPosition(update models.BusPositionUpdate)
}
