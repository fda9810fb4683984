package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EmbeddingSchemaVersion identifies the byte layout of stored embeddings.
// Version 1 is base64 of the little-endian IEEE-754 float64 buffer, the
// layout the legacy enrollment pipeline wrote.
const EmbeddingSchemaVersion = 1

// Enrollment angle tags. The set is advisory; any label the capture client
// sends is stored as-is.
const (
	AngleCenter = "center"
	AngleLeft   = "left"
	AngleRight  = "right"
	AngleUp     = "up"
	AngleDown   = "down"
)

// Rider is a fare account holder. Balance is mutated only by settlement;
// embeddings only by enrollment.
type Rider struct {
	ID          string          `json:"id" db:"id"`
	FullName    string          `json:"full_name" db:"full_name"`
	RiderNumber int64           `json:"rider_number" db:"rider_number"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	// LegacyEncoding mirrors the newest embedding record for clients that
	// predate multi-angle enrollment.
	LegacyEncoding *string   `json:"-" db:"face_encoding"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// EmbeddingRecord is one enrolled facial embedding. Records are immutable
// once written; the per-rider sequence is append-only, with retirement as
// the only state change.
type EmbeddingRecord struct {
	ID            string          `json:"id" db:"id"`
	RiderID       string          `json:"rider_id" db:"rider_id"`
	Angle         string          `json:"angle" db:"angle"`
	Encoding      string          `json:"encoding" db:"encoding"`
	SchemaVersion int             `json:"schema_version" db:"schema_version"`
	FaceWidth     int             `json:"face_width" db:"face_width"`
	FaceHeight    int             `json:"face_height" db:"face_height"`
	CapturedAt    time.Time       `json:"captured_at" db:"captured_at"`
	RetiredAt     *time.Time      `json:"retired_at,omitempty" db:"retired_at"`
	Metadata      json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}

// RiderProfile is a rider together with enrollment progress.
type RiderProfile struct {
	Rider         Rider `json:"rider"`
	AnglesCount   int   `json:"angles_count"`
	TotalRequired int   `json:"total_required"`
	Complete      bool  `json:"complete"`
}

// RiderTemplates is the match-scan view of one rider: identity plus every
// active embedding record. Riders with no active records but a legacy
// encoding carry a single synthesized record tagged "legacy".
type RiderTemplates struct {
	RiderID  string            `json:"rider_id"`
	FullName string            `json:"full_name"`
	Balance  decimal.Decimal   `json:"balance"`
	Records  []EmbeddingRecord `json:"records"`
}
