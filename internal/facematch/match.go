package facematch

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

// RankedRider is one rider's candidate distance: the minimum over all of
// that rider's templates, never an average. A rider is represented by its
// closest embedding.
type RankedRider struct {
	RiderID  string
	FullName string
	Balance  decimal.Decimal
	Distance float64
	// RecordID identifies the template that produced the minimum.
	RecordID string
}

// SkippedRecord reports a stored template that could not be compared.
// Skips are per-record; they never abort the scan.
type SkippedRecord struct {
	RiderID  string
	RecordID string
	Err      error
}

// Report is the outcome of one full scan: riders ranked ascending by
// candidate distance, plus every record that had to be skipped.
type Report struct {
	Ranked     []RankedRider
	Skipped    []SkippedRecord
	Considered int
}

// Best returns the global minimum, or nil when no rider had a usable
// template.
func (r *Report) Best() *RankedRider {
	if len(r.Ranked) == 0 {
		return nil
	}
	return &r.Ranked[0]
}

// Distance is the Euclidean distance between two equal-length vectors.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Confidence converts a distance to the percentage reported to users,
// (1 - distance) x 100, floored at zero. It is diagnostic only and plays
// no part in the accept decision.
func Confidence(distance float64) float64 {
	c := (1 - distance) * 100
	if c < 0 {
		return 0
	}
	return c
}

// Scan ranks every rider by candidate distance against the probe. A stored
// vector that fails to decode is skipped with ErrMalformedRecord; one whose
// length differs from the probe's is skipped with ErrIncompatibleSchema
// rather than reinterpreted. A scan that skips everything yields an empty
// ranking.
func Scan(probe []float64, riders []models.RiderTemplates) *Report {
	report := &Report{}

	for _, rider := range riders {
		best := math.Inf(1)
		bestRecord := ""

		for _, rec := range rider.Records {
			v, err := DecodeEmbedding(rec.Encoding)
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedRecord{
					RiderID:  rider.RiderID,
					RecordID: rec.ID,
					Err:      errors.Join(models.ErrMalformedRecord, err),
				})
				continue
			}
			if len(v) != len(probe) {
				report.Skipped = append(report.Skipped, SkippedRecord{
					RiderID:  rider.RiderID,
					RecordID: rec.ID,
					Err:      models.ErrIncompatibleSchema,
				})
				continue
			}

			report.Considered++
			if d := Distance(probe, v); d < best {
				best = d
				bestRecord = rec.ID
			}
		}

		if math.IsInf(best, 1) {
			continue
		}
		report.Ranked = append(report.Ranked, RankedRider{
			RiderID:  rider.RiderID,
			FullName: rider.FullName,
			Balance:  rider.Balance,
			Distance: best,
			RecordID: bestRecord,
		})
	}

	sort.Slice(report.Ranked, func(i, j int) bool {
		return report.Ranked[i].Distance < report.Ranked[j].Distance
	})

	return report
}

// Match runs a scan and applies the acceptance threshold. The result is nil
// when no rider has a usable template or the best distance exceeds the
// threshold; the report is returned either way so callers can surface the
// nearest confidence on a rejection.
func Match(probe []float64, riders []models.RiderTemplates, threshold float64) (*models.MatchResult, *Report) {
	report := Scan(probe, riders)

	best := report.Best()
	if best == nil || best.Distance > threshold {
		return nil, report
	}

	return &models.MatchResult{
		RiderID:    best.RiderID,
		FullName:   best.FullName,
		Distance:   best.Distance,
		Confidence: Confidence(best.Distance),
		Balance:    best.Balance,
	}, report
}
