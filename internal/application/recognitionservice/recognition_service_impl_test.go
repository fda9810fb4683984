package recognitionservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/internal/facematch"
	"github.com/campustransit/farebeacon/pkg/config"
	"github.com/campustransit/farebeacon/pkg/logger"
)

type fakeExtractor struct {
	detections []models.FaceDetection
	calls      int
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) ([]models.FaceDetection, error) {
	f.calls++
	return f.detections, nil
}

type fakeTemplateStore struct {
	templates []models.RiderTemplates
}

func (f *fakeTemplateStore) Create(ctx context.Context, rider *models.Rider) error { return nil }
func (f *fakeTemplateStore) GetByID(ctx context.Context, id string) (*models.Rider, error) {
	return nil, models.ErrRiderNotFound
}
func (f *fakeTemplateStore) Credit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeTemplateStore) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}
func (f *fakeTemplateStore) AppendEmbedding(ctx context.Context, record *models.EmbeddingRecord) error {
	return nil
}
func (f *fakeTemplateStore) RetireEmbedding(ctx context.Context, riderID, recordID string) error {
	return nil
}
func (f *fakeTemplateStore) CountActiveEmbeddings(ctx context.Context, riderID string) (int, error) {
	return 0, nil
}
func (f *fakeTemplateStore) AllTemplates(ctx context.Context) ([]models.RiderTemplates, error) {
	return f.templates, nil
}

type fakeSettlement struct {
	result *models.SettlementResult
	calls  []string
}

func (f *fakeSettlement) Settle(ctx context.Context, riderID, riderName string) (*models.SettlementResult, error) {
	f.calls = append(f.calls, riderID)
	return f.result, nil
}

func scanFrame(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func template(id, name string, embedding []float64) models.RiderTemplates {
	return models.RiderTemplates{
		RiderID:  id,
		FullName: name,
		Balance:  decimal.NewFromInt(50),
		Records: []models.EmbeddingRecord{{
			ID:       id + "-rec",
			RiderID:  id,
			Angle:    models.AngleCenter,
			Encoding: facematch.EncodeEmbedding(embedding),
		}},
	}
}

func probeDetection(embedding []float64) []models.FaceDetection {
	return []models.FaceDetection{{
		Box:       models.BoundingBox{Top: 10, Left: 10, Width: 60, Height: 60},
		Embedding: embedding,
	}}
}

func testConfig() config.RecognitionConfig {
	return config.RecognitionConfig{
		MatchThreshold:  0.6,
		RequiredAngles:  5,
		FareAmount:      "20",
		DuplicateWindow: 30 * time.Minute,
		MinResolution:   100,
		MinFaceSize:     50,
	}
}

func TestRecognizeApproved(t *testing.T) {
	extractor := &fakeExtractor{detections: probeDetection([]float64{1, 0})}
	store := &fakeTemplateStore{templates: []models.RiderTemplates{
		template("r1", "Asha", []float64{1, 0}),
	}}
	tx := &models.Transaction{ID: "t1", RiderID: "r1", Status: models.StatusApproved}
	settlement := &fakeSettlement{result: &models.SettlementResult{
		Outcome:     models.OutcomeApproved,
		Transaction: tx,
		Balance:     decimal.NewFromInt(30),
	}}

	svc := New(store, extractor, settlement, testConfig(), logger.New())

	resp, err := svc.Recognize(context.Background(), &models.RecognitionRequest{Image: scanFrame(t)})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}

	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.Rider != "Asha" {
		t.Errorf("rider = %q, want Asha", resp.Rider)
	}
	if resp.Confidence == nil || *resp.Confidence != 100 {
		t.Errorf("confidence = %v, want 100", resp.Confidence)
	}
	if resp.Balance == nil || !resp.Balance.Equal(decimal.NewFromInt(30)) {
		t.Errorf("balance = %v, want 30", resp.Balance)
	}
	if !strings.Contains(resp.Message, "Payment successful") {
		t.Errorf("message = %q", resp.Message)
	}
	if !resp.Continue {
		t.Error("definitive outcomes still keep the scanner running")
	}
	if len(settlement.calls) != 1 || settlement.calls[0] != "r1" {
		t.Errorf("settlement calls = %v, want [r1]", settlement.calls)
	}
}

func TestRecognizeDuplicateSuppressed(t *testing.T) {
	extractor := &fakeExtractor{detections: probeDetection([]float64{1, 0})}
	store := &fakeTemplateStore{templates: []models.RiderTemplates{
		template("r1", "Asha", []float64{1, 0}),
	}}
	prior := time.Now().Add(-5 * time.Minute)
	settlement := &fakeSettlement{result: &models.SettlementResult{
		Outcome:        models.OutcomeDuplicate,
		Balance:        decimal.NewFromInt(30),
		PriorTimestamp: &prior,
	}}

	svc := New(store, extractor, settlement, testConfig(), logger.New())

	resp, err := svc.Recognize(context.Background(), &models.RecognitionRequest{Image: scanFrame(t)})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}

	if resp.Status != "info" {
		t.Errorf("status = %q, want info", resp.Status)
	}
	if !strings.Contains(resp.Message, "Already checked in within the last 30 minutes") {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.LastCheckIn == nil || !resp.LastCheckIn.Equal(prior) {
		t.Errorf("last check-in = %v, want %v", resp.LastCheckIn, prior)
	}
}

func TestRecognizeDeclined(t *testing.T) {
	extractor := &fakeExtractor{detections: probeDetection([]float64{1, 0})}
	store := &fakeTemplateStore{templates: []models.RiderTemplates{
		template("r1", "Asha", []float64{1, 0}),
	}}
	settlement := &fakeSettlement{result: &models.SettlementResult{
		Outcome: models.OutcomeDeclined,
		Transaction: &models.Transaction{
			ID: "t1", RiderID: "r1", Status: models.StatusDeclined,
		},
		Balance: decimal.NewFromInt(5),
	}}

	svc := New(store, extractor, settlement, testConfig(), logger.New())

	resp, err := svc.Recognize(context.Background(), &models.RecognitionRequest{Image: scanFrame(t)})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}

	if resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
	if !strings.Contains(resp.Message, "Insufficient balance for Asha") {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Balance == nil || !resp.Balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance = %v, want unchanged 5", resp.Balance)
	}
}

func TestRecognizeBelowThreshold(t *testing.T) {
	// Nearest stored embedding sits at distance 0.75: no match, no charge,
	// but the closest confidence still comes back for diagnosis.
	extractor := &fakeExtractor{detections: probeDetection([]float64{1, 0})}
	store := &fakeTemplateStore{templates: []models.RiderTemplates{
		template("r1", "Asha", []float64{1.75, 0}),
	}}
	settlement := &fakeSettlement{}

	svc := New(store, extractor, settlement, testConfig(), logger.New())

	resp, err := svc.Recognize(context.Background(), &models.RecognitionRequest{Image: scanFrame(t)})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}

	if resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
	if resp.Confidence == nil || *resp.Confidence < 24.9 || *resp.Confidence > 25.1 {
		t.Errorf("confidence = %v, want ~25", resp.Confidence)
	}
	if !resp.Continue {
		t.Error("no-match must keep the scanner running")
	}
	if len(settlement.calls) != 0 {
		t.Errorf("no-match must not settle, got calls %v", settlement.calls)
	}
}

func TestRecognizeNoEnrolledRiders(t *testing.T) {
	extractor := &fakeExtractor{detections: probeDetection([]float64{1, 0})}
	svc := New(&fakeTemplateStore{}, extractor, &fakeSettlement{}, testConfig(), logger.New())

	resp, err := svc.Recognize(context.Background(), &models.RecognitionRequest{Image: scanFrame(t)})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if resp.Status != "error" || !strings.Contains(resp.Message, "No enrolled riders") {
		t.Errorf("response = %q %q", resp.Status, resp.Message)
	}
}

func TestRecognizeQualityRejections(t *testing.T) {
	tests := []struct {
		name       string
		image      string
		detections []models.FaceDetection
		wantInMsg  string
		wantCalls  int
	}{
		{
			name:      "undecodable frame",
			image:     "definitely not an image",
			wantInMsg: "Could not decode",
			wantCalls: 0,
		},
		{
			name:       "no face in frame",
			image:      "",
			detections: nil,
			wantInMsg:  "No face detected",
			wantCalls:  1,
		},
		{
			name:  "multiple faces",
			image: "",
			detections: append(
				probeDetection([]float64{1, 0}),
				probeDetection([]float64{0, 1})...,
			),
			wantInMsg: "Multiple faces",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &fakeExtractor{detections: tt.detections}
			settlement := &fakeSettlement{}
			svc := New(&fakeTemplateStore{}, extractor, settlement, testConfig(), logger.New())

			image := tt.image
			if image == "" {
				image = scanFrame(t)
			}

			resp, err := svc.Recognize(context.Background(), &models.RecognitionRequest{Image: image})
			if err != nil {
				t.Fatalf("recognize failed: %v", err)
			}
			if resp.Status != "error" || !resp.Continue {
				t.Errorf("status=%q continue=%v, want retryable error", resp.Status, resp.Continue)
			}
			if !strings.Contains(resp.Message, tt.wantInMsg) {
				t.Errorf("message = %q, want substring %q", resp.Message, tt.wantInMsg)
			}
			if extractor.calls != tt.wantCalls {
				t.Errorf("extractor calls = %d, want %d", extractor.calls, tt.wantCalls)
			}
			if len(settlement.calls) != 0 {
				t.Errorf("quality rejection must not settle, got %v", settlement.calls)
			}
		})
	}
}
