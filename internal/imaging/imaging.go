// Package imaging handles capture payloads: base64 decoding, alpha
// flattening before extraction, and the face quality gates shared by
// enrollment and recognition.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

// Frame is a decoded capture ready for extraction.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Decode turns a base64 payload, optionally carrying a data-URI header,
// into a Frame. Four-channel images are flattened to three channels before
// they reach the extractor.
func Decode(payload string) (*Frame, error) {
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Join(models.ErrUndecodable, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(models.ErrUndecodable, err)
	}

	bounds := img.Bounds()
	frame := &Frame{
		Data:   data,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	// PNG captures may carry an alpha channel the extractor cannot take.
	if format == "png" {
		flat, err := flatten(img)
		if err != nil {
			return nil, errors.Join(models.ErrUndecodable, err)
		}
		frame.Data = flat
	}

	return frame, nil
}

// flatten composites the image over white and re-encodes it as JPEG,
// dropping any alpha channel.
func flatten(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: 92}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CheckResolution rejects frames below the minimum pixel threshold on
// either axis.
func CheckResolution(frame *Frame, minResolution int) error {
	if frame.Width < minResolution || frame.Height < minResolution {
		return models.ErrLowResolution
	}
	return nil
}

// ScreenDetections applies the shared face gates: exactly one face, its
// bounding box at least minFace pixels on both axes, and a non-empty
// embedding. On success the single detection is returned.
func ScreenDetections(detections []models.FaceDetection, minFace int) (*models.FaceDetection, error) {
	switch {
	case len(detections) == 0:
		return nil, models.ErrNoFace
	case len(detections) > 1:
		return nil, models.ErrMultipleFaces
	}

	det := detections[0]
	if det.Box.Width < minFace || det.Box.Height < minFace {
		return nil, models.ErrFaceTooSmall
	}
	if len(det.Embedding) == 0 {
		return nil, models.ErrNoEmbedding
	}
	return &det, nil
}

// QualityGrade labels a capture by the face-to-image area ratio. The score
// is the ratio as a percentage; the label is informational and never
// rejects a capture.
func QualityGrade(box models.BoundingBox, frame *Frame) (string, float64) {
	imageArea := frame.Width * frame.Height
	if imageArea == 0 {
		return "Poor", 0
	}
	score := float64(box.Width*box.Height) / float64(imageArea) * 100

	switch {
	case score > 15:
		return "Excellent", score
	case score > 10:
		return "Good", score
	case score > 5:
		return "Fair", score
	default:
		return "Poor", score
	}
}
