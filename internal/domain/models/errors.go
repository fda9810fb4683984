package models

import "errors"

// Capture and extraction errors. All are recoverable: handlers surface them
// with a human-readable message and a retry hint, never as process failures.
var (
	ErrUndecodable   = errors.New("image could not be decoded")
	ErrLowResolution = errors.New("image resolution too low")
	ErrNoFace        = errors.New("no face detected")
	ErrMultipleFaces = errors.New("multiple faces detected")
	ErrFaceTooSmall  = errors.New("face too small in image")
	ErrNoEmbedding   = errors.New("could not extract facial features")
)

// Stored-record errors. Both cause the offending record to be skipped
// during a match scan, never an aborted scan.
var (
	ErrMalformedRecord    = errors.New("stored embedding could not be decoded")
	ErrIncompatibleSchema = errors.New("stored embedding length does not match probe")
)

var (
	ErrRiderNotFound  = errors.New("rider not found")
	ErrRecordNotFound = errors.New("embedding record not found")
	ErrBusNotFound    = errors.New("bus not found")
	ErrDriverNotFound = errors.New("driver not found")
)
