package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Concrete error types below match
// them through errors.Is so callers never need a type switch.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrFetch                 = errors.New("fetch failed")
	ErrNotAnImage            = errors.New("url does not point to a valid image")
	ErrTranscriptUnavailable = errors.New("could not fetch YouTube transcript")
	ErrGenerationService     = errors.New("generation service error")
	ErrNoImage               = errors.New("image generation returned no image")
)

// InvalidInputError reports a submission with an unknown variant or a missing field
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// FetchError reports a failed remote retrieval (network error or non-2xx status)
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status: %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
}

func (e *FetchError) Unwrap() error        { return e.Err }
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// NotAnImageError reports a successful response whose content type is not image/*
type NotAnImageError struct {
	URL         string
	ContentType string
}

func (e *NotAnImageError) Error() string {
	return fmt.Sprintf("%s: content type %q is not an image", e.URL, e.ContentType)
}

func (e *NotAnImageError) Is(target error) bool { return target == ErrNotAnImage }

// TranscriptUnavailableError reports that captions could not be retrieved.
// It is all-or-nothing: no partial transcript accompanies it.
type TranscriptUnavailableError struct {
	URL string
	Err error
}

func (e *TranscriptUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not fetch YouTube transcript for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("could not fetch YouTube transcript for %s", e.URL)
}

func (e *TranscriptUnavailableError) Unwrap() error { return e.Err }
func (e *TranscriptUnavailableError) Is(target error) bool {
	return target == ErrTranscriptUnavailable
}

// GenerationServiceError wraps any failure of the narrative or image service:
// network, quota, malformed output or schema violation.
type GenerationServiceError struct {
	Op  string
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationServiceError) Unwrap() error        { return e.Err }
func (e *GenerationServiceError) Is(target error) bool { return target == ErrGenerationService }
