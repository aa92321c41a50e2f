// Package apperr defines the sentinel error taxonomy shared across the service.
package apperr

import "errors"

// Sentinel errors classify failures so the HTTP layer can map them to the
// correct status code with errors.Is, mirroring the way the teacher's
// repository package exposes ErrNotFound.
var (
	// ErrNotReady indicates the service has not finished loading its
	// resources yet. Maps to 503.
	ErrNotReady = errors.New("paperfind: service not ready")

	// ErrBadRequest indicates a malformed or missing request field.
	// Maps to 400.
	ErrBadRequest = errors.New("paperfind: bad request")

	// ErrTextTooLong indicates the query tokenizes to more terms than the
	// sparse encoder can accept. Maps to 400.
	ErrTextTooLong = errors.New("paperfind: query text too long")

	// ErrUpstreamUnavailable indicates a downstream dependency (embedding
	// vendor, LLM vendor, object storage) failed or timed out. Maps to a
	// generic 500; callers should not leak vendor detail to clients.
	ErrUpstreamUnavailable = errors.New("paperfind: upstream service unavailable")

	// ErrIndexCorruption indicates a fetched index artifact failed
	// integrity validation. Only raised by the resource loader, which
	// treats it as fatal.
	ErrIndexCorruption = errors.New("paperfind: index artifact failed integrity check")

	// ErrExtractionFailed indicates a single document's structured
	// extraction could not be completed. Non-fatal: the caller records a
	// nil slot for that document and continues the batch.
	ErrExtractionFailed = errors.New("paperfind: document extraction failed")
)
