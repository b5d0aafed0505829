package rag

import "errors"

// Error kinds surfaced by the pipeline. Controllers translate these to HTTP
// statuses; everything else is passed through as-is.
var (
	// ErrUnsupportedFormat means the file extension has no loader. User error,
	// nothing was sent to the embedding or index services.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrIndexUnavailable means the embedding service or the vector index could
	// not complete a call. Transient; the caller may retry the whole upload.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrSynthesisUnavailable means the language model call failed. Transient;
	// the caller may retry the query. Not retried here.
	ErrSynthesisUnavailable = errors.New("answer synthesis unavailable")
)
