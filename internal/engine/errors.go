package engine

import "errors"

// Sentinel errors returned by the redaction engine. Messages are generic by
// design: no fragment of the processed text is ever included.
var (
	// ErrInvalidInput indicates empty text or an unusable request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates an unusable pattern configuration.
	ErrConfig = errors.New("configuration error")

	// ErrNlpUnavailable indicates the NLP facility could not be initialized.
	ErrNlpUnavailable = errors.New("nlp unavailable")

	// ErrInternal indicates an unclassified failure; the whole request fails
	// and no partial redaction is returned.
	ErrInternal = errors.New("internal error")
)

// Classify maps an engine error to its kind label for logs and metrics.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConfig):
		return "config_error"
	case errors.Is(err, ErrNlpUnavailable):
		return "nlp_unavailable"
	default:
		return "internal_error"
	}
}
