package relay

import "errors"

// Failure kinds for the generate operation. Each maps to a distinct
// HTTP status so clients can tell a rejected request from a provider
// that answered with nothing usable.
var (
	// ErrMissingPrompt is returned when the prompt is empty after
	// trimming. No provider call is made.
	ErrMissingPrompt = errors.New("missing prompt")

	// ErrEmptyResponse is returned when the provider produced no
	// candidate at all.
	ErrEmptyResponse = errors.New("empty response from model")
)

// NoImageError is returned when the provider responded but none of the
// candidate's parts carried image data. Text holds the accumulated
// text-only reply so the client can still display it.
type NoImageError struct {
	Text string
}

func (e *NoImageError) Error() string {
	return "model produced no image"
}
