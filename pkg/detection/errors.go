package detection

import "errors"

var (
	// ErrNoModel is returned when no model path is configured.
	ErrNoModel = errors.New("detection: model path required")

	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrUnknownFormat is returned for an unsupported output layout.
	ErrUnknownFormat = errors.New("detection: unknown model output format")

	// ErrUnexpectedOutput is returned when the network output shape is wrong.
	ErrUnexpectedOutput = errors.New("detection: unexpected output shape")

	// ErrEmptyImage is returned when the input image has no pixels.
	ErrEmptyImage = errors.New("detection: empty image")
)
