package broadcast

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyAttached is returned by OnAttach while a Session exists.
	ErrAlreadyAttached = errors.New("broadcast session already initiated")

	// ErrNotAttached is returned by commands that need a Session.
	ErrNotAttached = errors.New("no broadcast session attached")

	// ErrPreviewPending is returned when a preview request is already in flight.
	ErrPreviewPending = errors.New("camera preview request already pending")

	// ErrContractViolation marks a broken engine callback contract. It is only
	// ever raised as a panic value.
	ErrContractViolation = errors.New("engine callback contract violated")
)

// ConfigurationError reports an invalid video or audio configuration. The
// previous configuration stays in effect.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s config: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InitiationError reports that the engine failed to initiate.
type InitiationError struct {
	Err error
}

func (e *InitiationError) Error() string {
	return fmt.Sprintf("initiate broadcast session: %v", e.Err)
}

func (e *InitiationError) Unwrap() error { return e.Err }

// MissingCredentialsError reports a Start without ingest endpoint or stream key.
type MissingCredentialsError struct {
	MissingEndpoint   bool
	MissingCredential bool
}

func (e *MissingCredentialsError) Error() string {
	var missing []string
	if e.MissingEndpoint {
		missing = append(missing, "endpoint URL")
	}
	if e.MissingCredential {
		missing = append(missing, "stream key")
	}
	return "start broadcast: missing " + strings.Join(missing, " and ")
}

// PreviewAcquisitionError reports that the engine could not produce a preview.
type PreviewAcquisitionError struct {
	Err error
}

func (e *PreviewAcquisitionError) Error() string {
	return fmt.Sprintf("acquire camera preview: %v", e.Err)
}

func (e *PreviewAcquisitionError) Unwrap() error { return e.Err }

// CameraSwapError reports a failed camera swap. State is unchanged.
type CameraSwapError struct {
	Err error
}

func (e *CameraSwapError) Error() string {
	return fmt.Sprintf("swap camera: %v", e.Err)
}

func (e *CameraSwapError) Unwrap() error { return e.Err }

// StartError reports that the engine rejected Start.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start broadcast: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// InvalidStateError reports a command issued in a state that does not allow it.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// errorClass names the error for metrics labels.
func errorClass(err error) string {
	var (
		cfgErr     *ConfigurationError
		initErr    *InitiationError
		credErr    *MissingCredentialsError
		previewErr *PreviewAcquisitionError
		swapErr    *CameraSwapError
		startErr   *StartError
		stateErr   *InvalidStateError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &initErr):
		return "initiation"
	case errors.As(err, &credErr):
		return "missing_credentials"
	case errors.As(err, &previewErr):
		return "preview_acquisition"
	case errors.As(err, &swapErr):
		return "camera_swap"
	case errors.As(err, &startErr):
		return "start"
	case errors.As(err, &stateErr):
		return "invalid_state"
	default:
		return "other"
	}
}
