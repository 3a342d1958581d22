package output

import (
	"errors"
	"fmt"
)

// Sink errors.
var (
	// ErrDeviceUnavailable indicates the target device is not owned or has
	// been unplugged.
	ErrDeviceUnavailable = errors.New("output: device unavailable")

	// ErrWriteRejected indicates the device rejected an otherwise valid
	// write.
	ErrWriteRejected = errors.New("output: write rejected")

	// ErrInvalidTarget indicates the axis/button/hat index does not exist
	// on the target device.
	ErrInvalidTarget = errors.New("output: invalid target")
)

// DeviceError wraps a sink failure with the device and operation that
// produced it. The dispatch layer treats any DeviceError as a signal to
// auto-pause the runtime.
type DeviceError struct {
	Device VJoyDeviceID
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("output: vjoy %d %s: %v", e.Device, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError wraps err with device and operation context.
func NewDeviceError(device VJoyDeviceID, op string, err error) *DeviceError {
	return &DeviceError{Device: device, Op: op, Err: err}
}

// ParseError indicates an unknown serialized tag for an output type.
type ParseError struct {
	Kind  string
	Value string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("output: unknown %s %q", e.Kind, e.Value)
}
