// pkg/microwave/errors.go
package microwave

import "errors"

// Failure kinds every Source implementation reports. Drivers wrap these
// with %w so callers can classify failures with errors.Is regardless of
// the device-specific detail in the message.
var (
	// ErrTransportUnavailable indicates the transport could not be opened
	// or is no longer open.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrInvalidArgument indicates a malformed argument (empty list,
	// unsorted frequencies, unknown trigger edge).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange indicates a value outside the model's Limits. The
	// offending command is never sent to hardware.
	ErrOutOfRange = errors.New("out of range")

	// ErrDeviceTimeout indicates the device did not confirm a state
	// change within the poll budget.
	ErrDeviceTimeout = errors.New("device timeout")
)
