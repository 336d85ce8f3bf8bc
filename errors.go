package protoboard

import "errors"

var (
	// ErrInvalidLED is returned for LED indexes outside 0..3
	ErrInvalidLED = errors.New("protoboard: invalid LED index")

	// ErrSensorLED is returned when asked to drive LED 4, which mirrors the sensor
	ErrSensorLED = errors.New("protoboard: LED 4 follows the sensor and cannot be set")

	// ErrResetPending is returned when a reset is requested while one awaits its ACK
	ErrResetPending = errors.New("protoboard: reset already pending")

	// ErrNotConnected is returned by operations that need an open connection
	ErrNotConnected = errors.New("protoboard: not connected")

	// ErrAlreadyConnected is returned by Start on a reader that is still running
	ErrAlreadyConnected = errors.New("protoboard: already connected")

	// ErrSessionClosed is returned by Session calls after Run has returned
	ErrSessionClosed = errors.New("protoboard: session closed")

	// ErrSessionRunning is returned by a second call to Session.Run
	ErrSessionRunning = errors.New("protoboard: session already running")

	// ErrInvalidOption is returned by options given out-of-range values
	ErrInvalidOption = errors.New("protoboard: invalid option")
)
