package serial

import "errors"

// Open maps errno values to these so callers can use errors.Is
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrPortClosed       = errors.New("serial port is closed")
)

var (
	// ErrInvalidBaudRate is returned for rates termios has no constant for
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	// ErrInvalidConfig wraps every rejected Option
	ErrInvalidConfig = errors.New("invalid serial configuration")
)

var (
	// ErrUSBInfoNotAvailable means sysfs had no bus/device numbers for the port
	ErrUSBInfoNotAvailable = errors.New("USB device information not available")
	// ErrUSBResetNotAvailable means usbreset is not on PATH
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)
