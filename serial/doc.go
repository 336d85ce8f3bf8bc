// Package serial is the Linux serial transport used by protoboard.
//
// It wraps termios and the modem-control ioctls from golang.org/x/sys/unix
// behind a small Port interface, and adds the pieces a microcontroller host
// needs on top of raw I/O: polling the kernel input queue, pulsing the DTR/RTS
// lines that are wired to the board's EN/BOOT pins, sniffing the boot banner
// that follows such a pulse, and finding candidate ports.
//
// # Opening a port
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(115200),
//	    serial.WithReadTimeout(100*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.InputWaiting() // bytes queued by the driver
//
// Open maps the common failures to sentinel errors so callers can use
// errors.Is:
//
//	ErrDeviceNotFound   // no such device
//	ErrPermissionDenied // not in the dialout group
//	ErrDeviceInUse      // another process holds the port
//
// # Hardware reset
//
// ESP32-style boards reset when DTR drops while RTS is raised. PulseReset does
// this on a fresh connection:
//
//	err := serial.PulseReset("/dev/ttyUSB0", 115200, 50*time.Millisecond)
//
// # Port discovery
//
// Two listers are available. SysfsLister walks /dev and /sys and works
// without cgo; EnumeratorLister uses go.bug.st/serial/enumerator and reports
// the same USB descriptors on every platform that library supports.
//
//	ports, err := serial.SysfsLister{}.Ports()
//	for _, p := range ports {
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n", p.Path, p.Description, p.VendorID, p.ProductID)
//	}
//
// # Default configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 100ms
package serial
