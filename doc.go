// Package protoboard talks to a microcontroller "protoboard" (four LEDs, three
// push buttons and an IR proximity sensor on channel 4) over a newline
// delimited text protocol on a serial line.
//
// # Pipeline
//
// Bytes flow in one direction:
//
//	LineReader -> Classify -> Reconciler -> subscribers
//
// A LineReader owns the serial handle and publishes decoded lines on a single
// bounded channel. Classify turns each line into an Event. The Reconciler
// applies events to a DeviceState, appends to the History and reports the
// notices a user should see. A Session ties the three together behind a single
// goroutine so that device state is never touched from two places at once.
//
// # Protocol
//
// Device to host:
//
//	BTN:<1-4>             button pressed (4 is the sensor channel)
//	ACK:LED:<1-4>:<0|1>   LED state acknowledged (4 is the sensor channel)
//	ACK:RESET             counter reset acknowledged
//	SENSOR:<v>, PROX:<v>  sensor edge, v is 0/1, ON/OFF or TRUE/FALSE
//
// Host to device:
//
//	LED:<1-3>:<0|1>
//	RESET
//
// Anything else from the device is kept as an opaque history line.
//
// # Reset
//
// A counter reset is optimistic: the local counter drops to zero at once and
// RESET is sent. If ACK:RESET does not arrive within the reset timeout
// (1500ms by default) the board is reset through its DTR/RTS lines instead and
// a NoticeResetFallback is published.
//
// # Discovery
//
// Discovery periodically lists serial ports and picks the first one that
// looks like an ESP32 dev board, either from its USB descriptors or from a
// boot banner seen after pulsing the reset lines.
package protoboard
