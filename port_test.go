package protoboard

import (
	"errors"
	"sync"

	"github.com/allbin/protoboard/serial"
)

// fakePort is an in-memory Port fed by the test
type fakePort struct {
	mu      sync.Mutex
	in      []byte
	out     []string
	readErr error
	closed  bool
	pulses  int
}

func (p *fakePort) feed(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in = append(p.in, s...)
}

func (p *fakePort) failReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}

func (p *fakePort) written() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.out...)
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePort) InputWaiting() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, serial.ErrPortClosed
	}
	if p.readErr != nil {
		return 0, p.readErr
	}
	return len(p.in), nil
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, serial.ErrPortClosed
	}
	n := copy(buf, p.in)
	p.in = p.in[n:]
	return n, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, serial.ErrPortClosed
	}
	p.out = append(p.out, string(data))
	return len(data), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return serial.ErrPortClosed
	}
	p.closed = true
	return nil
}

func (p *fakePort) SetDTR(bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pulses++
	return nil
}

func (p *fakePort) SetRTS(bool) error { return nil }

// fakeOpener hands out ports by path
type fakeOpener struct {
	mu    sync.Mutex
	ports map[string]*fakePort
	opens int
}

func newFakeOpener(paths ...string) *fakeOpener {
	o := &fakeOpener{ports: make(map[string]*fakePort)}
	for _, p := range paths {
		o.ports[p] = &fakePort{}
	}
	return o
}

func (o *fakeOpener) open(path string, baud int) (Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.ports[path]
	if !ok {
		return nil, serial.ErrDeviceNotFound
	}
	if p.isClosed() {
		// Reopen after Close
		p = &fakePort{}
		o.ports[path] = p
	}
	o.opens++
	return p, nil
}

func (o *fakeOpener) port(path string) *fakePort {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ports[path]
}

var errUnplugged = errors.New("device unplugged")
