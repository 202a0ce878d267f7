package cpu

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// IdleData is returned by reads from unmapped ports.
const IdleData = 0xFF

type (
	InFunc  func(port, high byte) (byte, error)
	OutFunc func(port, high, value byte) error
)

// Ports is a 256-entry port table implementing IO.
type Ports struct {
	mu     sync.RWMutex
	in     [256]InFunc
	out    [256]OutFunc
	resets []func()

	// Idle is returned from unmapped input ports.
	Idle byte
	// Strict turns accesses to unmapped ports into ErrIOTrapIn and
	// ErrIOTrapOut.
	Strict bool

	log logrus.FieldLogger
}

func NewPorts(log logrus.FieldLogger) *Ports {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ports{Idle: IdleData, log: log}
}

// Map installs handlers for port. Either may be nil.
func (p *Ports) Map(port byte, in InFunc, out OutFunc) {
	p.mu.Lock()
	p.in[port] = in
	p.out[port] = out
	p.mu.Unlock()
}

// Unmap removes both handlers of port.
func (p *Ports) Unmap(port byte) {
	p.Map(port, nil, nil)
}

// OnReset registers a device reset hook run by Reset.
func (p *Ports) OnReset(fn func()) {
	p.mu.Lock()
	p.resets = append(p.resets, fn)
	p.mu.Unlock()
}

// Mapped reports whether port has an input or output handler.
func (p *Ports) Mapped(port byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.in[port] != nil || p.out[port] != nil
}

func (p *Ports) In(port, high byte) (byte, error) {
	p.mu.RLock()
	fn := p.in[port]
	p.mu.RUnlock()

	if fn == nil {
		p.log.WithField("port", port).Debug("input from unmapped port")
		if p.Strict {
			return p.Idle, ErrIOTrapIn
		}
		return p.Idle, nil
	}
	return fn(port, high)
}

func (p *Ports) Out(port, high, value byte) error {
	p.mu.RLock()
	fn := p.out[port]
	p.mu.RUnlock()

	if fn == nil {
		p.log.WithFields(logrus.Fields{
			"port": port,
			"data": value,
		}).Debug("output to unmapped port")
		if p.Strict {
			return ErrIOTrapOut
		}
		return nil
	}
	return fn(port, high, value)
}

func (p *Ports) Reset() {
	p.mu.RLock()
	resets := append([]func(){}, p.resets...)
	p.mu.RUnlock()

	for _, fn := range resets {
		fn()
	}
}
