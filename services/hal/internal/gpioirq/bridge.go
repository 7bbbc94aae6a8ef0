// services/hal/internal/gpioirq/bridge.go
package gpioirq

import (
	"sync"

	"audiocode-go/errcode"
	"audiocode-go/services/hal/internal/halcore"
)

// Bridge installs falling-edge handlers on active-low interrupt lines and
// remembers them so they can be removed again.
//
// Handlers run on the platform's notification context (an ISR, the poll
// goroutine or a test's Set call). They must only post events; bus access
// stays with the consumer.
type Bridge struct {
	mu      sync.Mutex
	watches map[string]halcore.IRQPin
	queues  map[string]*Queue
}

func NewBridge() *Bridge {
	return &Bridge{
		watches: map[string]halcore.IRQPin{},
		queues:  map[string]*Queue{},
	}
}

// Watch calls handler on every falling edge of pin. handler must not block.
func (b *Bridge) Watch(name string, pin halcore.GPIOPin, handler func()) error {
	irq, ok := pin.(halcore.IRQPin)
	if !ok {
		return &errcode.E{C: errcode.IRQInstall, Op: "watch " + name, Msg: "pin has no interrupt support"}
	}
	b.mu.Lock()
	_, dup := b.watches[name]
	b.mu.Unlock()
	if dup {
		return &errcode.E{C: errcode.IRQInstall, Op: "watch " + name, Msg: "already watched"}
	}
	if err := irq.SetIRQ(halcore.EdgeFalling, handler); err != nil {
		return &errcode.E{C: errcode.IRQInstall, Op: "watch " + name, Err: err}
	}
	b.mu.Lock()
	b.watches[name] = irq
	b.mu.Unlock()
	return nil
}

// Notify watches pin and returns the queue its falling edges are posted to.
func (b *Bridge) Notify(name string, pin halcore.GPIOPin) (*Queue, error) {
	q := NewQueue(name)
	if err := b.Watch(name, pin, q.Post); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.queues[name] = q
	b.mu.Unlock()
	return q, nil
}

// Queue returns the queue created by Notify for name.
func (b *Bridge) Queue(name string) (*Queue, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	return q, ok
}

// Close removes every installed handler.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for name, p := range b.watches {
		if err := p.ClearIRQ(); err != nil && first == nil {
			first = errcode.Wrap(errcode.IRQInstall, "clear "+name, err)
		}
		delete(b.watches, name)
		delete(b.queues, name)
	}
	return first
}
