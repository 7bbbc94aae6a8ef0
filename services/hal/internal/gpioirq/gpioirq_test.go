// services/hal/internal/gpioirq/gpioirq_test.go

package gpioirq

import (
	"errors"
	"sync"
	"testing"
	"time"

	"audiocode-go/errcode"
	"audiocode-go/services/hal/internal/halcore"
)

// fakeIRQPin implements halcore.IRQPin with minimal behaviour for tests.
type fakeIRQPin struct {
	mu      sync.Mutex
	level   bool
	edge    halcore.Edge
	handler func()
	number  int
	irqErr  error
}

func (p *fakeIRQPin) ConfigureInput(_ halcore.Pull) error { return nil }
func (p *fakeIRQPin) ConfigureOutput(initial bool) error  { p.level = initial; return nil }
func (p *fakeIRQPin) Set(b bool) error                    { p.mu.Lock(); p.level = b; p.mu.Unlock(); return nil }
func (p *fakeIRQPin) Get() bool                           { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *fakeIRQPin) Number() int                         { return p.number }
func (p *fakeIRQPin) ClearIRQ() error                     { p.mu.Lock(); p.handler = nil; p.mu.Unlock(); return nil }
func (p *fakeIRQPin) SetIRQ(e halcore.Edge, h func()) error {
	if p.irqErr != nil {
		return p.irqErr
	}
	p.mu.Lock()
	p.edge, p.handler = e, h
	p.mu.Unlock()
	return nil
}
func (p *fakeIRQPin) fire() {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

// plainPin has no interrupt support.
type plainPin struct{}

func (plainPin) ConfigureInput(halcore.Pull) error { return nil }
func (plainPin) ConfigureOutput(bool) error        { return nil }
func (plainPin) Set(bool) error                    { return nil }
func (plainPin) Get() bool                         { return true }
func (plainPin) Number() int                       { return 0 }

func TestQueueCountsEveryPost(t *testing.T) {
	q := NewQueue("ready")
	if q.Take() {
		t.Fatal("Take on empty queue succeeded")
	}
	for i := 0; i < 5; i++ {
		q.Post()
	}
	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}
	got := 0
	for got < 5 {
		select {
		case <-q.Ready():
			if q.Take() {
				got++
			}
		case <-time.After(time.Second):
			t.Fatalf("stalled after %d events", got)
		}
	}
	select {
	case <-q.Ready():
		if q.Take() {
			t.Fatal("extra event")
		}
	default:
	}
	if q.Posted() != 5 || q.Taken() != 5 || q.Len() != 0 {
		t.Fatalf("posted=%d taken=%d len=%d", q.Posted(), q.Taken(), q.Len())
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	const producers, each = 8, 500
	q := NewQueue("lock")

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				q.Post()
			}
		}()
	}

	got := 0
	deadline := time.After(5 * time.Second)
	for got < producers*each {
		select {
		case <-q.Ready():
			if q.Take() {
				got++
			}
		case <-deadline:
			t.Fatalf("received %d of %d", got, producers*each)
		}
	}
	wg.Wait()
	if q.Len() != 0 {
		t.Fatalf("Len = %d after drain", q.Len())
	}
}

func TestNotifyPostsFallingEdges(t *testing.T) {
	b := NewBridge()
	pin := &fakeIRQPin{number: 23}
	q, err := b.Notify("ready", pin)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pin.edge != halcore.EdgeFalling {
		t.Fatalf("edge = %s, want falling", halcore.EdgeToString(pin.edge))
	}
	if got, ok := b.Queue("ready"); !ok || got != q {
		t.Fatal("queue not registered")
	}
	pin.fire()
	pin.fire()
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}
}

func TestWatchCallsHandler(t *testing.T) {
	b := NewBridge()
	pin := &fakeIRQPin{number: 13}
	n := 0
	if err := b.Watch("src-int", pin, func() { n++ }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	pin.fire()
	if n != 1 {
		t.Fatalf("handler ran %d times", n)
	}
	if err := b.Watch("src-int", pin, func() {}); errcode.Of(err) != errcode.IRQInstall {
		t.Fatalf("duplicate watch: %v", err)
	}
}

func TestInstallFailures(t *testing.T) {
	denied := errors.New("edge: permission denied")
	cases := []struct {
		name string
		pin  halcore.GPIOPin
	}{
		{"set irq fails", &fakeIRQPin{irqErr: denied}},
		{"no irq support", plainPin{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBridge()
			q, err := b.Notify("lock", tc.pin)
			if q != nil {
				t.Fatal("queue returned on failure")
			}
			if errcode.Of(err) != errcode.IRQInstall {
				t.Fatalf("err = %v, want irq_install", err)
			}
			if _, ok := b.Queue("lock"); ok {
				t.Fatal("failed queue registered")
			}
		})
	}
}

func TestCloseClearsHandlers(t *testing.T) {
	b := NewBridge()
	pin := &fakeIRQPin{number: 22}
	q, err := b.Notify("lock", pin)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	pin.fire()
	if q.Len() != 0 {
		t.Fatal("event delivered after Close")
	}
}
