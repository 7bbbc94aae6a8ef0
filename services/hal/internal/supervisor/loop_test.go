package supervisor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"audiocode-go/drivers/src4392"
	"audiocode-go/services/hal/internal/gpioirq"
	"audiocode-go/services/hal/internal/halcore"
	"audiocode-go/services/hal/internal/platform"
	"audiocode-go/services/hal/internal/platform/setups"
)

const ratioAddr = 0x32

// syncBuffer lets the test read log output while the loop writes it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func (s *syncBuffer) count(sub string) int { return strings.Count(s.String(), sub) }

type rig struct {
	board *platform.SimBoard
	ready *platform.FakePin
	lock  *platform.FakePin
	src   *src4392.Device
	loop  *Loop
	out   *syncBuffer

	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T) *rig {
	t.Helper()
	cfg := setups.Selected
	b := platform.NewSimBoard(cfg, nil)
	r := &rig{
		board: b,
		ready: b.Pin(cfg.Pins.Ready),
		lock:  b.Pin(cfg.Pins.Lock),
		src:   src4392.New(b.SPI, b.Pin(cfg.Pins.SRCSelect).Set),
		out:   &syncBuffer{},
		done:  make(chan error, 1),
	}
	for _, p := range []*platform.FakePin{r.ready, r.lock} {
		if err := p.ConfigureInput(halcore.PullUp); err != nil {
			t.Fatalf("ConfigureInput: %v", err)
		}
	}
	// Ratio readback of 1.5.
	b.SRC.SetReg(ratioAddr, 0x0C)
	b.SRC.SetReg(ratioAddr+1, 0x00)

	br := gpioirq.NewBridge()
	rq, err := br.Notify("ready", r.ready)
	if err != nil {
		t.Fatalf("Notify ready: %v", err)
	}
	lq, err := br.Notify("lock", r.lock)
	if err != nil {
		t.Fatalf("Notify lock: %v", err)
	}
	r.loop = New(r.src, rq, lq, log.New(r.out, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() { r.done <- r.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-r.done
		_ = br.Close()
	})
	return r
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReadyRefreshesRatio(t *testing.T) {
	r := start(t)
	r.board.SPI.Reset()

	r.ready.Pulse()
	waitFor(t, "ratio log line", func() bool { return r.out.count("src ratio: 1.5000") == 1 })

	acc := r.board.SPI.Accesses()
	if len(acc) != 2 {
		t.Fatalf("accesses = %+v, want read then write", acc)
	}
	if acc[0].Addr != ratioAddr || acc[0].Write || acc[1].Addr != ratioAddr || !acc[1].Write {
		t.Fatalf("accesses = %+v, want read then write of %#x", acc, ratioAddr)
	}
	if acc[1].Value != 0x0C00 {
		t.Fatalf("identity write changed value to %#x", acc[1].Value)
	}
	if r.board.SRC.Reg(ratioAddr) != 0x0C || r.board.SRC.Reg(ratioAddr+1) != 0 {
		t.Fatal("ratio register changed")
	}
	if st := r.loop.Stats(); st.Ready != 1 || st.Lock != 0 || st.Failures != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestLockOnlyLogs(t *testing.T) {
	r := start(t)
	r.board.SPI.Reset()

	r.lock.Pulse()
	waitFor(t, "lock line", func() bool { return r.out.count("lock received") == 1 })

	if n := len(r.board.SPI.Accesses()); n != 0 {
		t.Fatalf("%d bus accesses on lock", n)
	}
	if st := r.loop.Stats(); st.Lock != 1 || st.Ready != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestReadyAndLockBothServiced(t *testing.T) {
	r := start(t)
	r.ready.Pulse()
	r.lock.Pulse()

	waitFor(t, "both events", func() bool {
		st := r.loop.Stats()
		return st.Ready == 1 && st.Lock == 1
	})
	time.Sleep(10 * time.Millisecond)
	if st := r.loop.Stats(); st.Ready != 1 || st.Lock != 1 {
		t.Fatalf("stats = %+v, want one of each", st)
	}
}

func TestBurstIsNotCoalesced(t *testing.T) {
	r := start(t)
	const n = 50
	for i := 0; i < n; i++ {
		r.ready.Pulse()
		r.lock.Pulse()
	}
	waitFor(t, "burst", func() bool {
		st := r.loop.Stats()
		return st.Ready == n && st.Lock == n
	})
}

func TestRatioFailureKeepsLoopAlive(t *testing.T) {
	r := start(t)
	boom := errors.New("bus fault")
	r.board.SRC.Fail(ratioAddr, boom)

	r.ready.Pulse()
	waitFor(t, "failure logged", func() bool { return r.out.count("bus fault") == 1 })
	if st := r.loop.Stats(); st.Failures != 1 {
		t.Fatalf("stats = %+v", st)
	}

	r.board.SRC.Fail(ratioAddr, nil)
	r.ready.Pulse()
	waitFor(t, "second ready", func() bool { return r.out.count("src ratio: 1.5000") == 1 })

	st := r.loop.Stats()
	if st.Ready != 2 || st.Failures != 1 {
		t.Fatalf("stats = %+v", st)
	}
	select {
	case err := <-r.done:
		t.Fatalf("loop exited: %v", err)
	default:
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := start(t)
	r.cancel()
	select {
	case err := <-r.done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
		r.done <- err // for cleanup
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

// The host bus refuses transfers from inside an edge handler, which is what
// keeps the handlers above honest.
func TestBusAccessFromHandlerPanics(t *testing.T) {
	cfg := setups.Selected
	b := platform.NewSimBoard(cfg, nil)
	src := src4392.New(b.SPI, b.Pin(cfg.Pins.SRCSelect).Set)
	pin := b.Pin(cfg.Pins.Ready)
	_ = pin.ConfigureInput(halcore.PullUp)

	br := gpioirq.NewBridge()
	if err := br.Watch("ready", pin, func() { _, _ = src.RefreshRatio() }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("bus access from handler did not panic")
		}
	}()
	_ = pin.Set(false)
}
