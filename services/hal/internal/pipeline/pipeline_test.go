package pipeline

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"audiocode-go/drivers/ad1955"
	"audiocode-go/drivers/src4392"
	"audiocode-go/errcode"
	"audiocode-go/services/hal/internal/halerr"
	"audiocode-go/services/hal/internal/platform"
	"audiocode-go/services/hal/internal/platform/setups"
)

type gate bool

func (g gate) Ready() bool { return bool(g) }

func newRig(t *testing.T) (*platform.SimBoard, *Pipeline, *bytes.Buffer) {
	t.Helper()
	cfg := setups.Selected
	b := platform.NewSimBoard(cfg, nil)
	src := src4392.New(b.SPI, b.Pin(cfg.Pins.SRCSelect).Set)
	dac := ad1955.New(b.SPI, b.Pin(cfg.Pins.DACSelect).Set)
	var out bytes.Buffer
	return b, New(src, dac, cfg.Audio, log.New(&out, "", 0)), &out
}

func TestStepOrder(t *testing.T) {
	_, p, _ := newRig(t)
	want := []string{"dac-control", "src-input-port", "src-rate-converter", "src-output-port", "src-power-up"}
	got := p.Steps()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("steps = %v, want %v", got, want)
	}
}

func TestRunConfiguresBothChips(t *testing.T) {
	b, p, out := newRig(t)
	if err := p.Run(gate(true)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.Completed() != 5 {
		t.Fatalf("completed = %d", p.Completed())
	}
	if got := b.DAC.Word(2); got != ad1955.VolumeMax {
		t.Fatalf("volume left = %#x", got)
	}
	if got := b.DAC.Word(3); got != ad1955.VolumeMax {
		t.Fatalf("volume right = %#x", got)
	}
	// Every power-down bit released (active low) and soft reset cleared.
	if got := b.SRC.Reg(0x01); got != 0x3F {
		t.Fatalf("power register = %#02x, want 0x3f", got)
	}
	for _, a := range b.SPI.Accesses() {
		if a.Err != nil {
			t.Fatalf("unexpected failed access %+v", a)
		}
	}
	if n := strings.Count(out.String(), "configured "); n != 5 {
		t.Fatalf("log has %d step lines:\n%s", n, out.String())
	}
}

func TestRunRefusesBeforeReset(t *testing.T) {
	b, p, _ := newRig(t)
	if err := p.Run(gate(false)); !errors.Is(err, halerr.ErrNotReset) {
		t.Fatalf("err = %v, want ErrNotReset", err)
	}
	if err := p.Run(nil); !errors.Is(err, halerr.ErrNotReset) {
		t.Fatalf("nil gate: err = %v", err)
	}
	if n := len(b.SPI.Accesses()); n != 0 {
		t.Fatalf("%d bus accesses before reset", n)
	}
}

func TestFaultStopsPipeline(t *testing.T) {
	boom := errors.New("bus fault")
	cases := []struct {
		index int
		name  string
		fault func(*platform.SimBoard)
	}{
		{1, "dac-control", func(b *platform.SimBoard) { b.DAC.Fail(0, boom) }},
		{2, "src-input-port", func(b *platform.SimBoard) { b.SRC.Fail(0x05, boom) }},
		{3, "src-rate-converter", func(b *platform.SimBoard) { b.SRC.Fail(0x2D, boom) }},
		{4, "src-output-port", func(b *platform.SimBoard) { b.SRC.Fail(0x03, boom) }},
		{5, "src-power-up", func(b *platform.SimBoard) { b.SRC.Fail(0x01, boom) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, p, _ := newRig(t)
			tc.fault(b)

			err := p.Run(gate(true))
			var se *StepError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StepError", err)
			}
			if se.Index != tc.index || se.Name != tc.name {
				t.Fatalf("failed at %d %s, want %d %s", se.Index, se.Name, tc.index, tc.name)
			}
			if !errors.Is(err, boom) {
				t.Fatalf("cause lost: %v", err)
			}
			if errcode.Of(err) != errcode.Transaction {
				t.Fatalf("code = %s", errcode.Of(err))
			}
			if p.Completed() != tc.index-1 {
				t.Fatalf("completed = %d, want %d", p.Completed(), tc.index-1)
			}

			// The faulting access is the last one on the bus.
			acc := b.SPI.Accesses()
			if len(acc) == 0 || acc[len(acc)-1].Err == nil {
				t.Fatalf("last access did not fail: %+v", acc)
			}
			for _, a := range acc[:len(acc)-1] {
				if a.Err != nil {
					t.Fatalf("earlier access failed: %+v", a)
				}
			}
		})
	}
}

func TestRunOnce(t *testing.T) {
	_, p, _ := newRig(t)
	if err := p.Run(gate(true)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := p.Run(gate(true)); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Run = %v", err)
	}
}

func TestFailedRunIsNotRetried(t *testing.T) {
	b, p, _ := newRig(t)
	b.DAC.Fail(0, errors.New("bus fault"))
	var se *StepError
	if err := p.Run(gate(true)); !errors.As(err, &se) || se.Index != 1 {
		t.Fatalf("first Run = %v", err)
	}

	b.DAC.Fail(0, nil)
	b.SPI.Reset()
	if err := p.Run(gate(true)); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Run = %v", err)
	}
	if n := len(b.SPI.Accesses()); n != 0 {
		t.Fatalf("%d accesses on a refused run", n)
	}
	if p.Completed() != 0 {
		t.Fatalf("completed = %d", p.Completed())
	}
}
