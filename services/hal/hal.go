// services/hal/hal.go
package hal

import (
	"context"
	"log"
	"os"
	"time"

	"audiocode-go/errcode"
	"audiocode-go/services/hal/internal/halcore"
	"audiocode-go/services/hal/internal/platform"
	"audiocode-go/services/hal/internal/service"
	"audiocode-go/types"

	"golang.org/x/sync/errgroup"
)

// Re-exported so callers outside services/hal can supply their own backends.
type (
	PinFactory    = halcore.PinFactory
	SPIBusFactory = halcore.SPIBusFactory
	IRQDispatcher = halcore.IRQDispatcher
)

// Options for Run. The zero value selects the compiled-in board and the
// platform's default backends.
type Options struct {
	Setup *types.BoardConfig

	// Pins and Buses are given together or not at all.
	Pins  PinFactory
	Buses SPIBusFactory
	IRQ   IRQDispatcher

	Logger *log.Logger
	Sleep  func(time.Duration)
}

// -----------------------------------------------------------------------------
// Entry point
// -----------------------------------------------------------------------------

// Run brings the audio path up and supervises it until ctx is done. Any
// bring-up failure is returned; the caller treats it as fatal.
func Run(ctx context.Context, opts Options) error {
	cfg := platform.Selected()
	if opts.Setup != nil {
		cfg = *opts.Setup
	}
	msg := opts.Logger
	if msg == nil {
		msg = log.New(os.Stdout, "audio-hal: ", log.Lmicroseconds)
	}

	pins, buses, irq := opts.Pins, opts.Buses, opts.IRQ
	switch {
	case pins == nil && buses == nil:
		res, err := platform.Default(cfg)
		if err != nil {
			return &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.Run", Err: err}
		}
		pins, buses = res.Pins, res.Buses
		if irq == nil {
			irq = res.IRQ
		}
	case pins == nil || buses == nil:
		return &errcode.E{C: errcode.InvalidParams, Op: "hal.Run", Msg: "pins and buses must be given together"}
	}

	msg.Printf("board %s: spi %s mode %d at %d Hz", cfg.Name, cfg.SPI.ID, cfg.SPI.Mode, cfg.SPI.Hz)
	svc := service.New(cfg, pins, buses, msg, opts.Sleep)
	if irq == nil {
		return svc.Run(ctx)
	}

	// Edge delivery runs beside the service; either failing ends both.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return irq.Run(gctx) })
	g.Go(func() error { return svc.Run(gctx) })
	return g.Wait()
}
