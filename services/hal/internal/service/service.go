// services/hal/internal/service/service.go
package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"audiocode-go/drivers/ad1955"
	"audiocode-go/drivers/regio"
	"audiocode-go/drivers/src4392"
	"audiocode-go/errcode"
	"audiocode-go/services/hal/internal/gpioirq"
	"audiocode-go/services/hal/internal/halcore"
	"audiocode-go/services/hal/internal/halerr"
	"audiocode-go/services/hal/internal/pipeline"
	"audiocode-go/services/hal/internal/reset"
	"audiocode-go/services/hal/internal/supervisor"

	"audiocode-go/types"
)

// Service brings the audio path up and then supervises it.
type Service struct {
	cfg   types.BoardConfig
	pins  halcore.PinFactory
	buses halcore.SPIBusFactory
	msg   *log.Logger
	sleep func(time.Duration)

	lines map[string]halcore.GPIOPin // role -> pin

	bus    *regio.Exclusive
	src    *src4392.Device
	dac    *ad1955.Device
	seq    *reset.Sequencer
	bridge *gpioirq.Bridge
	loop   *supervisor.Loop
}

// New captures the resources; nothing is touched until Bringup. A nil sleep
// means time.Sleep.
func New(cfg types.BoardConfig, pins halcore.PinFactory, buses halcore.SPIBusFactory, msg *log.Logger, sleep func(time.Duration)) *Service {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	return &Service{
		cfg:    cfg,
		pins:   pins,
		buses:  buses,
		msg:    msg,
		sleep:  sleep,
		lines:  map[string]halcore.GPIOPin{},
		bridge: gpioirq.NewBridge(),
	}
}

// Run performs Bringup and then serves events until ctx is done. Bring-up
// failures are returned unchanged.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Bringup(); err != nil {
		return err
	}
	defer s.bridge.Close()
	return s.loop.Run(ctx)
}

// Bringup acquires every line and the bus, pulses reset, programs both chips
// and installs the interrupt handlers, in that order.
func (s *Service) Bringup() error {
	if err := s.cfg.Validate(); err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "validate " + s.cfg.Name, Err: err}
	}
	if err := s.acquire(); err != nil {
		return err
	}
	s.msg.Printf("resources acquired on %s", s.cfg.SPI.ID)

	s.seq = reset.New([]reset.Line{
		{Name: "src-reset", Set: s.lines["src-reset"].Set},
		{Name: "dac-reset", Set: s.lines["dac-reset"].Set},
	}, s.cfg.Reset, s.sleep)
	if err := s.seq.Run(); err != nil {
		return err
	}
	s.msg.Printf("reset complete")

	p := pipeline.New(s.src, s.dac, s.cfg.Audio, s.msg)
	if err := p.Run(s.seq); err != nil {
		return err
	}

	if err := s.install(); err != nil {
		_ = s.bridge.Close()
		return err
	}
	s.msg.Printf("audio path configured")
	return nil
}

func (s *Service) acquire() error {
	for _, np := range s.cfg.Pins.Named() {
		p, ok := s.pins.ByNumber(np.Num)
		if !ok {
			return &errcode.E{C: errcode.ResourceUnavailable, Op: "acquire " + np.Role,
				Err: fmt.Errorf("gpio %d: %w", np.Num, halerr.ErrUnknownPin)}
		}
		var err error
		switch np.Role {
		case "src-int", "lock", "ready":
			err = p.ConfigureInput(halcore.PullUp)
		default:
			// Chip-selects deselected, reset lines released.
			err = p.ConfigureOutput(true)
		}
		if err != nil {
			return &errcode.E{C: errcode.ResourceUnavailable, Op: "configure " + np.Role, Err: err}
		}
		s.lines[np.Role] = p
	}

	raw, ok := s.buses.ByID(s.cfg.SPI.ID)
	if !ok {
		err := fmt.Errorf("spi %q: %w", s.cfg.SPI.ID, halerr.ErrUnknownBus)
		if le, ok := s.buses.(interface{ LastError() error }); ok && le.LastError() != nil {
			err = fmt.Errorf("spi %q: %w", s.cfg.SPI.ID, le.LastError())
		}
		return &errcode.E{C: errcode.ResourceUnavailable, Op: "acquire spi", Err: err}
	}
	s.bus = regio.NewExclusive(raw)
	s.src = src4392.New(s.bus, s.lines["src-cs"].Set)
	s.dac = ad1955.New(s.bus, s.lines["dac-cs"].Set)
	return nil
}

func (s *Service) install() error {
	msg := s.msg
	if err := s.bridge.Watch("src-int", s.lines["src-int"], func() { msg.Printf("src interrupt") }); err != nil {
		return err
	}
	ready, err := s.bridge.Notify("ready", s.lines["ready"])
	if err != nil {
		return err
	}
	lock, err := s.bridge.Notify("lock", s.lines["lock"])
	if err != nil {
		return err
	}
	s.loop = supervisor.New(s.src, ready, lock, s.msg)
	return nil
}

// Stats returns the supervisory counters; zero before Bringup completes.
func (s *Service) Stats() supervisor.Stats {
	if s.loop == nil {
		return supervisor.Stats{}
	}
	return s.loop.Stats()
}

// Transactions is the number of bus transfers issued so far.
func (s *Service) Transactions() uint64 {
	if s.bus == nil {
		return 0
	}
	return s.bus.Transactions()
}
