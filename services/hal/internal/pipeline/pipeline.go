// Package pipeline programs both chips in dependency order: the DAC first,
// then the SRC input port, rate converter and output port, and finally the
// SRC power-up that starts the clocks.
package pipeline

import (
	"fmt"
	"log"

	"audiocode-go/drivers/ad1955"
	"audiocode-go/drivers/src4392"
	"audiocode-go/errcode"
	"audiocode-go/services/hal/internal/halerr"
	"audiocode-go/types"
)

// Step is one named configuration write.
type Step struct {
	Name string
	Run  func() error
}

// StepError reports the step that stopped the pipeline.
type StepError struct {
	Index int // 1-based
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("configure step %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error      { return e.Err }
func (e *StepError) Code() errcode.Code { return errcode.Transaction }

// Gate reports whether register access is allowed yet.
type Gate interface {
	Ready() bool
}

type Pipeline struct {
	steps []Step
	done  int
	ran   bool
	msg   *log.Logger
}

// New builds the fixed step list for cfg.
func New(src *src4392.Device, dac *ad1955.Device, cfg types.AudioConfig, msg *log.Logger) *Pipeline {
	in, out := cfg.InputPort, cfg.OutputPort()
	return &Pipeline{
		msg: msg,
		steps: []Step{
			{"dac-control", func() error { return dac.Configure(cfg.DAC) }},
			{"src-input-port", func() error { return src.ConfigurePort(in, cfg.SRCInput) }},
			{"src-rate-converter", func() error { return src.ConfigureSRC(cfg.SRCRate) }},
			{"src-output-port", func() error { return src.ConfigurePort(out, cfg.SRCOutput) }},
			{"src-power-up", src.PowerUp},
		},
	}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Completed is the number of steps that succeeded.
func (p *Pipeline) Completed() int { return p.done }

// Run executes every step once. It refuses to start before the reset cycle
// completed, and stops at the first failing step. A pipeline that started
// never runs again, whether or not it finished.
func (p *Pipeline) Run(gate Gate) error {
	if gate == nil || !gate.Ready() {
		return halerr.ErrNotReset
	}
	if p.ran {
		return &errcode.E{C: errcode.Busy, Op: "configure", Msg: "pipeline already ran"}
	}
	p.ran = true
	for i, s := range p.steps {
		if err := s.Run(); err != nil {
			return &StepError{Index: i + 1, Name: s.Name, Err: err}
		}
		p.done++
		if p.msg != nil {
			p.msg.Printf("configured %s", s.Name)
		}
	}
	return nil
}
