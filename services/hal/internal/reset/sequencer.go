// Package reset drives the chips' active-low reset lines through a timed
// pulse before any register access is allowed.
package reset

import (
	"time"

	"audiocode-go/errcode"
	"audiocode-go/types"
)

// State of the sequencer.
type State uint8

const (
	Idle State = iota
	Asserting
	Holding
	Releasing
	Settling
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Asserting:
		return "asserting"
	case Holding:
		return "holding"
	case Releasing:
		return "releasing"
	case Settling:
		return "settling"
	case Ready:
		return "ready"
	default:
		return "failed"
	}
}

// Line is one reset output.
type Line struct {
	Name string
	Set  func(level bool) error
}

// Sequencer owns the reset lines for one pulse.
type Sequencer struct {
	lines  []Line
	timing types.ResetTiming
	sleep  func(time.Duration)
	state  State

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)
}

// New returns an Idle sequencer. sleep defaults to time.Sleep.
func New(lines []Line, timing types.ResetTiming, sleep func(time.Duration)) *Sequencer {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Sequencer{lines: lines, timing: timing, sleep: sleep}
}

func (s *Sequencer) State() State { return s.state }

// Ready reports whether the pulse completed.
func (s *Sequencer) Ready() bool { return s.state == Ready }

// Run performs Idle -> Asserting -> Holding -> Releasing -> Settling -> Ready.
// A line that cannot be driven stops the sequence in Failed; there is no
// retry.
func (s *Sequencer) Run() error {
	if s.state != Idle {
		return &errcode.E{C: errcode.ResetFailed, Op: "reset", Msg: "sequencer already ran (" + s.state.String() + ")"}
	}
	if s.timing.Idle > 0 {
		s.sleep(s.timing.Idle)
	}

	s.to(Asserting)
	if err := s.drive(false); err != nil {
		return err
	}
	s.to(Holding)
	s.sleep(s.timing.Assert)

	s.to(Releasing)
	if err := s.drive(true); err != nil {
		return err
	}
	s.to(Settling)
	s.sleep(s.timing.Settle)

	s.to(Ready)
	return nil
}

func (s *Sequencer) drive(level bool) error {
	for _, l := range s.lines {
		if err := l.Set(level); err != nil {
			s.to(Failed)
			op := "release " + l.Name
			if !level {
				op = "assert " + l.Name
			}
			return &errcode.E{C: errcode.ResetFailed, Op: op, Err: err}
		}
	}
	return nil
}

func (s *Sequencer) to(next State) {
	prev := s.state
	s.state = next
	if s.OnTransition != nil {
		s.OnTransition(prev, next)
	}
}
