package vm

import (
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/op"
)

// StepMode selects which instructions are reported to Observer.OnStep.
type StepMode uint8

const (
	StepAll     StepMode = iota // every instruction
	StepNone                    // calls and returns only
	StepSampled                 // every SampleInterval-th instruction
	StepOnLine                  // first instruction of each new source line
)

// ObserverConfig is returned by Observer.Config at the start of each
// Execute.
type ObserverConfig struct {
	StepMode       StepMode
	SampleInterval int
	ObserveCalls   bool
	ObserveReturns bool
}

// NewObserverConfig returns a config for mode with call and return events
// enabled and a sample interval of 1000.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

func (c ObserverConfig) normalized() ObserverConfig {
	if c.SampleInterval < 1 {
		c.SampleInterval = 1
	}
	return c
}

// Observer is told about instructions, calls and returns as the VM runs a
// script. Callbacks run on the executing goroutine. A callback returning
// false stops the script, and Execute returns ErrHalted.
type Observer interface {
	Config() ObserverConfig
	OnStep(event StepEvent) bool
	OnCall(event CallEvent) bool
	OnReturn(event ReturnEvent) bool
}

// StepEvent is reported before an instruction executes.
type StepEvent struct {
	IP         int
	Opcode     op.Code
	OpcodeName string
	Function   string
	Location   bytecode.SourceLocation
	FrameDepth int
}

// CallEvent is reported when a closure or a native is invoked, including
// through new. Location is the call site in the caller.
type CallEvent struct {
	FunctionName string
	ArgCount     int
	Native       bool
	Location     bytecode.SourceLocation
	FrameDepth   int
}

// ReturnEvent is reported after a closure's frame is popped. The root
// program produces one too.
type ReturnEvent struct {
	FunctionName string
	Location     bytecode.SourceLocation
	FrameDepth   int
}

// NoOpObserver accepts every event. Embed it to implement only some of
// the callbacks.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig    { return NewObserverConfig(StepAll) }
func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }
