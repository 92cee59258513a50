package voice

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a component failure.
type ErrorKind int

const (
	// ManagerMissing means no manager is registered for the component id.
	ManagerMissing ErrorKind = iota + 1
	// CreationFailure means Create panicked or returned a bundle with Err set.
	CreationFailure
	// ConnectionFailure means a chain link or a modulation edge was refused.
	ConnectionFailure
	// ModulationTargetUnresolved means a modulator's output or target does
	// not resolve to a live parameter.
	ModulationTargetUnresolved
	// FatalTerminalStageFailure means the terminal stage is unusable and the
	// build was abandoned.
	FatalTerminalStageFailure
)

var (
	// ErrManagerMissing matches ManagerMissing errors.
	ErrManagerMissing = errors.New("manager missing")
	// ErrCreationFailure matches CreationFailure errors.
	ErrCreationFailure = errors.New("creation failed")
	// ErrConnectionFailure matches ConnectionFailure errors.
	ErrConnectionFailure = errors.New("connection failed")
	// ErrModulationTargetUnresolved matches ModulationTargetUnresolved errors.
	ErrModulationTargetUnresolved = errors.New("modulation target unresolved")
	// ErrTerminalStage matches FatalTerminalStageFailure errors and is
	// returned by VoiceGraph.ConnectTo when the voice has no output.
	ErrTerminalStage = errors.New("terminal stage failed")
)

func (k ErrorKind) String() string {
	switch k {
	case ManagerMissing:
		return "manager missing"
	case CreationFailure:
		return "creation failure"
	case ConnectionFailure:
		return "connection failure"
	case ModulationTargetUnresolved:
		return "modulation target unresolved"
	case FatalTerminalStageFailure:
		return "fatal terminal stage failure"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case ManagerMissing:
		return ErrManagerMissing
	case CreationFailure:
		return ErrCreationFailure
	case ConnectionFailure:
		return ErrConnectionFailure
	case ModulationTargetUnresolved:
		return ErrModulationTargetUnresolved
	case FatalTerminalStageFailure:
		return ErrTerminalStage
	}
	return nil
}

// ComponentError is the typed failure recorded for one component.
// errors.Is matches both the kind's sentinel and the wrapped cause.
type ComponentError struct {
	Component string
	Kind      ErrorKind
	Err       error
}

func (e *ComponentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("voice: %s: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("voice: %s: %s: %v", e.Component, e.Kind, e.Err)
}

func (e *ComponentError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func componentErr(id string, kind ErrorKind, cause error) *ComponentError {
	return &ComponentError{Component: id, Kind: kind, Err: cause}
}

func componentErrf(id string, kind ErrorKind, format string, args ...any) *ComponentError {
	return componentErr(id, kind, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first ComponentError in err's tree.
func KindOf(err error) (ErrorKind, bool) {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
