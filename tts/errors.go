package tts

import (
	"errors"
	"fmt"
)

// Error kinds. A *CommandError matches the sentinel of its Kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrState      = errors.New("command not allowed in current state")
	ErrEngine     = errors.New("engine rejected command")
	ErrResource   = errors.New("engine handle unavailable")
)

// Error reasons. A *CommandError also matches the sentinel of its Reason.
var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrInvalidText           = errors.New("invalid text")
	ErrTextTooLong           = errors.New("text exceeds engine limit")
	ErrInvalidBatch          = errors.New("invalid batch")
	ErrAlreadyInitialized    = errors.New("session already initialized")
	ErrInvalidState          = errors.New("invalid state for operation")
	ErrBusyCannotSwitchModel = errors.New("engine busy, cannot switch voice model")
	ErrNotInitialized        = errors.New("session not initialized")
	ErrReleased              = errors.New("session has been released")
	ErrSessionInUse          = errors.New("another session holds the engine")
	ErrEngineRejected        = errors.New("engine returned nonzero result code")
)

var kindErrors = map[Kind]error{
	KindValidation: ErrValidation,
	KindState:      ErrState,
	KindEngine:     ErrEngine,
	KindResource:   ErrResource,
}

var reasonErrors = map[Reason]error{
	ReasonInvalidConfig:         ErrInvalidConfig,
	ReasonInvalidText:           ErrInvalidText,
	ReasonTextTooLong:           ErrTextTooLong,
	ReasonInvalidBatch:          ErrInvalidBatch,
	ReasonAlreadyInitialized:    ErrAlreadyInitialized,
	ReasonInvalidState:          ErrInvalidState,
	ReasonBusyCannotSwitchModel: ErrBusyCannotSwitchModel,
	ReasonNotInitialized:        ErrNotInitialized,
	ReasonReleased:              ErrReleased,
	ReasonSessionInUse:          ErrSessionInUse,
	ReasonEngineRejected:        ErrEngineRejected,
}

// CommandError is the error form of a failed Outcome.
type CommandError struct {
	Outcome Outcome
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Outcome.Kind == KindEngine {
		return e.Outcome.Message
	}
	if e.Outcome.Message != "" {
		return fmt.Sprintf("%s: %s", e.Outcome.Command, e.Outcome.Message)
	}
	return fmt.Sprintf("%s: %s", e.Outcome.Command, e.Outcome.Reason)
}

// Is reports whether target is the sentinel of this error's kind or reason.
func (e *CommandError) Is(target error) bool {
	if kindErr, ok := kindErrors[e.Outcome.Kind]; ok && kindErr == target {
		return true
	}
	if reasonErr, ok := reasonErrors[e.Outcome.Reason]; ok && reasonErr == target {
		return true
	}
	return false
}

// Code returns the engine result code, or 0 for locally detected failures.
func (e *CommandError) Code() int {
	return e.Outcome.Code
}
