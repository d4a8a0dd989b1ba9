package tts

import "fmt"

// ResultCodeDocs points at the engine's documented result code table.
const ResultCodeDocs = "http://yuyin.baidu.com/docs/tts/122"

// Kind classifies an Outcome.
type Kind int

const (
	// KindOK is a successful command.
	KindOK Kind = iota
	// KindValidation is bad config or text, detected before any engine call.
	KindValidation
	// KindState is a command that is illegal in the current session state.
	KindState
	// KindEngine is a nonzero result code returned by the engine.
	KindEngine
	// KindResource is a missing engine handle (never opened, or released).
	KindResource
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindEngine:
		return "engine"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Reason names the specific cause of a failed Outcome.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonInvalidConfig         Reason = "InvalidConfig"
	ReasonInvalidText           Reason = "InvalidText"
	ReasonTextTooLong           Reason = "TextTooLong"
	ReasonInvalidBatch          Reason = "InvalidBatch"
	ReasonAlreadyInitialized    Reason = "AlreadyInitialized"
	ReasonInvalidState          Reason = "InvalidState"
	ReasonBusyCannotSwitchModel Reason = "BusyCannotSwitchModel"
	ReasonNotInitialized        Reason = "NotInitialized"
	ReasonReleased              Reason = "Released"
	ReasonSessionInUse          Reason = "SessionInUse"
	ReasonEngineRejected        Reason = "EngineRejected"
)

// Outcome is the result of a session command. It is always returned as a
// value; commands never panic across the controller boundary.
type Outcome struct {
	Kind    Kind
	Reason  Reason
	Code    int    // Engine result code; 0 unless Kind is KindEngine
	Command string // Command name, e.g. "speak", "batchSpeak"
	Message string // Diagnostic message

	// Utterance is the id assigned to a successful speak or synthesize.
	Utterance string
}

// Ok returns a successful outcome for command.
func Ok(command string) Outcome {
	return Outcome{Kind: KindOK, Command: command}
}

// Failed returns a locally detected failure.
func Failed(kind Kind, reason Reason, command, message string) Outcome {
	return Outcome{Kind: kind, Reason: reason, Command: command, Message: message}
}

// Interpret maps an engine result code to an Outcome. 0 is success; every
// other value is an engine failure with the code preserved.
func Interpret(code int, command string) Outcome {
	if code == 0 {
		return Ok(command)
	}
	return Outcome{
		Kind:    KindEngine,
		Reason:  ReasonEngineRejected,
		Code:    code,
		Command: command,
		Message: fmt.Sprintf("error code: %d method: %s, see %s", code, command, ResultCodeDocs),
	}
}

// OK reports whether the command succeeded.
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// Err returns nil for a successful outcome and a *CommandError otherwise.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &CommandError{Outcome: o}
}

// String returns a short human readable form.
func (o Outcome) String() string {
	if o.OK() {
		return o.Command + ": ok"
	}
	if o.Kind == KindEngine {
		return o.Message
	}
	return fmt.Sprintf("%s: %s (%s)", o.Command, o.Reason, o.Kind)
}
