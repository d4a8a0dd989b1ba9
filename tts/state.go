package tts

// StateType represents the current state of a synthesis session.
type StateType int

const (
	// StateUninitialized indicates no engine handle has been opened yet.
	StateUninitialized StateType = iota
	// StateReady indicates the engine is open and idle.
	StateReady
	// StateSpeaking indicates utterances are being synthesized and played.
	StateSpeaking
	// StateSynthesizing indicates utterances are being synthesized without playback.
	StateSynthesizing
	// StatePaused indicates playback has been paused.
	StatePaused
	// StateReleased indicates the engine handle has been released. Terminal.
	StateReleased
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateSpeaking:
		return "speaking"
	case StateSynthesizing:
		return "synthesizing"
	case StatePaused:
		return "paused"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// IsActive returns true if the engine is working on submitted text.
func (s StateType) IsActive() bool {
	return s == StateSpeaking || s == StateSynthesizing || s == StatePaused
}

// CanSubmit returns true if a fresh utterance may be submitted.
func (s StateType) CanSubmit() bool {
	return s == StateReady || s == StatePaused
}

// CanPause returns true if playback can be paused.
func (s StateType) CanPause() bool {
	return s == StateSpeaking
}

// CanResume returns true if playback can be resumed.
func (s StateType) CanResume() bool {
	return s == StatePaused
}

// CanSwitchModel returns true if the offline voice model may be swapped.
func (s StateType) CanSwitchModel() bool {
	return s == StateReady
}

// stateMachine holds the legal transitions of a session.
type stateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     func(from, to StateType)
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		current: StateUninitialized,
		transitions: map[StateType][]StateType{
			StateUninitialized: {StateReady, StateReleased},
			StateReady:         {StateReady, StateSpeaking, StateSynthesizing, StateReleased},
			StateSpeaking:      {StateReady, StatePaused, StateReleased},
			StateSynthesizing:  {StateReady, StateReleased},
			StatePaused:        {StateSpeaking, StateSynthesizing, StateReady, StateReleased},
			StateReleased:      {},
		},
	}
}

// transition moves to the given state if the transition is legal.
func (sm *stateMachine) transition(to StateType) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	from := sm.current
	sm.current = to
	if sm.onEnter != nil && from != to {
		sm.onEnter(from, to)
	}
	return true
}

// force moves to the given state regardless of the transition table.
// Release uses it since it must always end in StateReleased.
func (sm *stateMachine) force(to StateType) {
	from := sm.current
	sm.current = to
	if sm.onEnter != nil && from != to {
		sm.onEnter(from, to)
	}
}
