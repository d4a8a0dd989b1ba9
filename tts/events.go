package tts

import "time"

// EventType identifies an engine callback.
type EventType string

const (
	// EventSynthesizeStart is emitted when synthesis of an utterance begins.
	EventSynthesizeStart EventType = "synthesize_start"
	// EventDataArrived carries a chunk of synthesized audio.
	EventDataArrived EventType = "data_arrived"
	// EventSynthesizeFinish is emitted when all audio of an utterance is ready.
	EventSynthesizeFinish EventType = "synthesize_finish"
	// EventSpeechStart is emitted when playback of an utterance begins.
	EventSpeechStart EventType = "speech_start"
	// EventSpeechProgress reports playback progress in characters.
	EventSpeechProgress EventType = "speech_progress"
	// EventSpeechFinish is emitted when playback of an utterance ends.
	EventSpeechFinish EventType = "speech_finish"
	// EventError reports an engine failure for an utterance.
	EventError EventType = "error"
)

// CallbackEvent is an engine-originated notification.
type CallbackEvent struct {
	Seq       uint64    `json:"seq"`                 // Arrival order, assigned by the relay
	Type      EventType `json:"type"`
	Utterance string    `json:"utterance,omitempty"` // Originating utterance id
	Data      []byte    `json:"data,omitempty"`      // Audio for EventDataArrived
	Progress  int       `json:"progress,omitempty"`  // Audio bytes or characters so far
	Code      int       `json:"code,omitempty"`      // Engine code for EventError
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// NewEvent creates an event for an utterance.
func NewEvent(typ EventType, utterance string) CallbackEvent {
	return CallbackEvent{Type: typ, Utterance: utterance, At: time.Now()}
}

// NewDataEvent creates an EventDataArrived carrying audio.
func NewDataEvent(utterance string, data []byte, progress int) CallbackEvent {
	ev := NewEvent(EventDataArrived, utterance)
	ev.Data = data
	ev.Progress = progress
	return ev
}

// NewErrorEvent creates an EventError with an engine code.
func NewErrorEvent(utterance string, code int, message string) CallbackEvent {
	ev := NewEvent(EventError, utterance)
	ev.Code = code
	ev.Message = message
	return ev
}

// Sink receives relayed events.
type Sink interface {
	Deliver(ev CallbackEvent)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev CallbackEvent)

// Deliver calls f(ev).
func (f SinkFunc) Deliver(ev CallbackEvent) {
	f(ev)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(CallbackEvent) {})
