// Package tts drives an external speech synthesis engine through a single
// session: it opens the engine, validates and forwards commands, interprets
// result codes and relays engine callbacks in order.
package tts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Command names, as reported in Outcome.Command.
const (
	CmdInitialize       = "initialize"
	CmdSpeak            = "speak"
	CmdSynthesize       = "synthesize"
	CmdBatchSpeak       = "batchSpeak"
	CmdPause            = "pause"
	CmdResume           = "resume"
	CmdStop             = "stop"
	CmdSwitchVoiceModel = "switchVoiceModel"
	CmdRelease          = "release"
)

// Controller owns one engine handle and serializes commands against it.
//
// Command methods are meant to be called from one caller at a time. The
// controller still locks its state because the relay goroutine applies
// completion events to it.
type Controller struct {
	mu      sync.Mutex
	machine *stateMachine
	handle  Handle
	relay   *EventRelay
	config  Config
	voice   OfflineVoice
	claimed bool

	// pending maps utterance ids to whether they were submitted for playback.
	pending map[string]bool

	logger      *log.Logger
	newID       func() string
	outcomeHook func(Outcome)
	stateHook   func(from, to StateType)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator sets how utterance ids are generated when the caller does
// not supply one.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithOutcomeHook registers fn to be called with every command outcome.
func WithOutcomeHook(fn func(Outcome)) Option {
	return func(c *Controller) {
		c.outcomeHook = fn
	}
}

// WithStateHook registers fn to be called on every state change. It runs
// with the controller locked and must not call back into the controller.
func WithStateHook(fn func(from, to StateType)) Option {
	return func(c *Controller) {
		c.stateHook = fn
	}
}

// NewController creates a controller in StateUninitialized. Any number of
// controllers can exist, but only one at a time can hold an open engine.
// Most callers want the process-wide Session instead.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		machine: newStateMachine(),
		pending: make(map[string]bool),
		logger:  log.Default().WithPrefix("tts"),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.machine.onEnter = func(from, to StateType) {
		c.logger.Debug("State changed", "from", from, "to", to)
		if c.stateHook != nil {
			c.stateHook(from, to)
		}
	}
	return c
}

// Initialize validates cfg, opens the engine through binding and moves the
// session to StateReady. Events are delivered to sink in arrival order. A
// nil sink discards events.
func (c *Controller) Initialize(cfg Config, binding Binding, sink Sink) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report(c.initialize(cfg, binding, sink))
}

func (c *Controller) initialize(cfg Config, binding Binding, sink Sink) Outcome {
	switch c.machine.current {
	case StateUninitialized:
	case StateReleased:
		return Failed(KindResource, ReasonReleased, CmdInitialize, "session has been released")
	default:
		return Failed(KindState, ReasonAlreadyInitialized, CmdInitialize, "session is already initialized")
	}

	if o := Validate(cfg); !o.OK() {
		return o
	}
	if binding == nil {
		return Failed(KindValidation, ReasonInvalidConfig, CmdInitialize, "engine binding is required")
	}
	if sink == nil {
		sink = Discard
	}

	if !claimEngine() {
		return Failed(KindResource, ReasonSessionInUse, CmdInitialize, "another session holds the engine")
	}

	relay := NewRelay(SinkFunc(func(ev CallbackEvent) {
		c.apply(ev)
		sink.Deliver(ev)
	}), c.logger)

	handle, code := binding.Open(cfg.ToEngineConfig(), relay)
	if code != 0 || handle == nil {
		relay.Close()
		releaseEngine()
		if code == 0 {
			return Failed(KindResource, ReasonNotInitialized, CmdInitialize, "engine returned no handle")
		}
		return Interpret(code, CmdInitialize)
	}

	c.handle = handle
	c.relay = relay
	c.config = cfg
	c.voice = cfg.OfflineVoice
	c.claimed = true
	c.machine.transition(StateReady)

	c.logger.Info("Session initialized",
		"mode", cfg.Mode,
		"voice", cfg.OfflineVoice,
		"mix_mode", cfg.Params.MixMode)

	return Ok(CmdInitialize)
}

// Speak synthesizes and plays text as a fresh utterance with a generated id.
func (c *Controller) Speak(text string) Outcome {
	return c.SpeakUtterance("", text)
}

// SpeakUtterance is Speak with a caller-supplied utterance id. An empty id
// is replaced with a generated one.
func (c *Controller) SpeakUtterance(id, text string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		id = c.newID()
	}
	o := c.submit(CmdSpeak, StateSpeaking, ValidateText(text), func(h Handle) int {
		return h.Speak(id, text)
	}, map[string]bool{id: true})
	if o.OK() {
		o.Utterance = id
	}
	return c.report(o)
}

// Synthesize produces audio for text without playing it.
func (c *Controller) Synthesize(text string) Outcome {
	return c.SynthesizeUtterance("", text)
}

// SynthesizeUtterance is Synthesize with a caller-supplied utterance id.
func (c *Controller) SynthesizeUtterance(id, text string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		id = c.newID()
	}
	o := c.submit(CmdSynthesize, StateSynthesizing, ValidateText(text), func(h Handle) int {
		return h.Synthesize(id, text)
	}, map[string]bool{id: false})
	if o.OK() {
		o.Utterance = id
	}
	return c.report(o)
}

// BatchSpeak queues items for playback in list order. The engine accepts
// or rejects the batch as a whole.
func (c *Controller) BatchSpeak(items []BatchItem) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make(map[string]bool, len(items))
	for _, item := range items {
		ids[item.ID] = true
	}
	batch := append([]BatchItem(nil), items...)

	return c.report(c.submit(CmdBatchSpeak, StateSpeaking, ValidateBatch(batch), func(h Handle) int {
		return h.BatchSpeak(batch)
	}, ids))
}

// submit runs the checks shared by speak, synthesize and batchSpeak, calls
// the engine and, on success, records ids as pending and moves to target.
func (c *Controller) submit(command string, target StateType, invalid error, call func(Handle) int, ids map[string]bool) Outcome {
	if o, ok := c.available(command); !ok {
		return o
	}
	if state := c.machine.current; !state.CanSubmit() {
		return Failed(KindState, ReasonInvalidState, command,
			fmt.Sprintf("cannot %s while %s", command, state))
	}
	if invalid != nil {
		return textFailure(command, invalid)
	}

	o := Interpret(call(c.handle), command)
	if !o.OK() {
		return o
	}
	for id, playback := range ids {
		c.pending[id] = playback
	}
	c.machine.transition(target)
	return o
}

// Pause pauses playback. Only valid while speaking.
func (c *Controller) Pause() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o, ok := c.available(CmdPause); !ok {
		return c.report(o)
	}
	if state := c.machine.current; !state.CanPause() {
		return c.report(Failed(KindState, ReasonInvalidState, CmdPause,
			fmt.Sprintf("cannot pause while %s", state)))
	}

	o := Interpret(c.handle.Pause(), CmdPause)
	if o.OK() {
		c.machine.transition(StatePaused)
	}
	return c.report(o)
}

// Resume resumes paused playback.
func (c *Controller) Resume() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o, ok := c.available(CmdResume); !ok {
		return c.report(o)
	}
	if state := c.machine.current; !state.CanResume() {
		return c.report(Failed(KindState, ReasonInvalidState, CmdResume,
			fmt.Sprintf("cannot resume while %s", state)))
	}

	o := Interpret(c.handle.Resume(), CmdResume)
	if o.OK() {
		c.machine.transition(StateSpeaking)
	}
	return c.report(o)
}

// Stop cancels playback and synthesis and clears the engine queue. The
// outcome reports whether the engine accepted the request; audio already
// delivered is not recalled.
func (c *Controller) Stop() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o, ok := c.available(CmdStop); !ok {
		return c.report(o)
	}

	o := Interpret(c.handle.Stop(), CmdStop)
	if o.OK() {
		clear(c.pending)
		c.machine.transition(StateReady)
	}
	return c.report(o)
}

// SwitchVoiceModel toggles the offline voice between male and female. It is
// refused locally unless the session is idle.
func (c *Controller) SwitchVoiceModel() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o, ok := c.available(CmdSwitchVoiceModel); !ok {
		return c.report(o)
	}
	if state := c.machine.current; !state.CanSwitchModel() {
		return c.report(Failed(KindState, ReasonBusyCannotSwitchModel, CmdSwitchVoiceModel,
			fmt.Sprintf("cannot switch voice model while %s", state)))
	}

	next := c.voice.Toggle()
	o := Interpret(c.handle.LoadModel(next), CmdSwitchVoiceModel)
	if o.OK() {
		c.logger.Info("Voice model switched", "from", c.voice, "to", next, "model", next.SpeechModel())
		c.voice = next
	}
	return c.report(o)
}

// Release releases the engine handle. The session always ends up in
// StateReleased, even when the engine reports a failure. Events the engine
// emitted before releasing are still delivered; Done is closed after that.
func (c *Controller) Release() Outcome {
	c.mu.Lock()
	if c.machine.current == StateReleased {
		defer c.mu.Unlock()
		return c.report(Failed(KindResource, ReasonReleased, CmdRelease, "session has been released"))
	}

	handle, relay, claimed := c.handle, c.relay, c.claimed
	c.handle = nil
	c.claimed = false
	clear(c.pending)
	c.machine.force(StateReleased)
	c.mu.Unlock()

	// The engine is released without the lock held so that events it emits
	// on the way out can still be applied by the relay.
	o := Ok(CmdRelease)
	if handle != nil {
		o = Interpret(handle.Release(), CmdRelease)
	}
	if claimed {
		releaseEngine()
	}
	if relay != nil {
		relay.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report(o)
}

// State returns the current session state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.current
}

// Voice returns the currently loaded offline voice.
func (c *Controller) Voice() OfflineVoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voice
}

// Config returns the active configuration, and false before Initialize.
func (c *Controller) Config() (Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.relay == nil {
		return Config{}, false
	}
	return c.config, true
}

// Pending returns the number of submitted utterances not yet finished.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Done is closed once the session has been released and every event has
// been delivered. Before Initialize it returns a closed channel.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.relay == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.relay.Done()
}

// apply updates the session from an engine event. It runs on the relay
// goroutine before the event reaches the caller's sink.
func (c *Controller) apply(ev CallbackEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	playback, ok := c.pending[ev.Utterance]
	if !ok {
		return
	}

	switch {
	case ev.Type == EventError:
		c.logger.Error("Engine reported error",
			"utterance", ev.Utterance, "code", ev.Code, "message", ev.Message, "docs", ResultCodeDocs)
	case ev.Type == EventSpeechFinish && playback:
	case ev.Type == EventSynthesizeFinish && !playback:
	default:
		return
	}

	delete(c.pending, ev.Utterance)
	if len(c.pending) == 0 && c.machine.current.IsActive() {
		c.machine.transition(StateReady)
	}
}

// available fails commands that need an open engine handle.
func (c *Controller) available(command string) (Outcome, bool) {
	switch c.machine.current {
	case StateUninitialized:
		return Failed(KindResource, ReasonNotInitialized, command, "session is not initialized"), false
	case StateReleased:
		return Failed(KindResource, ReasonReleased, command, "session has been released"), false
	}
	return Outcome{}, true
}

// report logs an outcome and passes it to the outcome hook.
func (c *Controller) report(o Outcome) Outcome {
	switch o.Kind {
	case KindOK:
		c.logger.Debug("Command accepted", "command", o.Command, "utterance", o.Utterance)
	case KindEngine:
		c.logger.Error("Engine call failed", "code", o.Code, "method", o.Command, "docs", ResultCodeDocs)
	default:
		c.logger.Warn("Command rejected",
			"command", o.Command, "kind", o.Kind, "reason", o.Reason, "message", o.Message)
	}
	if c.outcomeHook != nil {
		c.outcomeHook(o)
	}
	return o
}

func textFailure(command string, err error) Outcome {
	reason := ReasonInvalidText
	switch {
	case errors.Is(err, ErrInvalidBatch):
		reason = ReasonInvalidBatch
	case errors.Is(err, ErrTextTooLong):
		reason = ReasonTextTooLong
	}
	return Failed(KindValidation, reason, command, err.Error())
}
