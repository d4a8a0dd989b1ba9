// Package mock provides a scriptable engine binding for testing.
package mock

import (
	"strings"
	"sync"
	"time"

	"github.com/cienet/speakctl/tts"
)

// Binding implements tts.Binding. Result codes are scripted per command
// with SetCode and apply to every handle the binding opens.
type Binding struct {
	mu       sync.Mutex
	openCode int
	codes    map[string]int
	auto     bool
	delay    time.Duration

	opens  int
	config tts.EngineConfig
	handle *Handle
}

// Option configures a Binding.
type Option func(*Binding)

// WithAutoComplete makes opened handles emit the event sequence of a real
// engine for every accepted utterance, on a goroutine of their own.
func WithAutoComplete() Option {
	return func(b *Binding) {
		b.auto = true
	}
}

// WithDelay sets the pause between automatically emitted events.
func WithDelay(d time.Duration) Option {
	return func(b *Binding) {
		b.delay = d
	}
}

// WithOpenCode makes Open fail with code.
func WithOpenCode(code int) Option {
	return func(b *Binding) {
		b.openCode = code
	}
}

// New creates a mock binding that accepts every command.
func New(opts ...Option) *Binding {
	b := &Binding{codes: make(map[string]int)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetCode scripts the result code of command, named as in tts.CmdSpeak and
// friends. tts.CmdInitialize scripts Open.
func (b *Binding) SetCode(command string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if command == tts.CmdInitialize {
		b.openCode = code
		return
	}
	b.codes[command] = code
}

// ClearCodes resets every command to succeed.
func (b *Binding) ClearCodes() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openCode = 0
	clear(b.codes)
}

func (b *Binding) code(command string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[command]
}

// Open implements tts.Binding.
func (b *Binding) Open(config tts.EngineConfig, sink tts.Sink) (tts.Handle, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.opens++
	b.config = config
	if b.openCode != 0 {
		return nil, b.openCode
	}

	h := &Handle{
		binding: b,
		sink:    sink,
		voice:   config.Voice,
		calls:   make(map[string]int),
		kinds:   make(map[string]bool),
		auto:    b.auto,
	}
	h.cond = sync.NewCond(&h.mu)
	if b.auto {
		h.done = make(chan struct{})
		go h.run(b.delay)
	}
	b.handle = h
	return h, 0
}

// Opens returns how many times Open was called.
func (b *Binding) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

// Config returns the config passed to the last Open.
func (b *Binding) Config() tts.EngineConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config
}

// Handle returns the last handle opened, or nil.
func (b *Binding) Handle() *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

type job struct {
	gen      uint64
	id       string
	text     string
	playback bool
}

// Handle implements tts.Handle and records every call.
type Handle struct {
	binding *Binding
	sink    tts.Sink

	mu       sync.Mutex
	cond     *sync.Cond
	calls    map[string]int
	kinds    map[string]bool // utterance id -> playback
	order    []string
	voice    tts.OfflineVoice
	released bool
	gen      uint64

	// auto handles queue accepted utterances for the event goroutine.
	auto  bool
	queue []job
	done  chan struct{}
}

// call counts command and returns its scripted code.
func (h *Handle) call(command string) int {
	h.mu.Lock()
	h.calls[command]++
	h.mu.Unlock()
	return h.binding.code(command)
}

func (h *Handle) accept(id, text string, playback bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kinds[id] = playback
	h.order = append(h.order, id)
	if h.auto && !h.released {
		h.queue = append(h.queue, job{gen: h.gen, id: id, text: text, playback: playback})
		h.cond.Signal()
	}
}

// Speak implements tts.Handle.
func (h *Handle) Speak(id, text string) int {
	code := h.call(tts.CmdSpeak)
	if code == 0 {
		h.accept(id, text, true)
	}
	return code
}

// Synthesize implements tts.Handle.
func (h *Handle) Synthesize(id, text string) int {
	code := h.call(tts.CmdSynthesize)
	if code == 0 {
		h.accept(id, text, false)
	}
	return code
}

// BatchSpeak implements tts.Handle.
func (h *Handle) BatchSpeak(items []tts.BatchItem) int {
	code := h.call(tts.CmdBatchSpeak)
	if code == 0 {
		for _, item := range items {
			h.accept(item.ID, item.Text, true)
		}
	}
	return code
}

// Pause implements tts.Handle.
func (h *Handle) Pause() int {
	return h.call(tts.CmdPause)
}

// Resume implements tts.Handle.
func (h *Handle) Resume() int {
	return h.call(tts.CmdResume)
}

// Stop implements tts.Handle. Automatic events of utterances accepted before
// the stop are no longer emitted.
func (h *Handle) Stop() int {
	code := h.call(tts.CmdStop)
	if code == 0 {
		h.mu.Lock()
		h.gen++
		h.queue = nil
		h.mu.Unlock()
	}
	return code
}

// LoadModel implements tts.Handle.
func (h *Handle) LoadModel(voice tts.OfflineVoice) int {
	code := h.call(tts.CmdSwitchVoiceModel)
	if code == 0 {
		h.mu.Lock()
		h.voice = voice
		h.mu.Unlock()
	}
	return code
}

// Release implements tts.Handle. It waits for the automatic event goroutine
// to exit.
func (h *Handle) Release() int {
	code := h.call(tts.CmdRelease)

	h.mu.Lock()
	wasReleased := h.released
	h.released = true
	h.gen++
	h.queue = nil
	h.cond.Signal()
	h.mu.Unlock()

	if h.auto && !wasReleased {
		<-h.done
	}
	return code
}

// Calls returns how many times command reached the engine.
func (h *Handle) Calls(command string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[command]
}

// Voice returns the model loaded last.
func (h *Handle) Voice() tts.OfflineVoice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.voice
}

// Utterances returns the accepted utterance ids in submission order.
func (h *Handle) Utterances() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// Emit delivers ev to the sink given at Open.
func (h *Handle) Emit(ev tts.CallbackEvent) {
	h.sink.Deliver(ev)
}

// Finish emits the terminal event of utterance id: SpeechFinish for played
// utterances, SynthesizeFinish otherwise.
func (h *Handle) Finish(id string) {
	h.mu.Lock()
	playback := h.kinds[id]
	h.mu.Unlock()

	if playback {
		h.Emit(tts.NewEvent(tts.EventSpeechFinish, id))
		return
	}
	h.Emit(tts.NewEvent(tts.EventSynthesizeFinish, id))
}

// Fail emits an error event for utterance id.
func (h *Handle) Fail(id string, code int) {
	h.Emit(tts.NewErrorEvent(id, code, "mock engine failure"))
}

func (h *Handle) run(delay time.Duration) {
	defer close(h.done)
	for {
		h.mu.Lock()
		for len(h.queue) == 0 && !h.released {
			h.cond.Wait()
		}
		if h.released {
			h.mu.Unlock()
			return
		}
		j := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()

		h.complete(j, delay)
	}
}

func (h *Handle) current(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen == gen && !h.released
}

// complete emits the events of one utterance, giving up once it is stopped.
func (h *Handle) complete(j job, delay time.Duration) {
	events := []tts.CallbackEvent{
		tts.NewEvent(tts.EventSynthesizeStart, j.id),
		tts.NewDataEvent(j.id, silence(j.text), 0),
		tts.NewEvent(tts.EventSynthesizeFinish, j.id),
	}
	if j.playback {
		progress := tts.NewEvent(tts.EventSpeechProgress, j.id)
		progress.Progress = len([]rune(strings.TrimSpace(j.text)))
		events = append(events,
			tts.NewEvent(tts.EventSpeechStart, j.id),
			progress,
			tts.NewEvent(tts.EventSpeechFinish, j.id),
		)
	}

	for _, ev := range events {
		if delay > 0 {
			time.Sleep(delay)
		}
		if !h.current(j.gen) {
			return
		}
		if ev.Type == tts.EventDataArrived {
			ev.Progress = len(ev.Data)
		}
		h.sink.Deliver(ev)
	}
}

// silence returns 16-bit mono PCM silence roughly as long as text takes to
// read aloud.
func silence(text string) []byte {
	const bytesPerRune = 2 * 22050 / 15
	return make([]byte, len([]rune(text))*bytesPerRune)
}
