// Package local provides an offline engine binding that synthesizes with a
// piper process and plays audio through the system output.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/cienet/speakctl/tts"
)

// Result codes returned by the local engine.
const (
	CodeModeUnsupported = -201 // Online mode needs the remote service
	CodeModelMissing    = -202 // Voice model file not found
	CodeBusy            = -203 // Model switch while utterances are queued
	CodeNotSpeaking     = -204 // Pause without active playback
	CodeNotPaused       = -205 // Resume without paused playback
	CodeSynthesisFailed = -206 // Reported in error events
	CodePlaybackFailed  = -207 // Reported in error events
	CodeReleased        = -208 // Handle already released
	CodeAudioDevice     = -209 // Output device could not be opened
)

// DefaultSampleRate is the output rate of medium quality piper voices.
const DefaultSampleRate = 22050

// Config configures the local engine.
type Config struct {
	Binary      string `yaml:"binary"`       // piper executable
	MaleModel   string `yaml:"male_model"`   // onnx model used for the male voice
	FemaleModel string `yaml:"female_model"` // onnx model used for the female voice
	SampleRate  int    `yaml:"sample_rate"`
	ChunkSize   int    `yaml:"chunk_size"` // bytes per data event
}

// DefaultConfig returns the local engine defaults.
func DefaultConfig() Config {
	return Config{
		Binary:     "piper",
		SampleRate: DefaultSampleRate,
		ChunkSize:  8192,
	}
}

// Request is one synthesis job.
type Request struct {
	Text        string
	Model       string
	Speaker     int
	LengthScale float64
}

// Synthesizer turns text into 16-bit mono PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Player plays PCM. Play blocks until playback ends or ctx is done, calling
// progress with the number of bytes played so far.
type Player interface {
	Play(ctx context.Context, pcm []byte, volume float64, progress func(played int)) error
	Pause() error
	Resume() error
}

// Binding implements tts.Binding.
type Binding struct {
	config Config
	synth  Synthesizer
	player Player
	logger *log.Logger
}

// Option configures a Binding.
type Option func(*Binding)

// WithSynthesizer replaces the piper synthesizer.
func WithSynthesizer(s Synthesizer) Option {
	return func(b *Binding) {
		b.synth = s
	}
}

// WithPlayer replaces the audio output.
func WithPlayer(p Player) Option {
	return func(b *Binding) {
		b.player = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Binding) {
		b.logger = logger
	}
}

// New creates a local engine binding.
func New(config Config, opts ...Option) *Binding {
	defaults := DefaultConfig()
	if config.Binary == "" {
		config.Binary = defaults.Binary
	}
	if config.SampleRate <= 0 {
		config.SampleRate = defaults.SampleRate
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaults.ChunkSize
	}

	b := &Binding{
		config: config,
		logger: log.Default().WithPrefix("local"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.synth == nil {
		b.synth = &Piper{Binary: config.Binary}
	}
	if b.player == nil {
		b.player = &OtoPlayer{SampleRate: config.SampleRate}
	}
	return b
}

// modelPath resolves the model file of voice.
func (b *Binding) modelPath(voice tts.OfflineVoice) (string, error) {
	path := b.config.MaleModel
	if voice == tts.VoiceFemale {
		path = b.config.FemaleModel
	}
	if path == "" {
		return "", fmt.Errorf("no model configured for %s voice", voice)
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("unable to expand model path %s: %w", path, err)
	}
	if _, err := os.Stat(expanded); err != nil {
		return "", fmt.Errorf("model for %s voice: %w", voice, err)
	}
	return expanded, nil
}

// Open implements tts.Binding. Only mixed mode is supported; the local
// engine always synthesizes offline.
func (b *Binding) Open(config tts.EngineConfig, sink tts.Sink) (tts.Handle, int) {
	if config.Mode != tts.ModeMixed {
		b.logger.Error("Unsupported mode", "mode", config.Mode)
		return nil, CodeModeUnsupported
	}
	model, err := b.modelPath(config.Voice)
	if err != nil {
		b.logger.Error("Voice model unavailable", "err", err)
		return nil, CodeModelMissing
	}

	h := &Handle{
		binding: b,
		sink:    sink,
		model:   model,
		voice:   config.Voice,
		speaker: paramInt(config.Params, tts.ParamSpeaker, 0),
		speed:   paramInt(config.Params, tts.ParamSpeed, 5),
		volume:  paramInt(config.Params, tts.ParamVolume, 5),
		done:    make(chan struct{}),
	}
	h.cond = sync.NewCond(&h.mu)
	go h.run()

	b.logger.Debug("Local engine opened", "model", model, "speaker", h.speaker, "speed", h.speed)
	return h, 0
}

func paramInt(params map[string]string, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// lengthScale maps the 0-9 speed level to piper's length scale; 5 is
// natural speed and higher levels speak faster.
func lengthScale(speed int) float64 {
	return 1.0 + float64(5-speed)*0.1
}

type job struct {
	id       string
	text     string
	playback bool
}

// Handle implements tts.Handle. A single worker goroutine processes
// utterances in submission order.
type Handle struct {
	binding *Binding
	sink    tts.Sink

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []job
	current  *job
	cancel   context.CancelFunc
	playing  bool
	paused   bool
	released bool

	model   string
	voice   tts.OfflineVoice
	speaker int
	speed   int
	volume  int

	done chan struct{}
}

func (h *Handle) enqueue(jobs ...job) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return CodeReleased
	}
	// The session leaves Paused on a new submission, so playback of the
	// paused utterance carries on ahead of the new ones.
	if h.paused {
		if err := h.binding.player.Resume(); err != nil {
			h.binding.logger.Error("Resume failed", "err", err)
			return CodePlaybackFailed
		}
		h.paused = false
	}
	h.queue = append(h.queue, jobs...)
	h.cond.Signal()
	return 0
}

// Speak implements tts.Handle.
func (h *Handle) Speak(id, text string) int {
	return h.enqueue(job{id: id, text: text, playback: true})
}

// Synthesize implements tts.Handle.
func (h *Handle) Synthesize(id, text string) int {
	return h.enqueue(job{id: id, text: text})
}

// BatchSpeak implements tts.Handle.
func (h *Handle) BatchSpeak(items []tts.BatchItem) int {
	jobs := make([]job, len(items))
	for i, item := range items {
		jobs[i] = job{id: item.ID, text: item.Text, playback: true}
	}
	return h.enqueue(jobs...)
}

// Pause implements tts.Handle.
func (h *Handle) Pause() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return CodeReleased
	}
	if !h.playing || h.paused {
		return CodeNotSpeaking
	}
	if err := h.binding.player.Pause(); err != nil {
		h.binding.logger.Error("Pause failed", "err", err)
		return CodePlaybackFailed
	}
	h.paused = true
	return 0
}

// Resume implements tts.Handle.
func (h *Handle) Resume() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return CodeReleased
	}
	if !h.paused {
		return CodeNotPaused
	}
	if err := h.binding.player.Resume(); err != nil {
		h.binding.logger.Error("Resume failed", "err", err)
		return CodePlaybackFailed
	}
	h.paused = false
	return 0
}

// Stop implements tts.Handle. Queued utterances are dropped and the one in
// progress is cancelled without further events.
func (h *Handle) Stop() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return CodeReleased
	}
	h.stopLocked()
	return 0
}

func (h *Handle) stopLocked() {
	h.queue = nil
	if h.cancel != nil {
		h.cancel()
	}
	h.paused = false
}

// LoadModel implements tts.Handle.
func (h *Handle) LoadModel(voice tts.OfflineVoice) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return CodeReleased
	}
	if h.current != nil || len(h.queue) > 0 {
		return CodeBusy
	}
	model, err := h.binding.modelPath(voice)
	if err != nil {
		h.binding.logger.Error("Voice model unavailable", "err", err)
		return CodeModelMissing
	}
	h.model = model
	h.voice = voice
	return 0
}

// Release implements tts.Handle. It waits for the worker to exit.
func (h *Handle) Release() int {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return CodeReleased
	}
	h.released = true
	h.stopLocked()
	h.cond.Signal()
	h.mu.Unlock()

	<-h.done
	return 0
}

func (h *Handle) run() {
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
		ctx, cancel := context.WithCancel(context.Background())
		h.current = &j
		h.cancel = cancel
		req := Request{
			Text:        j.text,
			Model:       h.model,
			Speaker:     h.speaker,
			LengthScale: lengthScale(h.speed),
		}
		volume := float64(h.volume) / tts.MaxLevel
		h.mu.Unlock()

		h.process(ctx, j, req, volume)
		cancel()

		h.mu.Lock()
		h.current = nil
		h.cancel = nil
		h.playing = false
		h.paused = false
		h.mu.Unlock()
	}
}

// process synthesizes one utterance and plays it if requested. Once ctx is
// cancelled no more events are emitted for it.
func (h *Handle) process(ctx context.Context, j job, req Request, volume float64) {
	h.sink.Deliver(tts.NewEvent(tts.EventSynthesizeStart, j.id))

	pcm, err := h.binding.synth.Synthesize(ctx, req)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		h.binding.logger.Error("Synthesis failed", "utterance", j.id, "err", err)
		h.sink.Deliver(tts.NewErrorEvent(j.id, CodeSynthesisFailed, err.Error()))
		return
	}

	chunk := h.binding.config.ChunkSize
	for off := 0; off < len(pcm); off += chunk {
		end := min(off+chunk, len(pcm))
		h.sink.Deliver(tts.NewDataEvent(j.id, pcm[off:end], end))
	}
	h.sink.Deliver(tts.NewEvent(tts.EventSynthesizeFinish, j.id))

	if !j.playback {
		return
	}

	h.mu.Lock()
	if ctx.Err() != nil {
		h.mu.Unlock()
		return
	}
	h.playing = true
	h.mu.Unlock()

	h.sink.Deliver(tts.NewEvent(tts.EventSpeechStart, j.id))

	runes := len([]rune(j.text))
	last := -1
	err = h.binding.player.Play(ctx, pcm, volume, func(played int) {
		if len(pcm) == 0 || ctx.Err() != nil {
			return
		}
		chars := runes * played / len(pcm)
		if chars == last {
			return
		}
		last = chars
		ev := tts.NewEvent(tts.EventSpeechProgress, j.id)
		ev.Progress = chars
		h.sink.Deliver(ev)
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		code := CodePlaybackFailed
		if errors.Is(err, ErrAudioDevice) {
			code = CodeAudioDevice
		}
		h.binding.logger.Error("Playback failed", "utterance", j.id, "err", err)
		h.sink.Deliver(tts.NewErrorEvent(j.id, code, err.Error()))
		return
	}
	h.sink.Deliver(tts.NewEvent(tts.EventSpeechFinish, j.id))
}

// Voice returns the loaded voice.
func (h *Handle) Voice() tts.OfflineVoice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.voice
}
