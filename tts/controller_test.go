package tts_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cienet/speakctl/tts"
	"github.com/cienet/speakctl/tts/engines/mock"
)

// recorder is a Sink that keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []tts.CallbackEvent
}

func (r *recorder) Deliver(ev tts.CallbackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []tts.CallbackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tts.CallbackEvent(nil), r.events...)
}

// waitFor blocks until an event of typ for utterance has been delivered.
// The controller applies an event before the sink sees it, so the session
// state reflects the event once waitFor returns.
func (r *recorder) waitFor(t *testing.T, typ tts.EventType, utterance string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range r.snapshot() {
			if ev.Type == typ && ev.Utterance == utterance {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s of %q", typ, utterance)
}

func validConfig() tts.Config {
	cfg := tts.DefaultConfig()
	cfg.Credentials = tts.Credentials{AppID: "10001", AppKey: "key", SecretKey: "secret"}
	return cfg
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("utt-%d", n)
	}
}

func newController() *tts.Controller {
	return tts.NewController(
		tts.WithLogger(log.New(io.Discard)),
		tts.WithIDGenerator(sequentialIDs()),
	)
}

// newSession returns an initialized controller, its binding and the sink it
// delivers to. The session is released when the test ends.
func newSession(t *testing.T, opts ...mock.Option) (*tts.Controller, *mock.Binding, *recorder) {
	t.Helper()
	c := newController()
	b := mock.New(opts...)
	rec := &recorder{}
	if o := c.Initialize(validConfig(), b, rec); !o.OK() {
		t.Fatalf("Initialize() = %v", o)
	}
	t.Cleanup(func() { c.Release() })
	return c, b, rec
}

func expectFailure(t *testing.T, o tts.Outcome, kind tts.Kind, reason tts.Reason) {
	t.Helper()
	if o.Kind != kind || o.Reason != reason {
		t.Errorf("%s outcome = %s/%s, want %s/%s", o.Command, o.Kind, o.Reason, kind, reason)
	}
}

func expectState(t *testing.T, c *tts.Controller, want tts.StateType) {
	t.Helper()
	if got := c.State(); got != want {
		t.Errorf("State() = %s, want %s", got, want)
	}
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*tts.Config)
	}{
		{"volume too high", func(c *tts.Config) { c.Params.Volume = 15 }},
		{"negative speed", func(c *tts.Config) { c.Params.Speed = -1 }},
		{"pitch too high", func(c *tts.Config) { c.Params.Pitch = 10 }},
		{"speaker out of range", func(c *tts.Config) { c.Params.Speaker = 5 }},
		{"missing app id", func(c *tts.Config) { c.Credentials.AppID = "" }},
		{"missing secret", func(c *tts.Config) { c.Credentials.SecretKey = "  " }},
		{"unknown mode", func(c *tts.Config) { c.Mode = 0 }},
		{"unknown voice", func(c *tts.Config) { c.OfflineVoice = 7 }},
		{"unknown mix mode", func(c *tts.Config) { c.Params.MixMode = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			c := newController()
			b := mock.New()
			o := c.Initialize(cfg, b, nil)

			expectFailure(t, o, tts.KindValidation, tts.ReasonInvalidConfig)
			if b.Opens() != 0 {
				t.Errorf("engine opened %d times, want 0", b.Opens())
			}
			expectState(t, c, tts.StateUninitialized)
			c.Release()
		})
	}
}

func TestInitializeVolumeScenario(t *testing.T) {
	cfg := validConfig()
	cfg.Params.Volume = 15

	c := newController()
	b := mock.New()
	o := c.Initialize(cfg, b, nil)
	defer c.Release()

	expectFailure(t, o, tts.KindValidation, tts.ReasonInvalidConfig)
	if !strings.Contains(o.Message, "volume") {
		t.Errorf("message %q does not name volume", o.Message)
	}
	if b.Opens() != 0 {
		t.Errorf("engine opened %d times, want 0", b.Opens())
	}

	// No handle exists, so commands fail as not initialized.
	expectFailure(t, c.Speak("hello"), tts.KindResource, tts.ReasonNotInitialized)
}

func TestInitializePassesEngineConfig(t *testing.T) {
	c, b, _ := newSession(t)
	cfg := b.Config()

	want := map[string]string{
		tts.ParamSpeaker: "0",
		tts.ParamVolume:  "5",
		tts.ParamSpeed:   "5",
		tts.ParamPitch:   "5",
		tts.ParamMixMode: "MIX_MODE_DEFAULT",
	}
	for k, v := range want {
		if cfg.Params[k] != v {
			t.Errorf("param %s = %q, want %q", k, cfg.Params[k], v)
		}
	}
	if cfg.OnlineTimeout != 6*time.Second {
		t.Errorf("OnlineTimeout = %v, want 6s", cfg.OnlineTimeout)
	}
	if cfg.Credentials.AppID != "10001" {
		t.Errorf("AppID = %q, want 10001", cfg.Credentials.AppID)
	}
	expectState(t, c, tts.StateReady)
	if c.Voice() != tts.VoiceMale {
		t.Errorf("Voice() = %s, want male", c.Voice())
	}
	if got, ok := c.Config(); !ok || got != validConfig() {
		t.Errorf("Config() = %+v, %v", got, ok)
	}
}

func TestInitializeTwice(t *testing.T) {
	c, b, _ := newSession(t)

	o := c.Initialize(validConfig(), b, nil)
	expectFailure(t, o, tts.KindState, tts.ReasonAlreadyInitialized)
	if b.Opens() != 1 {
		t.Errorf("engine opened %d times, want 1", b.Opens())
	}
	expectState(t, c, tts.StateReady)
}

func TestInitializeNilBinding(t *testing.T) {
	c := newController()
	defer c.Release()
	expectFailure(t, c.Initialize(validConfig(), nil, nil), tts.KindValidation, tts.ReasonInvalidConfig)
}

func TestInitializeEngineFailure(t *testing.T) {
	c := newController()
	b := mock.New(mock.WithOpenCode(-3))

	o := c.Initialize(validConfig(), b, nil)
	if o.Kind != tts.KindEngine || o.Code != -3 || o.Command != tts.CmdInitialize {
		t.Errorf("Initialize() = %+v, want engine failure -3", o)
	}
	expectState(t, c, tts.StateUninitialized)

	// The engine claim is given back, and the same controller may retry.
	b.ClearCodes()
	if o := c.Initialize(validConfig(), b, nil); !o.OK() {
		t.Fatalf("retry Initialize() = %v", o)
	}
	c.Release()
}

func TestOneEnginePerProcess(t *testing.T) {
	first, _, _ := newSession(t)

	second := newController()
	o := second.Initialize(validConfig(), mock.New(), nil)
	expectFailure(t, o, tts.KindResource, tts.ReasonSessionInUse)
	expectState(t, second, tts.StateUninitialized)

	first.Release()
	if o := second.Initialize(validConfig(), mock.New(), nil); !o.OK() {
		t.Fatalf("Initialize() after release = %v", o)
	}
	second.Release()
}

func TestCommandsBeforeInitialize(t *testing.T) {
	c := newController()
	defer c.Release()

	commands := map[string]func() tts.Outcome{
		tts.CmdSpeak:            func() tts.Outcome { return c.Speak("hello") },
		tts.CmdSynthesize:       func() tts.Outcome { return c.Synthesize("hello") },
		tts.CmdBatchSpeak:       func() tts.Outcome { return c.BatchSpeak([]tts.BatchItem{{ID: "a", Text: "hi"}}) },
		tts.CmdPause:            c.Pause,
		tts.CmdResume:           c.Resume,
		tts.CmdStop:             c.Stop,
		tts.CmdSwitchVoiceModel: c.SwitchVoiceModel,
	}
	for name, cmd := range commands {
		t.Run(name, func(t *testing.T) {
			o := cmd()
			expectFailure(t, o, tts.KindResource, tts.ReasonNotInitialized)
			if o.Command != name {
				t.Errorf("Command = %q, want %q", o.Command, name)
			}
		})
	}
}

func TestPauseBeforeSpeak(t *testing.T) {
	c, b, _ := newSession(t)

	expectFailure(t, c.Pause(), tts.KindState, tts.ReasonInvalidState)
	expectState(t, c, tts.StateReady)
	if n := b.Handle().Calls(tts.CmdPause); n != 0 {
		t.Errorf("engine pause called %d times, want 0", n)
	}
}

func TestResumeWithoutPause(t *testing.T) {
	c, _, _ := newSession(t)

	expectFailure(t, c.Resume(), tts.KindState, tts.ReasonInvalidState)
	c.Speak("hello")
	expectFailure(t, c.Resume(), tts.KindState, tts.ReasonInvalidState)
	expectState(t, c, tts.StateSpeaking)
}

func TestStopTwiceFromReady(t *testing.T) {
	c, b, _ := newSession(t)

	for i := 0; i < 2; i++ {
		if o := c.Stop(); !o.OK() {
			t.Errorf("Stop() #%d = %v", i+1, o)
		}
		expectState(t, c, tts.StateReady)
	}
	if n := b.Handle().Calls(tts.CmdStop); n != 2 {
		t.Errorf("engine stop called %d times, want 2", n)
	}
}

func TestStopEngineFailure(t *testing.T) {
	c, b, _ := newSession(t)
	c.Speak("hello")
	b.SetCode(tts.CmdStop, -11)

	o := c.Stop()
	if o.Kind != tts.KindEngine || o.Code != -11 {
		t.Errorf("Stop() = %+v, want engine failure -11", o)
	}
	expectState(t, c, tts.StateSpeaking)
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
}

func TestSwitchVoiceWhileBusy(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *tts.Controller)
		state tts.StateType
	}{
		{"speaking", func(c *tts.Controller) { c.Speak("hello") }, tts.StateSpeaking},
		{"synthesizing", func(c *tts.Controller) { c.Synthesize("hello") }, tts.StateSynthesizing},
		{"paused", func(c *tts.Controller) { c.Speak("hello"); c.Pause() }, tts.StatePaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b, _ := newSession(t)
			tt.setup(c)

			expectFailure(t, c.SwitchVoiceModel(), tts.KindState, tts.ReasonBusyCannotSwitchModel)
			if n := b.Handle().Calls(tts.CmdSwitchVoiceModel); n != 0 {
				t.Errorf("engine loadModel called %d times, want 0", n)
			}
			if c.Voice() != tts.VoiceMale {
				t.Errorf("Voice() = %s, want male", c.Voice())
			}
			expectState(t, c, tt.state)
			c.Release()
		})
	}
}

func TestSwitchVoiceModel(t *testing.T) {
	c, b, _ := newSession(t)

	if o := c.SwitchVoiceModel(); !o.OK() {
		t.Fatalf("SwitchVoiceModel() = %v", o)
	}
	if c.Voice() != tts.VoiceFemale || b.Handle().Voice() != tts.VoiceFemale {
		t.Errorf("voice = %s / engine %s, want female", c.Voice(), b.Handle().Voice())
	}

	b.SetCode(tts.CmdSwitchVoiceModel, -7)
	o := c.SwitchVoiceModel()
	if o.Kind != tts.KindEngine || o.Code != -7 || o.Command != tts.CmdSwitchVoiceModel {
		t.Errorf("SwitchVoiceModel() = %+v, want engine failure -7", o)
	}
	if c.Voice() != tts.VoiceFemale {
		t.Errorf("failed switch changed voice to %s", c.Voice())
	}

	b.ClearCodes()
	c.SwitchVoiceModel()
	if c.Voice() != tts.VoiceMale {
		t.Errorf("Voice() = %s, want male", c.Voice())
	}
	expectState(t, c, tts.StateReady)
}

func TestCommandsAfterRelease(t *testing.T) {
	c, b, _ := newSession(t)
	if o := c.Release(); !o.OK() {
		t.Fatalf("Release() = %v", o)
	}
	expectState(t, c, tts.StateReleased)

	commands := map[string]func() tts.Outcome{
		tts.CmdInitialize:       func() tts.Outcome { return c.Initialize(validConfig(), b, nil) },
		tts.CmdSpeak:            func() tts.Outcome { return c.Speak("hello") },
		tts.CmdSynthesize:       func() tts.Outcome { return c.Synthesize("hello") },
		tts.CmdBatchSpeak:       func() tts.Outcome { return c.BatchSpeak([]tts.BatchItem{{ID: "a", Text: "hi"}}) },
		tts.CmdPause:            c.Pause,
		tts.CmdResume:           c.Resume,
		tts.CmdStop:             c.Stop,
		tts.CmdSwitchVoiceModel: c.SwitchVoiceModel,
		tts.CmdRelease:          c.Release,
	}
	for name, cmd := range commands {
		t.Run(name, func(t *testing.T) {
			expectFailure(t, cmd(), tts.KindResource, tts.ReasonReleased)
			expectState(t, c, tts.StateReleased)
		})
	}
	if b.Opens() != 1 {
		t.Errorf("engine opened %d times, want 1", b.Opens())
	}
	if n := b.Handle().Calls(tts.CmdRelease); n != 1 {
		t.Errorf("engine release called %d times, want 1", n)
	}
}

func TestReleaseUninitialized(t *testing.T) {
	c := newController()
	if o := c.Release(); !o.OK() {
		t.Errorf("Release() = %v", o)
	}
	expectState(t, c, tts.StateReleased)
	<-c.Done()
}

func TestReleaseEngineFailure(t *testing.T) {
	c, b, _ := newSession(t)
	b.SetCode(tts.CmdRelease, -9)

	o := c.Release()
	if o.Kind != tts.KindEngine || o.Code != -9 || o.Command != tts.CmdRelease {
		t.Errorf("Release() = %+v, want engine failure -9", o)
	}
	expectState(t, c, tts.StateReleased)

	other := newController()
	if o := other.Initialize(validConfig(), mock.New(), nil); !o.OK() {
		t.Errorf("Initialize() after failed release = %v", o)
	}
	other.Release()
}

func TestSpeakPauseResumeStopRelease(t *testing.T) {
	c, b, _ := newSession(t)

	steps := []struct {
		name string
		cmd  func() tts.Outcome
		want tts.StateType
	}{
		{"speak", func() tts.Outcome { return c.Speak("hello") }, tts.StateSpeaking},
		{"pause", c.Pause, tts.StatePaused},
		{"resume", c.Resume, tts.StateSpeaking},
		{"stop", c.Stop, tts.StateReady},
		{"release", c.Release, tts.StateReleased},
	}
	for _, step := range steps {
		if o := step.cmd(); !o.OK() {
			t.Fatalf("%s: %v", step.name, o)
		}
		expectState(t, c, step.want)
	}

	h := b.Handle()
	for _, cmd := range []string{tts.CmdSpeak, tts.CmdPause, tts.CmdResume, tts.CmdStop, tts.CmdRelease} {
		if n := h.Calls(cmd); n != 1 {
			t.Errorf("engine %s called %d times, want 1", cmd, n)
		}
	}
	<-c.Done()
}

func TestSpeakWhileBusy(t *testing.T) {
	c, b, _ := newSession(t)
	c.Speak("first")

	expectFailure(t, c.Speak("second"), tts.KindState, tts.ReasonInvalidState)
	expectFailure(t, c.Synthesize("second"), tts.KindState, tts.ReasonInvalidState)
	expectFailure(t, c.BatchSpeak([]tts.BatchItem{{ID: "x", Text: "second"}}), tts.KindState, tts.ReasonInvalidState)
	if n := b.Handle().Calls(tts.CmdSpeak); n != 1 {
		t.Errorf("engine speak called %d times, want 1", n)
	}
}

func TestSpeakWhilePaused(t *testing.T) {
	c, b, rec := newSession(t)
	first := c.Speak("first")
	c.Pause()

	second := c.Speak("second")
	if !second.OK() {
		t.Fatalf("Speak() while paused = %v", second)
	}
	expectState(t, c, tts.StateSpeaking)
	if c.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", c.Pending())
	}

	h := b.Handle()
	h.Finish(first.Utterance)
	h.Finish(second.Utterance)
	rec.waitFor(t, tts.EventSpeechFinish, second.Utterance)
	expectState(t, c, tts.StateReady)
}

func TestSpeakValidatesText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason tts.Reason
	}{
		{"empty", "", tts.ReasonInvalidText},
		{"whitespace", " \t\n", tts.ReasonInvalidText},
		{"too long ascii", strings.Repeat("a", tts.MaxTextBytes+1), tts.ReasonTextTooLong},
		{"too long chinese", strings.Repeat("你", tts.MaxTextBytes/2+1), tts.ReasonTextTooLong},
		{"at limit chinese", strings.Repeat("你", tts.MaxTextBytes/2), tts.ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b, _ := newSession(t)
			o := c.Speak(tt.text)

			if tt.reason == tts.ReasonNone {
				if !o.OK() {
					t.Fatalf("Speak() = %v", o)
				}
				return
			}
			expectFailure(t, o, tts.KindValidation, tt.reason)
			if n := b.Handle().Calls(tts.CmdSpeak); n != 0 {
				t.Errorf("engine speak called %d times, want 0", n)
			}
			expectState(t, c, tts.StateReady)
			c.Release()
		})
	}
}

func TestBatchSpeakValidation(t *testing.T) {
	tests := []struct {
		name   string
		items  []tts.BatchItem
		reason tts.Reason
	}{
		{"empty", nil, tts.ReasonInvalidBatch},
		{"missing id", []tts.BatchItem{{Text: "hi"}}, tts.ReasonInvalidBatch},
		{"duplicate id", []tts.BatchItem{{ID: "a", Text: "hi"}, {ID: "a", Text: "there"}}, tts.ReasonInvalidBatch},
		{"empty text", []tts.BatchItem{{ID: "a", Text: "hi"}, {ID: "b"}}, tts.ReasonInvalidText},
		{"long text", []tts.BatchItem{{ID: "a", Text: strings.Repeat("a", 2000)}}, tts.ReasonTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b, _ := newSession(t)
			expectFailure(t, c.BatchSpeak(tt.items), tts.KindValidation, tt.reason)
			if n := b.Handle().Calls(tts.CmdBatchSpeak); n != 0 {
				t.Errorf("engine batchSpeak called %d times, want 0", n)
			}
			c.Release()
		})
	}
}

func TestBatchSpeakEngineFailure(t *testing.T) {
	c, b, _ := newSession(t)
	b.SetCode(tts.CmdBatchSpeak, -5)

	o := c.BatchSpeak([]tts.BatchItem{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}})
	if o.Kind != tts.KindEngine || o.Code != -5 || o.Command != tts.CmdBatchSpeak {
		t.Errorf("BatchSpeak() = %+v, want engine failure -5", o)
	}
	want := "error code: -5 method: batchSpeak, see " + tts.ResultCodeDocs
	if o.Message != want {
		t.Errorf("Message = %q, want %q", o.Message, want)
	}
	expectState(t, c, tts.StateReady)
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestBatchSpeakCompletion(t *testing.T) {
	c, b, rec := newSession(t)

	o := c.BatchSpeak([]tts.BatchItem{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}})
	if !o.OK() {
		t.Fatalf("BatchSpeak() = %v", o)
	}
	expectState(t, c, tts.StateSpeaking)

	h := b.Handle()
	if got := h.Utterances(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("engine utterances = %v, want [a b]", got)
	}

	h.Finish("a")
	rec.waitFor(t, tts.EventSpeechFinish, "a")
	expectState(t, c, tts.StateSpeaking)

	h.Finish("b")
	rec.waitFor(t, tts.EventSpeechFinish, "b")
	expectState(t, c, tts.StateReady)
}

func TestSynthesizeCompletion(t *testing.T) {
	c, b, rec := newSession(t)

	o := c.SynthesizeUtterance("saved", "hello")
	if !o.OK() || o.Utterance != "saved" {
		t.Fatalf("SynthesizeUtterance() = %+v", o)
	}
	expectState(t, c, tts.StateSynthesizing)

	h := b.Handle()
	h.Emit(tts.NewEvent(tts.EventSpeechFinish, "saved"))
	rec.waitFor(t, tts.EventSpeechFinish, "saved")
	expectState(t, c, tts.StateSynthesizing)

	h.Finish("saved")
	rec.waitFor(t, tts.EventSynthesizeFinish, "saved")
	expectState(t, c, tts.StateReady)
}

func TestErrorEventCompletesUtterance(t *testing.T) {
	c, b, rec := newSession(t)
	o := c.Speak("hello")

	b.Handle().Fail(o.Utterance, -15)
	rec.waitFor(t, tts.EventError, o.Utterance)
	expectState(t, c, tts.StateReady)
}

func TestEventsAfterStopDoNotChangeState(t *testing.T) {
	c, b, rec := newSession(t)
	old := c.Speak("old")
	c.Stop()

	next := c.Speak("new")
	b.Handle().Finish(old.Utterance)
	rec.waitFor(t, tts.EventSpeechFinish, old.Utterance)
	expectState(t, c, tts.StateSpeaking)

	b.Handle().Finish(next.Utterance)
	rec.waitFor(t, tts.EventSpeechFinish, next.Utterance)
	expectState(t, c, tts.StateReady)
}

func TestAutoCompleteEvents(t *testing.T) {
	c, _, rec := newSession(t, mock.WithAutoComplete())

	o := c.Speak("hello")
	rec.waitFor(t, tts.EventSpeechFinish, o.Utterance)
	expectState(t, c, tts.StateReady)

	want := []tts.EventType{
		tts.EventSynthesizeStart, tts.EventDataArrived, tts.EventSynthesizeFinish,
		tts.EventSpeechStart, tts.EventSpeechProgress, tts.EventSpeechFinish,
	}
	events := rec.snapshot()
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Type, want[i])
		}
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d Seq = %d, want %d", i, ev.Seq, i+1)
		}
	}
}

func TestReleaseDrainsEvents(t *testing.T) {
	c, b, rec := newSession(t)
	o := c.Speak("hello")
	h := b.Handle()
	for i := 0; i < 100; i++ {
		h.Emit(tts.NewDataEvent(o.Utterance, []byte{0, 0}, i))
	}
	c.Release()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after release")
	}
	if n := len(rec.snapshot()); n != 100 {
		t.Errorf("delivered %d events, want 100", n)
	}
}

func TestGeneratedUtteranceIDs(t *testing.T) {
	c := tts.NewController(tts.WithLogger(log.New(io.Discard)))
	if o := c.Initialize(validConfig(), mock.New(), nil); !o.OK() {
		t.Fatalf("Initialize() = %v", o)
	}
	defer c.Release()

	o := c.Speak("hello")
	if _, err := uuid.Parse(o.Utterance); err != nil {
		t.Errorf("Utterance %q is not a uuid: %v", o.Utterance, err)
	}
}

func TestOutcomeAndStateHooks(t *testing.T) {
	var (
		outcomes []tts.Outcome
		changes  []string
	)
	c := tts.NewController(
		tts.WithLogger(log.New(io.Discard)),
		tts.WithOutcomeHook(func(o tts.Outcome) { outcomes = append(outcomes, o) }),
		tts.WithStateHook(func(from, to tts.StateType) { changes = append(changes, from.String()+">"+to.String()) }),
	)
	c.Initialize(validConfig(), mock.New(), nil)
	c.Pause()
	c.Release()

	if len(outcomes) != 3 || outcomes[1].Command != tts.CmdPause || outcomes[1].OK() {
		t.Errorf("outcomes = %+v", outcomes)
	}
	want := []string{"uninitialized>ready", "ready>released"}
	if fmt.Sprint(changes) != fmt.Sprint(want) {
		t.Errorf("state changes = %v, want %v", changes, want)
	}
}

func TestOutcomeErr(t *testing.T) {
	c, _, _ := newSession(t)

	err := c.Pause().Err()
	if !errors.Is(err, tts.ErrState) || !errors.Is(err, tts.ErrInvalidState) {
		t.Errorf("Pause().Err() = %v, want ErrState and ErrInvalidState", err)
	}
	if errors.Is(err, tts.ErrEngine) {
		t.Error("state error matched ErrEngine")
	}

	var cmdErr *tts.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Outcome.Command != tts.CmdPause {
		t.Errorf("errors.As() = %v", cmdErr)
	}
	if c.Stop().Err() != nil {
		t.Error("Stop().Err() should be nil")
	}
}

func TestSessionSingleton(t *testing.T) {
	if tts.Session() != tts.Session() {
		t.Error("Session() returned different controllers")
	}
}
