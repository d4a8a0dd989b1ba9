package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cienet/speakctl/tts"
)

type fakeSession struct {
	calls []string
	texts []string
	state tts.StateType
	fail  map[string]bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{state: tts.StateReady, fail: make(map[string]bool)}
}

func (f *fakeSession) do(command string) tts.Outcome {
	f.calls = append(f.calls, command)
	if f.fail[command] {
		return tts.Failed(tts.KindState, tts.ReasonInvalidState, command, "not now")
	}
	return tts.Ok(command)
}

func (f *fakeSession) Speak(text string) tts.Outcome {
	f.texts = append(f.texts, text)
	return f.do(tts.CmdSpeak)
}

func (f *fakeSession) Synthesize(text string) tts.Outcome {
	f.texts = append(f.texts, text)
	return f.do(tts.CmdSynthesize)
}

func (f *fakeSession) Pause() tts.Outcome            { return f.do(tts.CmdPause) }
func (f *fakeSession) Resume() tts.Outcome           { return f.do(tts.CmdResume) }
func (f *fakeSession) Stop() tts.Outcome             { return f.do(tts.CmdStop) }
func (f *fakeSession) SwitchVoiceModel() tts.Outcome { return f.do(tts.CmdSwitchVoiceModel) }
func (f *fakeSession) Release() tts.Outcome          { return f.do(tts.CmdRelease) }
func (f *fakeSession) State() tts.StateType          { return f.state }
func (f *fakeSession) Voice() tts.OfflineVoice       { return tts.VoiceMale }
func (f *fakeSession) Pending() int                  { return 0 }

func press(m tea.Model, key tea.KeyMsg) (tea.Model, tea.Cmd) {
	return m.Update(key)
}

func TestKeyBindings(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyCtrlP}, tts.CmdPause},
		{tea.KeyMsg{Type: tea.KeyCtrlR}, tts.CmdResume},
		{tea.KeyMsg{Type: tea.KeyCtrlX}, tts.CmdStop},
		{tea.KeyMsg{Type: tea.KeyCtrlV}, tts.CmdSwitchVoiceModel},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := newFakeSession()
			press(newModel(s), tt.key)
			if len(s.calls) != 1 || s.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", s.calls, tt.want)
			}
		})
	}
}

func TestEnterSpeaksInput(t *testing.T) {
	s := newFakeSession()
	m := newModel(s)
	m.input.SetValue("你好")

	next, _ := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(s.texts) != 1 || s.texts[0] != "你好" {
		t.Fatalf("spoken = %v", s.texts)
	}
	if got := next.(model).input.Value(); got != "" {
		t.Errorf("input = %q, want cleared after success", got)
	}
}

func TestFailedCommandKeepsInput(t *testing.T) {
	s := newFakeSession()
	s.fail[tts.CmdSynthesize] = true
	m := newModel(s)
	m.input.SetValue("keep me")

	next, _ := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	nm := next.(model)
	if nm.input.Value() != "keep me" {
		t.Errorf("input = %q, want kept", nm.input.Value())
	}
	if nm.last.OK() || len(nm.lines) != 1 {
		t.Errorf("last = %v, lines = %v", nm.last, nm.lines)
	}
	if !strings.Contains(nm.View(), "InvalidState") {
		t.Error("view should show the failure")
	}
}

func TestQuitReleases(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		s := newFakeSession()
		_, cmd := press(newModel(s), key)

		if len(s.calls) != 1 || s.calls[0] != tts.CmdRelease {
			t.Errorf("%s: calls = %v, want [release]", key, s.calls)
		}
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command did not quit", key)
		}
	}
}

func TestEventLog(t *testing.T) {
	m := tea.Model(newModel(newFakeSession()))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	data := tts.NewDataEvent("u1", make([]byte, 2048), 2048)
	data.Seq = 1
	m, _ = m.Update(EventMsg{Event: data})
	failure := tts.NewErrorEvent("u1", -9, "network")
	failure.Seq = 2
	m, _ = m.Update(EventMsg{Event: failure})

	nm := m.(model)
	if len(nm.lines) != 2 {
		t.Fatalf("lines = %v", nm.lines)
	}
	if !strings.Contains(nm.lines[0], "2.0 kB") {
		t.Errorf("data line = %q, want size", nm.lines[0])
	}
	if !strings.Contains(nm.lines[1], "code=-9") {
		t.Errorf("error line = %q, want code", nm.lines[1])
	}
}

func TestStatusLine(t *testing.T) {
	line := statusLine(tts.StatePaused, tts.VoiceFemale, 2, tts.Ok(tts.CmdPause))
	for _, want := range []string{"paused", "voice female", "pending 2", "pause: ok"} {
		if !strings.Contains(line, want) {
			t.Errorf("statusLine() = %q, missing %q", line, want)
		}
	}
}
