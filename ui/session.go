// Package ui implements the interactive terminal front end of a synthesis
// session.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cienet/speakctl/tts"
)

// Session is the part of the controller the TUI drives.
type Session interface {
	Speak(text string) tts.Outcome
	Synthesize(text string) tts.Outcome
	Pause() tts.Outcome
	Resume() tts.Outcome
	Stop() tts.Outcome
	SwitchVoiceModel() tts.Outcome
	Release() tts.Outcome
	State() tts.StateType
	Voice() tts.OfflineVoice
	Pending() int
}

// EventMsg carries an engine event into the program.
type EventMsg struct {
	Event tts.CallbackEvent
}

// ProgramSink returns a sink that posts every event to p. Send blocks until
// the program reads the message, which only holds up the relay goroutine.
func ProgramSink(p *tea.Program) tts.Sink {
	return tts.SinkFunc(func(ev tts.CallbackEvent) {
		p.Send(EventMsg{Event: ev})
	})
}

// NewProgram creates the TUI program for session.
func NewProgram(session Session) *tea.Program {
	return tea.NewProgram(newModel(session), tea.WithAltScreen())
}
