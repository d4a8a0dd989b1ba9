package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/cienet/speakctl/tts"
)

const (
	maxLogLines = 500
	helpText    = "enter speak • ctrl+s synthesize • ctrl+p pause • ctrl+r resume • ctrl+x stop • ctrl+v voice • esc quit"
)

type model struct {
	session Session
	input   textinput.Model
	events  viewport.Model
	lines   []string
	last    tts.Outcome
	width   int
	ready   bool
}

func newModel(session Session) model {
	ti := textinput.New()
	ti.Placeholder = "Text to speak"
	ti.CharLimit = tts.MaxTextBytes
	ti.Focus()

	return model{
		session: session,
		input:   ti,
		events:  viewport.New(80, 10),
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		m.events.Width = msg.Width
		// Title, input, status and help take five lines.
		m.events.Height = max(msg.Height-5, 1)
		m.ready = true
		m.events.SetContent(strings.Join(m.lines, "\n"))
		m.events.GotoBottom()
		return m, nil

	case EventMsg:
		m.appendLine(formatEvent(msg.Event))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.run(m.session.Release)
			return m, tea.Quit
		case "enter":
			text := m.input.Value()
			m.run(func() tts.Outcome { return m.session.Speak(text) })
			if m.last.OK() {
				m.input.Reset()
			}
			return m, nil
		case "ctrl+s":
			text := m.input.Value()
			m.run(func() tts.Outcome { return m.session.Synthesize(text) })
			if m.last.OK() {
				m.input.Reset()
			}
			return m, nil
		case "ctrl+p":
			m.run(m.session.Pause)
			return m, nil
		case "ctrl+r":
			m.run(m.session.Resume)
			return m, nil
		case "ctrl+x":
			m.run(m.session.Stop)
			return m, nil
		case "ctrl+v":
			m.run(m.session.SwitchVoiceModel)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run executes a session command and records its outcome.
func (m *model) run(cmd func() tts.Outcome) {
	m.last = cmd()
	if !m.last.OK() {
		log.Debug("Command failed", "outcome", m.last.String())
		m.appendLine(errorStyle.Render(m.last.String()))
	}
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.events.SetContent(strings.Join(m.lines, "\n"))
	m.events.GotoBottom()
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("speakctl"))
	b.WriteString("\n")
	b.WriteString(m.events.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(statusLine(m.session.State(), m.session.Voice(), m.session.Pending(), m.last))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}

// formatEvent renders one event log line.
func formatEvent(ev tts.CallbackEvent) string {
	prefix := mutedStyle.Render(fmt.Sprintf("#%-4d %s", ev.Seq, ev.At.Format("15:04:05")))
	switch ev.Type {
	case tts.EventDataArrived:
		return fmt.Sprintf("%s %s %s %s", prefix, ev.Type, ev.Utterance, humanize.Bytes(uint64(len(ev.Data))))
	case tts.EventSpeechProgress:
		return fmt.Sprintf("%s %s %s %d", prefix, ev.Type, ev.Utterance, ev.Progress)
	case tts.EventError:
		return prefix + " " + errorStyle.Render(fmt.Sprintf("%s %s code=%d %s", ev.Type, ev.Utterance, ev.Code, ev.Message))
	default:
		return fmt.Sprintf("%s %s %s", prefix, ev.Type, ev.Utterance)
	}
}
