package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/cienet/speakctl/tts"
	"github.com/cienet/speakctl/tts/engines/local"
	"github.com/cienet/speakctl/tts/engines/mock"
	"github.com/cienet/speakctl/tts/sinks"
)

const (
	engineMock  = "mock"
	engineLocal = "local"
)

// sessionConfig loads the session configuration. Credentials from the
// environment and a .env file in the working directory win over the
// config file.
func sessionConfig() (tts.Config, error) {
	cfg, err := tts.LoadConfigFromViper(viper.GetViper())
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	creds, err := tts.LoadCredentials(".env")
	if err != nil {
		return cfg, err
	}
	cfg.Credentials = cfg.Credentials.Merge(creds)
	return cfg, nil
}

func newBinding(engine string) (tts.Binding, error) {
	switch engine {
	case engineMock:
		return mock.New(mock.WithAutoComplete(), mock.WithDelay(viper.GetDuration("mock.delay"))), nil
	case engineLocal:
		cfg := local.DefaultConfig()
		cfg.Binary = viper.GetString("local.binary")
		cfg.MaleModel = viper.GetString("local.male_model")
		cfg.FemaleModel = viper.GetString("local.female_model")
		cfg.SampleRate = viper.GetInt("local.sample_rate")
		return local.New(cfg, local.WithLogger(log.Default().WithPrefix("local"))), nil
	}
	return nil, fmt.Errorf("unknown engine %q", engine)
}

// newSession returns the process session controller.
func newSession(opts ...tts.Option) *tts.Controller {
	opts = append([]tts.Option{tts.WithLogger(log.Default().WithPrefix("tts"))}, opts...)
	return tts.Session(opts...)
}

// initSession opens the configured engine on c.
func initSession(c *tts.Controller, sink tts.Sink) error {
	cfg, err := sessionConfig()
	if err != nil {
		return err
	}
	binding, err := newBinding(engineName)
	if err != nil {
		return err
	}
	return c.Initialize(cfg, binding, sink).Err()
}

// readText joins args, or reads standard input when there are none or the
// only argument is "-".
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// terminalEvents returns a channel sink that only receives the events ending
// an utterance, sized so the relay never blocks on it.
func terminalEvents(utterances int) (*sinks.Chan, tts.Sink) {
	ch := sinks.NewChan(2*utterances + 8)
	return ch, sinks.Filter(ch, tts.EventSpeechFinish, tts.EventSynthesizeFinish, tts.EventError)
}

// waitFor blocks until every id has ended with finish or an error event.
// Engine errors are joined into the returned error. A cancelled ctx stops
// the session.
func waitFor(ctx context.Context, c *tts.Controller, events *sinks.Chan, finish tts.EventType, ids ...string) error {
	waiting := make(map[string]bool, len(ids))
	for _, id := range ids {
		waiting[id] = true
	}

	var errs []error
	for len(waiting) > 0 {
		select {
		case <-ctx.Done():
			if o := c.Stop(); !o.OK() {
				log.Warn("Unable to stop session", "outcome", o.String())
			}
			return ctx.Err()
		case ev := <-events.C:
			if !waiting[ev.Utterance] {
				continue
			}
			switch ev.Type {
			case finish:
				delete(waiting, ev.Utterance)
			case tts.EventError:
				delete(waiting, ev.Utterance)
				errs = append(errs, fmt.Errorf("utterance %s: engine error %d: %s", ev.Utterance, ev.Code, ev.Message))
			}
		}
	}
	return errors.Join(errs...)
}

// release ends the session, logging a failed release. A session the TUI
// already released is not a failure.
func release(c *tts.Controller) {
	if o := c.Release(); !o.OK() && o.Reason != tts.ReasonReleased {
		log.Warn("Release failed", "outcome", o.String())
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}
