package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cienet/speakctl/tts"
	"github.com/cienet/speakctl/tts/sentence"
	"github.com/cienet/speakctl/tts/sinks"
)

var (
	split bool

	speakCmd = &cobra.Command{
		Use:     "speak [TEXT...]",
		Short:   "Speak text and wait for playback to finish",
		Long:    paragraph(fmt.Sprintf("\n%s the arguments, or standard input when there are none.", keyword("Speak"))),
		Example: paragraph("speakctl speak 你好，世界\necho 你好 | speakctl speak --voice female"),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(args)
			if err != nil {
				return err
			}

			events, sink := terminalEvents(1)
			c := newSession()
			if err := initSession(c, sinks.Tee(sink, sinks.Log(log.Default().WithPrefix("event")))); err != nil {
				return err
			}
			defer release(c)

			if split && tts.EncodedLen(text) > tts.MaxTextBytes {
				return speakSplit(cmd.Context(), c, events, text)
			}

			o := c.Speak(text)
			if !o.OK() {
				return o.Err()
			}
			return waitFor(cmd.Context(), c, events, tts.EventSpeechFinish, o.Utterance)
		},
	}
)

func init() {
	speakCmd.Flags().BoolVar(&split, "split", true, "speak text over the engine limit as a batch of sentences")
}

// speakSplit speaks text too long for one utterance as a batch.
func speakSplit(ctx context.Context, c *tts.Controller, events *sinks.Chan, text string) error {
	items := sentence.NewSplitter().Items(text, uuid.NewString)
	log.Debug("Splitting long text", "bytes", tts.EncodedLen(text), "utterances", len(items))

	if o := c.BatchSpeak(items); !o.OK() {
		return o.Err()
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return waitFor(ctx, c, events, tts.EventSpeechFinish, ids...)
}

// inputText reads the utterance of speak and synthesize.
func inputText(args []string) (string, error) {
	if len(args) == 0 && isTerminal(os.Stdin) {
		return "", errors.New("missing text: pass it as arguments or on stdin")
	}
	return readText(args, os.Stdin)
}
