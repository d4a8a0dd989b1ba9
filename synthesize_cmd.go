package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/cienet/speakctl/tts"
	"github.com/cienet/speakctl/tts/sinks"
)

var (
	outDir      string
	utteranceID string

	synthesizeCmd = &cobra.Command{
		Use:     "synthesize [TEXT...]",
		Aliases: []string{"synth"},
		Short:   "Synthesize text to a compressed PCM file",
		Long:    paragraph(fmt.Sprintf("\n%s the arguments, or standard input, without playback. The audio is written as zstd compressed PCM to the output directory.", keyword("Synthesize"))),
		Example: paragraph("speakctl synthesize --out ./audio 你好\nspeakctl synth --id greeting 你好"),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(args)
			if err != nil {
				return err
			}

			dir, err := homedir.Expand(outDir)
			if err != nil {
				return fmt.Errorf("invalid output directory: %w", err)
			}
			files, err := sinks.NewFileSave(dir, log.Default().WithPrefix("save"))
			if err != nil {
				return err
			}
			files.OnSaved = func(s sinks.Saved) {
				if s.Err != nil {
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", s.Utterance, s.Path, humanize.Bytes(uint64(s.Bytes))) //nolint:gosec
			}
			defer func() { _ = files.Close() }()

			events, sink := terminalEvents(1)
			c := newSession()
			// FileSave goes first so the file is complete before the finish
			// event reaches the waiter.
			if err := initSession(c, sinks.Tee(files, sink)); err != nil {
				return err
			}
			defer release(c)

			var o tts.Outcome
			if utteranceID != "" {
				o = c.SynthesizeUtterance(utteranceID, text)
			} else {
				o = c.Synthesize(text)
			}
			if !o.OK() {
				return o.Err()
			}
			return waitFor(cmd.Context(), c, events, tts.EventSynthesizeFinish, o.Utterance)
		},
	}
)

func init() {
	synthesizeCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	synthesizeCmd.Flags().StringVar(&utteranceID, "id", "", "utterance id (default generated)")
}
