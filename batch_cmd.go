package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cienet/speakctl/tts"
	"github.com/cienet/speakctl/tts/sinks"
)

var batchCmd = &cobra.Command{
	Use:     "batch [FILE]",
	Short:   "Speak a batch of utterances in order",
	Long:    paragraph(fmt.Sprintf("\n%s every line of FILE, or standard input, as one batch. A line is either the text alone or an id and the text separated by a tab.", keyword("Speak"))),
	Example: paragraph("speakctl batch lines.txt\nprintf 'a\\t你好\\nb\\t再见\\n' | speakctl batch"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := io.Reader(os.Stdin)
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("unable to open file: %w", err)
			}
			defer f.Close() //nolint:errcheck
			r = f
		}

		items, err := parseBatch(r, uuid.NewString)
		if err != nil {
			return err
		}

		events, sink := terminalEvents(len(items))
		c := newSession()
		if err := initSession(c, sinks.Tee(sink, sinks.Log(log.Default().WithPrefix("event")))); err != nil {
			return err
		}
		defer release(c)

		if o := c.BatchSpeak(items); !o.OK() {
			return o.Err()
		}
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		return waitFor(cmd.Context(), c, events, tts.EventSpeechFinish, ids...)
	},
}

// parseBatch reads one item per non-blank line. Lines without a tab get an
// id from newID.
func parseBatch(r io.Reader, newID func() string) ([]tts.BatchItem, error) {
	var items []tts.BatchItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, text, ok := strings.Cut(line, "\t")
		if !ok {
			id, text = newID(), line
		}
		items = append(items, tts.BatchItem{ID: strings.TrimSpace(id), Text: strings.TrimSpace(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read batch: %w", err)
	}
	return items, nil
}
