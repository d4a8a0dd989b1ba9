package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cienet/speakctl/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Drive the session interactively",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if !isTerminal(os.Stdout) {
			return errors.New("tui needs a terminal")
		}

		c := newSession()
		p := ui.NewProgram(c)
		if err := initSession(c, ui.ProgramSink(p)); err != nil {
			return err
		}
		defer release(c)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("unable to run tui program: %w", err)
		}
		return nil
	},
}
