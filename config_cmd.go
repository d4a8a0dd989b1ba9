package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# engine binding: mock or local
engine: "mock"
# log debug messages
debug: false

# Session configuration
tts:
  # Application credentials. SPEAKCTL_APP_ID, SPEAKCTL_APP_KEY and
  # SPEAKCTL_SECRET_KEY, or a .env file, override these.
  app_id: ""
  app_key: ""
  secret_key: ""
  # online or mixed
  mode: "mixed"
  # offline voice model: male or female
  offline_voice: "male"
  # 0 standard female, 1 standard male, 2 special male, 3 emotional male,
  # 4 emotional child
  speaker: 0
  # 0-9
  volume: 5
  speed: 5
  pitch: 5
  # default, high_speed_wifi, high_speed_network or high_speed_synthesize
  mix_mode: "default"

# Mock engine (for testing)
mock:
  # pause between emitted events
  delay: "50ms"

# Local engine, runs piper and plays through the default audio device
local:
  binary: "piper"
  # male_model: "~/.local/share/piper/zh_CN-huayan-medium.onnx"
  # female_model: "~/.local/share/piper/zh_CN-huayan-x_low.onnx"
  sample_rate: 22050

# HTTP server
serve:
  addr: "127.0.0.1:8080"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speakctl config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speakctl config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speakctl config\nspeakctl config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("speakctl", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
