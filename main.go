// Package main provides the entry point for the speakctl CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	voiceName  string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "speakctl",
		Short: "Drive a speech synthesis session from the CLI",
		Long: paragraph(
			fmt.Sprintf("\nDrive a speech synthesis session from the CLI: %s, synthesize to files, or serve it over HTTP.", keyword("speak text")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

func validateOptions(_ *cobra.Command) error {
	// grab config values from Viper
	engineName = viper.GetString("engine")
	debug = viper.GetBool("debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	switch engineName {
	case engineMock, engineLocal:
	default:
		return fmt.Errorf("unknown engine %q: must be one of [%s %s]", engineName, engineMock, engineLocal)
	}

	if voiceName != "" {
		viper.Set("tts.offline_voice", voiceName)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", engineMock, "engine binding (mock/local)")
	rootCmd.PersistentFlags().StringVar(&voiceName, "voice", "", "offline voice model (male/female)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("engine", engineMock)
	viper.SetDefault("mock.delay", "50ms")
	viper.SetDefault("local.binary", "piper")
	viper.SetDefault("local.sample_rate", 22050)
	viper.SetDefault("serve.addr", "127.0.0.1:8080")

	rootCmd.AddCommand(configCmd, manCmd, speakCmd, synthesizeCmd, batchCmd, tuiCmd, serveCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "speakctl")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speakctl")}, dirs...)
	}

	if c := os.Getenv("SPEAKCTL_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speakctl")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speakctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "speakctl.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
