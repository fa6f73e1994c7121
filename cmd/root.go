// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mirrorplay/internal/config"
	"mirrorplay/internal/log"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagBase    string
	flagSource  string
	flagPlayer  string
	flagServer  string
	flagPremium bool
	flagNoTUI   bool
	flagAuto    bool
	flagJSON    bool
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logFile is open while the TUI logs to disk.
var logFile *os.File

var rootCmd = &cobra.Command{
	Use:   "mirrorplay [slug]",
	Short: "Play catalog videos with automatic server failover",
	Long: `mirrorplay loads the playback servers for a video, probes them in order,
falls over to the next one when a server fails, and hands the first working
source to your media player. Servers can also be picked by hand.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	PersistentPostRun: closeLog,
	RunE:              rootRun,
	SilenceUsage:      true,
	Annotations:       tuiCommand,
}

// tuiCommand marks commands that may run the interactive selector.
var tuiCommand = map[string]string{"tui": "true"}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBase, "base", "", "Site host or URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Catalog source: api | html")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVar(&flagPremium, "premium", false, "Viewer has premium access (enables the No Ads server)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging")

	for _, c := range []*cobra.Command{rootCmd, watchCmd} {
		c.Flags().StringVarP(&flagServer, "server", "s", "", "Start on server N (1-based) or \"premium\"")
		c.Flags().BoolVar(&flagNoTUI, "no-tui", false, "Resolve without the interactive selector")
		c.Flags().BoolVarP(&flagAuto, "play", "p", false, "Start the player as soon as a server works")
	}

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serversCmd)
	rootCmd.AddCommand(viewsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func rootRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	return watchRun(cmd, args)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagBase != "" {
		cfg.Base = flagBase
	}
	if flagSource != "" {
		cfg.Source = flagSource
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagPremium {
		cfg.Premium = true
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return setupLogging(cmd.Annotations["tui"] == "true" && interactive())
}

// interactive reports whether the selector can draw on this terminal.
func interactive() bool {
	if flagNoTUI || flagJSON {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// setupLogging sends logs to stderr for headless runs. The TUI owns the
// terminal, so it only logs to a file, and only when asked to.
func setupLogging(tui bool) error {
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}

	if !tui {
		if !cfg.Debug && cfg.LogLevel == config.Default().LogLevel {
			level = "warn"
		}
		log.Configure(log.Config{Level: level, Console: true})
		return nil
	}

	if !cfg.Debug && cfg.LogFile == "" {
		log.Disable()
		return nil
	}
	path, err := cfg.LogPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f
	log.Configure(log.Config{Level: level, Output: f})
	return nil
}

func closeLog(cmd *cobra.Command, args []string) {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		l := log.WithComponent("cmd")
		l.Debug().Msgf(format, args...)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mirrorplay %s\n", Version)
	},
}
