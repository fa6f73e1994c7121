package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"mirrorplay/internal/history"
	"mirrorplay/internal/media"
)

var flagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show watch history",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

var historyWatchCmd = &cobra.Command{
	Use:         "watch <n>",
	Short:       "Watch entry n again, starting on the server that played last time",
	Args:        cobra.ExactArgs(1),
	RunE:        historyWatchRun,
	Annotations: tuiCommand,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <slug>",
	Short: "Remove a video from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(s *history.Store) error {
			return s.Remove(cmd.Context(), args[0])
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(s *history.Store) error {
			return s.Clear(cmd.Context())
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyWatchCmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "Resolve without the interactive selector")
	historyWatchCmd.Flags().BoolVarP(&flagAuto, "play", "p", false, "Start the player as soon as a server works")

	historyCmd.AddCommand(historyWatchCmd)
	historyCmd.AddCommand(historyRemoveCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func withHistory(fn func(*history.Store) error) error {
	path, err := cfg.HistoryFile()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func historyRun(cmd *cobra.Command, args []string) error {
	var entries []media.HistoryEntry
	err := withHistory(func(s *history.Store) error {
		var err error
		entries, err = s.List(cmd.Context(), flagLimit)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}
	for i, item := range history.FormatForDisplay(entries) {
		fmt.Printf("%3d  %s\n", i+1, item)
	}
	return nil
}

func historyWatchRun(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid entry %q", args[0])
	}

	var entries []media.HistoryEntry
	err = withHistory(func(s *history.Store) error {
		var err error
		entries, err = s.List(cmd.Context(), n)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if n > len(entries) {
		return fmt.Errorf("history has %d entries", len(entries))
	}

	selected := entries[n-1]
	debugf("rewatching %s (last server %s)", selected.Slug, selected.Server)
	return watchVideo(cmd.Context(), selected.Slug, selected.ServerURL)
}
