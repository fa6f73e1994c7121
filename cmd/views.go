package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mirrorplay/internal/media"
	"mirrorplay/internal/views"
)

var viewsCmd = &cobra.Command{
	Use:   "views <video|picture> <id>",
	Short: "Record a view for a catalog item",
	Args:  cobra.ExactArgs(2),
	RunE:  viewsRun,
}

func viewsRun(cmd *cobra.Command, args []string) error {
	ct, ok := media.ParseContentType(args[0])
	if !ok {
		return fmt.Errorf("unknown content type %q (valid: video, picture)", args[0])
	}

	n, ok, err := views.NewTracker(cfg.Base, nil).Track(cmd.Context(), ct, args[1])
	if err != nil {
		return fmt.Errorf("recording view: %w", err)
	}
	if ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%d views\n", n)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "view recorded")
	}
	return nil
}
