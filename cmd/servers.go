package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"mirrorplay/internal/failover"
	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
	"mirrorplay/internal/probe"
	"mirrorplay/internal/servers"
)

var flagCheck bool

var serversCmd = &cobra.Command{
	Use:   "servers <slug>",
	Short: "List a video's playback servers in failover order",
	Args:  cobra.ExactArgs(1),
	RunE:  serversRun,
}

func init() {
	serversCmd.Flags().BoolVarP(&flagCheck, "check", "c", false, "Probe every server and report which ones load")
}

type serverRow struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Kind       string `json:"kind"`
	Selectable bool   `json:"selectable"`
	Status     string `json:"status,omitempty"`
}

func serversRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, list, err := loadServers(ctx, args[0])
	if err != nil {
		return err
	}

	rows := serverRows(list, cfg.Premium)
	if flagCheck {
		checkServers(ctx, probe.New(nil), list, rows)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, r := range rows {
		label := fmt.Sprintf("%2d", r.Index+1)
		if r.Index == servers.PremiumIndex {
			label = " ★"
		}
		line := fmt.Sprintf("%s  %-12s %-5s %s", label, r.Name, r.Kind, r.URL)
		if !r.Selectable && r.Status == "" {
			line += "  (premium only)"
		}
		if r.Status != "" {
			line += "  " + r.Status
		}
		fmt.Println(line)
	}
	return nil
}

func serverRows(list *servers.List, entitled bool) []serverRow {
	rows := make([]serverRow, 0, list.Len()+1)
	add := func(i int, s media.Server) {
		rows = append(rows, serverRow{
			Index:      i,
			Name:       s.Name,
			URL:        s.URL,
			Kind:       s.Kind.String(),
			Selectable: servers.IsSelectable(s, entitled),
		})
	}
	for i, s := range list.All() {
		add(i, s)
	}
	if p, ok := list.Premium(); ok {
		add(servers.PremiumIndex, p)
	}
	return rows
}

// checkServers probes all selectable servers concurrently, each bounded by
// the monitor timeout, and fills in their status. Gated servers the viewer
// cannot use are not contacted.
func checkServers(ctx context.Context, prober failover.Prober, list *servers.List, rows []serverRow) {
	var wg sync.WaitGroup
	for i := range rows {
		if !rows[i].Selectable {
			rows[i].Status = "premium only"
			continue
		}
		srv, _ := list.At(rows[i].Index)
		wg.Add(1)
		go func(row *serverRow) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, monitor.DefaultTimeout)
			defer cancel()

			start := time.Now()
			err := prober.Probe(pctx, srv)
			switch {
			case err == nil:
				row.Status = fmt.Sprintf("ok (%s)", time.Since(start).Round(time.Millisecond))
			case pctx.Err() == context.DeadlineExceeded:
				row.Status = "timed out"
			default:
				row.Status = "failed: " + err.Error()
			}
			debugf("probe %s: %s", srv.Name, row.Status)
		}(&rows[i])
	}
	wg.Wait()
}
