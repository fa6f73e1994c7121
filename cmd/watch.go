package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"mirrorplay/internal/catalog"
	"mirrorplay/internal/failover"
	"mirrorplay/internal/history"
	"mirrorplay/internal/httputil"
	"mirrorplay/internal/media"
	"mirrorplay/internal/open"
	"mirrorplay/internal/player"
	"mirrorplay/internal/probe"
	"mirrorplay/internal/servers"
	"mirrorplay/internal/tui"
	"mirrorplay/internal/views"
)

var watchCmd = &cobra.Command{
	Use:         "watch <slug>",
	Short:       "Find a working server for a video and play it",
	Args:        cobra.ExactArgs(1),
	RunE:        watchRun,
	Annotations: tuiCommand,
}

// watchRun is the default command: mirrorplay <slug>
func watchRun(cmd *cobra.Command, args []string) error {
	return watchVideo(cmd.Context(), args[0], "")
}

// watchVideo resolves and plays one video. lastURL, when set and no
// --server was given, is tried first as if the viewer had picked it.
func watchVideo(ctx context.Context, slug, lastURL string) error {
	video, list, err := loadServers(ctx, slug)
	if err != nil {
		return err
	}

	ctrl := failover.New(list, cfg.Premium)
	if err := applyServerFlag(ctrl); err != nil {
		return err
	}
	if flagServer == "" && lastURL != "" {
		if i, ok := indexOfURL(list, lastURL); ok && i != 0 && ctrl.CanSelect(i) == nil {
			debugf("starting on %d, the server that played last time", i)
			ctrl.Select(i)
		}
	}

	store := openHistory()
	if store != nil {
		defer store.Close()
	}
	tracker := views.NewTracker(cfg.Base, nil)
	p := player.New(cfg.Player)

	if interactive() {
		st, err := tui.Run(ctx, tui.Options{
			Slug:       slug,
			Video:      video,
			Controller: ctrl,
			Prober:     probe.New(nil),
			Player:     p,
			History:    store,
			Views:      tracker,
			Open:       open.Start,
			AutoPlay:   flagAuto,
		})
		debugf("selector closed in phase %s", st.Phase)
		return err
	}

	tracker.TrackAsync(media.ContentVideo, contentID(video, slug), func(n int64) {
		debugf("views: %d", n)
	})
	return resolveAndPlay(ctx, video, slug, ctrl, p, store)
}

// loadServers fetches a video and builds its server list.
func loadServers(ctx context.Context, slug string) (*media.Video, *servers.List, error) {
	if err := httputil.ValidateSlug(slug); err != nil {
		return nil, nil, fmt.Errorf("invalid slug: %w", err)
	}

	src, err := catalog.New(cfg.Source, cfg.Base, nil)
	if err != nil {
		return nil, nil, err
	}
	debugf("loading %s from %s (%s)", slug, cfg.Base, cfg.Source)

	video, err := src.Video(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("loading video: %w", err)
	}

	list, err := servers.FromVideo(*video)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", slug, err)
	}
	debugf("%d servers, premium available: %t", list.Len(), hasPremium(list))
	return video, list, nil
}

// applyServerFlag turns --server into an initial manual selection.
func applyServerFlag(ctrl *failover.Controller) error {
	idx, ok, err := parseServerFlag(flagServer)
	if err != nil || !ok {
		return err
	}
	if err := ctrl.CanSelect(idx); err != nil {
		return err
	}
	ctrl.Select(idx)
	return nil
}

// parseServerFlag maps "", "N" (1-based) and "premium" to a server index.
func parseServerFlag(v string) (int, bool, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	switch v {
	case "":
		return 0, false, nil
	case "premium", "no-ads", "noads":
		return servers.PremiumIndex, true, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false, fmt.Errorf("invalid --server %q: want a number from 1 or \"premium\"", v)
	}
	return n - 1, true, nil
}

type watchResult struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Server    string `json:"server"`
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	Attempted []int  `json:"attempted,omitempty"`
}

// resolveAndPlay runs failover headless, then prints or plays the result.
// A player that gives up early counts as a failure of that server and
// failover resumes from there.
func resolveAndPlay(ctx context.Context, video *media.Video, slug string, ctrl *failover.Controller, p player.Player, store *history.Store) error {
	prober := probe.New(nil)
	title := video.Title
	if title == "" {
		title = slug
	}

	for {
		srv, st, err := failover.Resolve(ctx, ctrl, prober)
		if err != nil {
			return fmt.Errorf("no playable server: %w", err)
		}
		debugf("playing from %s (%s) after attempt %d", srv.Name, srv.URL, st.Attempt)

		if store != nil {
			entry := media.HistoryEntry{Slug: slug, Title: title, Server: srv.Name, ServerURL: srv.URL}
			if err := store.Save(ctx, entry); err != nil {
				debugf("saving history failed: %v", err)
			}
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(watchResult{
				Slug:      slug,
				Title:     title,
				Server:    srv.Name,
				URL:       srv.URL,
				Kind:      srv.Kind.String(),
				Attempted: st.Attempted,
			})
		}

		err = player.Play(p, srv.URL, title)
		if err == nil {
			return nil
		}
		if !errors.Is(err, player.ErrPlaybackFailed) {
			return fmt.Errorf("playback failed: %w", err)
		}

		fmt.Fprintf(os.Stderr, "%s: %v, trying the next server\n", srv.Name, err)
		ctrl.ReportPlaybackFailure(st.Attempt, err)
		if ph := ctrl.State().Phase; ph != failover.Loading {
			return fmt.Errorf("no playable server: %w", ctrl.State().Err)
		}
	}
}

func openHistory() *history.Store {
	if !cfg.History {
		return nil
	}
	path, err := cfg.HistoryFile()
	if err != nil {
		debugf("history disabled: %v", err)
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		debugf("history disabled: %v", err)
		return nil
	}
	return store
}

func contentID(v *media.Video, slug string) string {
	if v != nil && v.ID != "" {
		return v.ID
	}
	return slug
}

// indexOfURL finds the server with the given URL, premium included.
func indexOfURL(l *servers.List, url string) (int, bool) {
	if p, ok := l.Premium(); ok && p.URL == url {
		return servers.PremiumIndex, true
	}
	for i, s := range l.All() {
		if s.URL == url {
			return i, true
		}
	}
	return 0, false
}

func hasPremium(l *servers.List) bool {
	_, ok := l.Premium()
	return ok
}
