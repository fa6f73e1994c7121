package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mirrorplay/internal/media"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := media.HistoryEntry{
		Slug:      "harbor-lights",
		Title:     "Harbor Lights",
		Server:    "Streamtape",
		ServerURL: "https://streamtape.example/e/hl01",
		WatchedAt: time.UnixMilli(1_700_000_000_000),
	}
	if err := s.Save(ctx, entry); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.Slug != entry.Slug || got.Title != entry.Title || got.Server != entry.Server || got.ServerURL != entry.ServerURL {
		t.Errorf("got %+v, want %+v", got, entry)
	}
	if !got.WatchedAt.Equal(entry.WatchedAt) {
		t.Errorf("WatchedAt = %v, want %v", got.WatchedAt, entry.WatchedAt)
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Save(ctx, media.HistoryEntry{Slug: "a", Title: "A", Server: "Server 1"})
	s.Save(ctx, media.HistoryEntry{Slug: "a", Title: "A", Server: "Server 3"})

	entries, _ := s.List(ctx, 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after update, got %d", len(entries))
	}
	if entries[0].Server != "Server 3" {
		t.Errorf("server = %q, want Server 3", entries[0].Server)
	}
}

func TestListOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	s.Save(ctx, media.HistoryEntry{Slug: "old", Title: "Old", WatchedAt: base})
	s.Save(ctx, media.HistoryEntry{Slug: "new", Title: "New", WatchedAt: base.Add(time.Hour)})
	s.Save(ctx, media.HistoryEntry{Slug: "mid", Title: "Mid", WatchedAt: base.Add(time.Minute)})

	entries, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Slug != "new" || entries[1].Slug != "mid" {
		t.Errorf("order = %s, %s; want new, mid", entries[0].Slug, entries[1].Slug)
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Save(ctx, media.HistoryEntry{Slug: "a", Title: "A"})
	s.Save(ctx, media.HistoryEntry{Slug: "b", Title: "B"})

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove() of missing entry should not error: %v", err)
	}

	entries, _ := s.List(ctx, 0)
	if len(entries) != 1 || entries[0].Slug != "b" {
		t.Fatalf("after remove: %+v", entries)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	entries, _ = s.List(ctx, 0)
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Save(context.Background(), media.HistoryEntry{Slug: "kept", Title: "Kept"})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	entries, _ := s.List(context.Background(), 0)
	if len(entries) != 1 || entries[0].Slug != "kept" {
		t.Errorf("entries after reopen = %+v", entries)
	}
}

func TestFormatForDisplay(t *testing.T) {
	at := time.Date(2024, 3, 9, 21, 5, 0, 0, time.Local)
	entries := []media.HistoryEntry{
		{Slug: "harbor-lights", Title: "Harbor Lights", Server: "Streamtape", WatchedAt: at},
		{Slug: "untitled-clip", Server: "No Ads", WatchedAt: at},
	}

	items := FormatForDisplay(entries)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0] != "Harbor Lights  [Streamtape]  2024-03-09 21:05" {
		t.Errorf("items[0] = %q", items[0])
	}
	if items[1] != "untitled-clip  [No Ads]  2024-03-09 21:05" {
		t.Errorf("items[1] = %q", items[1])
	}
}
