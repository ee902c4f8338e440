package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "restreamctl/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) should return a nil store", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "store")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	entries := []CommandEntry{
		{At: now, Op: "connect", Target: "restreamer-ui:ingest:42", Command: "start", OK: true, TookMS: 12},
		{At: now.Add(time.Second), Op: "connect", Target: "restreamer-ui:ingest:42_snapshot", Command: "start", Snapshot: true, OK: true},
		{At: now.Add(2 * time.Second), Op: "refresh", OK: false, Error: "login: 500"},
	}
	for _, e := range entries {
		if err := st.AppendCommand(ctx, e); err != nil {
			t.Fatalf("AppendCommand: %v", err)
		}
	}

	got, err := st.RecentCommands(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommands: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	if got[0].Op != "connect" || !got[0].OK || got[0].Command != "start" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[2].Op != "refresh" || got[2].OK || got[2].Error == "" {
		t.Fatalf("unexpected last entry: %+v", got[2])
	}
}

func TestFileStoreRecentLimit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "store")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		e := CommandEntry{At: time.Now(), Op: "connect", Command: "start", OK: true, TookMS: int64(i)}
		if err := st.AppendCommand(ctx, e); err != nil {
			t.Fatalf("AppendCommand: %v", err)
		}
	}

	got, err := st.RecentCommands(ctx, 3)
	if err != nil {
		t.Fatalf("RecentCommands: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// Tail of the log, oldest first.
	if got[0].TookMS != 7 || got[2].TookMS != 9 {
		t.Fatalf("unexpected tail: %+v", got)
	}
}

func TestFileStoreMissingPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing path")
	}
}
