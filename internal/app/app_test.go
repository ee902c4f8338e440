package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"restreamctl/internal/config"
	"restreamctl/internal/scheduler"
	logx "restreamctl/pkg/logx"
)

type fakeStream struct {
	connects    int
	disconnects int
	refreshes   int
	err         error
}

func (f *fakeStream) Connect(context.Context) error    { f.connects++; return f.err }
func (f *fakeStream) Disconnect(context.Context) error { f.disconnects++; return f.err }
func (f *fakeStream) Refresh(context.Context) error    { f.refreshes++; return f.err }

func newTestApp(fs *fakeStream) *App {
	return &App{
		log:    logx.Nop(),
		stream: fs,
		sched:  scheduler.New(time.UTC, logx.Nop()),
	}
}

func TestHandleCommandDispatch(t *testing.T) {
	fs := &fakeStream{}
	a := newTestApp(fs)
	ctx := context.Background()

	cases := []struct {
		cmd  string
		quit bool
	}{
		{"c", false},
		{"d", false},
		{"r", false},
		{"C", false}, // case-insensitive
		{"s", false},
		{"h", false},
		{"x", false}, // unknown, re-prompts
		{"q", true},
	}
	for _, tc := range cases {
		if got := a.handleCommand(ctx, tc.cmd); got != tc.quit {
			t.Fatalf("handleCommand(%q) quit = %v, want %v", tc.cmd, got, tc.quit)
		}
	}
	if fs.connects != 2 || fs.disconnects != 1 || fs.refreshes != 1 {
		t.Fatalf("dispatch counts = %d/%d/%d, want 2/1/1", fs.connects, fs.disconnects, fs.refreshes)
	}
}

func TestHandleCommandErrorDoesNotQuit(t *testing.T) {
	fs := &fakeStream{err: errors.New("down")}
	a := newTestApp(fs)
	if a.handleCommand(context.Background(), "c") {
		t.Fatal("a failed connect must not quit the loop")
	}
}

func TestValidateReload(t *testing.T) {
	base := config.Config{
		ServerAddress: "http://r.example",
		Username:      "u",
		Password:      "p",
		ProcessID:     "42",
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"minimal", func(*config.Config) {}, true},
		{"good times", func(c *config.Config) { c.ConnectTime = "08:30"; c.DisconnectTime = "23:00" }, true},
		{"bad connect time", func(c *config.Config) { c.ConnectTime = "25:00" }, false},
		{"bad disconnect time", func(c *config.Config) { c.DisconnectTime = "nope" }, false},
		{"bad timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }, false},
		{"bad refresh", func(c *config.Config) { c.RefreshInterval = "soon" }, false},
		{"good refresh", func(c *config.Config) { c.RefreshInterval = "5m" }, true},
		{"missing required", func(c *config.Config) { c.Password = "" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := validateReload(&cfg)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStorageConfigMapping(t *testing.T) {
	if got := storageConfig(nil); got.Driver != "" {
		t.Fatalf("nil block should map to disabled storage, got %+v", got)
	}
	got := storageConfig(&config.StorageConfig{Driver: " File ", Path: " ./store ", BusyTimeout: "2s"})
	if got.Driver != "file" || got.Path != "./store" || got.BusyTimeout != 2*time.Second {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}
