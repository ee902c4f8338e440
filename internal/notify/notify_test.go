package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	logx "restreamctl/pkg/logx"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestNotifyDelivers(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	s := New(Config{ChatID: 7, RatePerSec: 10}, fs, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Notify("stream connected", "process 42")
	s.Notify("", "refresh failed")

	deadline := time.After(2 * time.Second)
	for len(fs.all()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for delivery, got %v", fs.all())
		case <-time.After(10 * time.Millisecond):
		}
	}

	got := fs.all()
	if got[0] != "stream connected\nprocess 42" {
		t.Fatalf("unexpected first message %q", got[0])
	}
	if got[1] != "refresh failed" {
		t.Fatalf("unexpected second message %q", got[1])
	}

	cancel()
	<-done
}

func TestNotifyRateLimitDrops(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	// Burst of 1: the second immediate Notify must be dropped, not queued.
	s := New(Config{ChatID: 7, RatePerSec: 1}, fs, logx.Nop())

	s.Notify("first", "")
	s.Notify("second", "")

	if len(s.queue) != 1 {
		t.Fatalf("queue len = %d, want 1 (second message rate-limited away)", len(s.queue))
	}
}

func TestNopNotifier(t *testing.T) {
	t.Parallel()
	var n Notifier = Nop{}
	n.Notify("anything", "goes") // must not panic or block
}
