// Package notify posts operational events (stream switched, refresh failed)
// to a Telegram chat. It is send-only: a queue plus one worker, rate-limited,
// dropping when saturated so the dispatch loop is never blocked.
package notify

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "restreamctl/pkg/logx"
)

// Notifier is what the controller sees. The zero-config implementation is Nop.
type Notifier interface {
	Notify(title, message string)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(string, string) {}

type Config struct {
	Token      string
	ChatID     int64
	RatePerSec int
}

// Sender abstracts the chat transport so tests can substitute a fake.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type item struct {
	title string
	body  string
}

// Service queues notifications for a single background worker.
type Service struct {
	log     logx.Logger
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	queue   chan item
}

func New(cfg Config, sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Service{
		log:     log,
		sender:  sender,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		queue:   make(chan item, 64),
	}
}

// Notify enqueues a notification. Saturation or rate-limit overflow drops the
// message; core behavior never waits on Telegram.
func (s *Service) Notify(title, message string) {
	if !s.limiter.Allow() {
		return
	}
	select {
	case s.queue <- item{title: title, body: message}:
	default:
		s.log.Debug("notification dropped (queue full)", logx.String("title", title))
	}
}

// Run delivers queued notifications until ctx is done.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-s.queue:
			sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := s.sender.Send(sctx, s.chatID, format(it))
			cancel()
			if err != nil {
				s.log.Warn("notification send failed", logx.String("title", it.title), logx.Err(err))
			}
		}
	}
}

func format(it item) string {
	title := strings.TrimSpace(it.title)
	body := strings.TrimSpace(it.body)
	if title == "" {
		return body
	}
	if body == "" {
		return title
	}
	return title + "\n" + body
}
