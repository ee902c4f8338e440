package restreamer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restreamctl/internal/notify"
	"restreamctl/internal/session"
	"restreamctl/internal/storage"
	logx "restreamctl/pkg/logx"
)

// Credentials is what the controller re-logs-in with.
type Credentials struct {
	Username string
	Password string
}

// Controller owns the stream lifecycle: the two-leg connect/disconnect
// composites and the periodic token refresh. It is driven from the single
// event loop, so its mutable fields need no locking; the session it shares
// with dispatch guards itself.
type Controller struct {
	log      logx.Logger
	client   *Client
	sess     *session.Session
	creds    Credentials
	process  string
	store    storage.Store // nil when storage is disabled
	notifier notify.Notifier
}

// ControllerOption customises Controller construction.
type ControllerOption func(*Controller)

// WithStore records every dispatched command in the given audit store.
func WithStore(st storage.Store) ControllerOption {
	return func(c *Controller) { c.store = st }
}

// WithNotifier posts stream/refresh outcomes to the given notifier.
func WithNotifier(n notify.Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

func NewController(client *Client, sess *session.Session, creds Credentials, processID string, log logx.Logger, opts ...ControllerOption) *Controller {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Controller{
		log:      log,
		client:   client,
		sess:     sess,
		creds:    creds,
		process:  processID,
		notifier: notify.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rebind swaps the client, credentials, and process target, e.g. after a
// config reload. Must be called from the loop goroutine that also dispatches.
func (c *Controller) Rebind(client *Client, creds Credentials, processID string) {
	c.client = client
	c.creds = creds
	c.process = processID
}

// Login authenticates and stores the token in the shared session.
// Startup treats an error here as fatal.
func (c *Controller) Login(ctx context.Context) error {
	token, err := c.client.Login(ctx, c.creds.Username, c.creds.Password)
	if err != nil {
		return err
	}
	c.sess.Set(token)
	return nil
}

// Refresh re-authenticates and rebinds the session token. On failure the
// previous token stays in place and the error is reported, not escalated.
func (c *Controller) Refresh(ctx context.Context) error {
	start := time.Now()
	err := c.Login(ctx)
	c.audit(ctx, storage.CommandEntry{
		At:     start,
		Op:     "refresh",
		OK:     err == nil,
		Error:  errString(err),
		TookMS: time.Since(start).Milliseconds(),
	})
	if err != nil {
		c.log.Error("token refresh failed, keeping previous token", logx.Err(err))
		c.notifier.Notify("token refresh failed", err.Error())
		return err
	}
	c.log.Info("access token refreshed")
	return nil
}

// Connect starts the stream: primary ingest first, then the snapshot
// sub-process. Best-effort: the snapshot leg runs even if the primary fails.
func (c *Controller) Connect(ctx context.Context) error {
	c.log.Info("connecting stream", logx.String("process", c.process))
	err := errors.Join(
		c.sendLeg(ctx, "connect", CommandStart, false),
		c.sendLeg(ctx, "connect", CommandStart, true),
	)
	if err != nil {
		c.notifier.Notify("stream connect incomplete", err.Error())
		return err
	}
	c.log.Info("stream connection initiated", logx.String("process", c.process))
	c.notifier.Notify("stream connected", "process "+c.process)
	return nil
}

// Disconnect stops the stream, mirroring Connect: snapshot first, then the
// primary ingest process.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.log.Info("disconnecting stream", logx.String("process", c.process))
	err := errors.Join(
		c.sendLeg(ctx, "disconnect", CommandStop, true),
		c.sendLeg(ctx, "disconnect", CommandStop, false),
	)
	if err != nil {
		c.notifier.Notify("stream disconnect incomplete", err.Error())
		return err
	}
	c.log.Info("stream disconnection initiated", logx.String("process", c.process))
	c.notifier.Notify("stream disconnected", "process "+c.process)
	return nil
}

func (c *Controller) sendLeg(ctx context.Context, op string, cmd Command, snapshot bool) error {
	target := ProcessRef(c.process, snapshot)
	start := time.Now()
	err := c.client.SendCommand(ctx, c.process, c.sess.Token(), cmd, snapshot)
	c.audit(ctx, storage.CommandEntry{
		At:       start,
		Op:       op,
		Target:   target,
		Command:  string(cmd),
		Snapshot: snapshot,
		OK:       err == nil,
		Error:    errString(err),
		TookMS:   time.Since(start).Milliseconds(),
	})
	if err != nil {
		c.log.Error("command failed", logx.String("target", target), logx.String("command", string(cmd)), logx.Err(err))
		return fmt.Errorf("%s: %w", target, err)
	}
	c.log.Info("command sent", logx.String("target", target), logx.String("command", string(cmd)))
	return nil
}

func (c *Controller) audit(ctx context.Context, e storage.CommandEntry) {
	if c.store == nil {
		return
	}
	if err := c.store.AppendCommand(ctx, e); err != nil {
		c.log.Warn("audit write failed", logx.Err(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
