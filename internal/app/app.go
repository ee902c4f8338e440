// Package app wires config, logging, storage, the Restreamer controller and
// the scheduler into one daemon, and owns the dispatch loop.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"restreamctl/internal/config"
	"restreamctl/internal/notify"
	"restreamctl/internal/restreamer"
	"restreamctl/internal/runtime/supervisor"
	"restreamctl/internal/scheduler"
	"restreamctl/internal/session"
	"restreamctl/internal/storage"
	logx "restreamctl/pkg/logx"
)

const (
	jobConnect    = "stream.connect"
	jobDisconnect = "stream.disconnect"
	jobRefresh    = "token.refresh"

	defaultRefreshInterval = 10 * time.Minute
)

// streamControl is the slice of the controller the dispatch loop needs.
type streamControl interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type App struct {
	cfgm *config.Manager

	logSvc *logx.Service
	log    logx.Logger

	store storage.Store
	notif *notify.Service // nil when telegram is disabled

	sess   *session.Session
	ctl    *restreamer.Controller
	stream streamControl

	sched   *scheduler.Scheduler
	refresh time.Duration

	sup *supervisor.Supervisor

	// lastCfg is the config currently in effect, used for reload diffs.
	lastCfg *config.Config
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || !cfg.Logging.File.Enabled,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	a := &App{
		cfgm:    cfgm,
		logSvc:  logSvc,
		log:     log,
		sess:    session.New(),
		lastCfg: cfg,
	}

	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

// build constructs everything downstream of config. Called once from NewApp;
// hot reload swaps individual pieces instead of rebuilding wholesale.
func (a *App) build(cfg *config.Config) error {
	d, err := config.ParseDurationOrDefault("refresh_interval", cfg.RefreshInterval, defaultRefreshInterval)
	if err != nil {
		return err
	}
	a.refresh = d

	st, err := storage.Open(storageConfig(cfg.Storage), a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return err
	}
	a.store = st

	notifier := notify.Notifier(notify.Nop{})
	if cfg.Telegram != nil && cfg.Telegram.Enabled {
		sender, err := notify.NewTelegramSender(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		a.notif = notify.New(notify.Config{
			Token:      cfg.Telegram.Token,
			ChatID:     cfg.Telegram.ChatID,
			RatePerSec: cfg.Telegram.RatePerSec,
		}, sender, a.log.With(logx.String("comp", "notify")))
		notifier = a.notif
	}

	opts := []restreamer.ControllerOption{restreamer.WithNotifier(notifier)}
	if a.store != nil {
		opts = append(opts, restreamer.WithStore(a.store))
	}
	a.ctl = restreamer.NewController(
		restreamer.NewClient(cfg.ServerAddress),
		a.sess,
		restreamer.Credentials{Username: cfg.Username, Password: cfg.Password},
		cfg.ProcessID,
		a.log.With(logx.String("comp", "stream")),
		opts...,
	)
	a.stream = a.ctl

	sched, err := a.buildScheduler(cfg)
	if err != nil {
		return err
	}
	a.sched = sched
	return nil
}

// buildScheduler registers the daily switch jobs and the token refresh job.
// An unset daily time degrades to "not scheduled"; a malformed one is fatal.
func (a *App) buildScheduler(cfg *config.Config) (*scheduler.Scheduler, error) {
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("timezone: invalid %q: %w", tz, err)
		}
		loc = l
	}

	sched := scheduler.New(loc, a.log.With(logx.String("comp", "scheduler")))

	if ct := strings.TrimSpace(cfg.ConnectTime); ct != "" {
		if err := sched.AddDaily(jobConnect, ct, a.ctl.Connect); err != nil {
			return nil, err
		}
	} else {
		a.log.Warn("connect_time not set; daily connect is disabled")
	}
	if dt := strings.TrimSpace(cfg.DisconnectTime); dt != "" {
		if err := sched.AddDaily(jobDisconnect, dt, a.ctl.Disconnect); err != nil {
			return nil, err
		}
	} else {
		a.log.Warn("disconnect_time not set; daily disconnect is disabled")
	}

	if err := sched.AddEvery(jobRefresh, a.refresh, a.ctl.Refresh); err != nil {
		return nil, err
	}
	return sched, nil
}

// Run performs the initial login and drives the dispatch loop until ctx is
// canceled or the operator quits.
func (a *App) Run(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))
	defer a.shutdown()

	loginCtx, cancel := context.WithTimeout(a.sup.Context(), 30*time.Second)
	err := a.ctl.Login(loginCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("initial login: %w", err)
	}

	if a.notif != nil {
		a.sup.Go0("notify.worker", a.notif.Run)
	}

	var sub chan *config.Config
	if a.lastCfg.WatchConfig {
		a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		a.cfgm.SetValidator(validateReload)
		sub = a.cfgm.Subscribe(4)
		defer a.cfgm.Unsubscribe(sub)
		a.sup.Go("config.watch", a.cfgm.Watch)
	}

	// The reader sits in an uncancelable stdin read, so it runs outside the
	// supervisor; process exit reaps it.
	inputs := make(chan string, 4)
	go readConsole(a.sup.Context(), inputs)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("daemon started",
		logx.String("server", a.lastCfg.ServerAddress),
		logx.String("process", a.lastCfg.ProcessID),
		logx.Int("jobs", a.sched.Len()),
	)
	printPrompt()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.sup.Context().Done():
			return a.sup.Err()
		case now := <-ticker.C:
			a.sched.RunPending(a.sup.Context(), now)
		case line, ok := <-inputs:
			if !ok {
				// stdin closed (service mode); keep running on schedule only
				a.log.Debug("console input closed; scheduled mode only")
				inputs = nil
				continue
			}
			if quit := a.handleCommand(a.sup.Context(), line); quit {
				return nil
			}
		case newCfg, ok := <-sub:
			if !ok {
				sub = nil
				continue
			}
			a.applyConfig(newCfg)
		}
	}
}

// applyConfig applies a hot-reloaded config. It runs on the dispatch loop
// goroutine, so scheduler and controller swaps need no locking.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	sections, attrs := config.SummarizeChange(a.lastCfg, cfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, no effective changes")
		return
	}

	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || !cfg.Logging.File.Enabled,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	for _, sec := range sections {
		switch sec {
		case "server", "credentials":
			a.ctl.Rebind(
				restreamer.NewClient(cfg.ServerAddress),
				restreamer.Credentials{Username: cfg.Username, Password: cfg.Password},
				cfg.ProcessID,
			)
		case "schedule":
			if d, err := config.ParseDurationOrDefault("refresh_interval", cfg.RefreshInterval, defaultRefreshInterval); err == nil {
				a.refresh = d
			}
			sched, err := a.buildScheduler(cfg)
			if err != nil {
				a.log.Warn("schedule change rejected; keeping previous jobs", logx.Err(err))
				continue
			}
			a.sched = sched
		case "storage", "telegram":
			a.log.Warn("config section changed; takes effect on restart", logx.String("section", sec))
		}
	}

	a.lastCfg = cfg
	a.log.Info("config reloaded",
		append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
}

// validateReload is the Manager validator: a bad edit must never replace a
// working config.
func validateReload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if ct := strings.TrimSpace(cfg.ConnectTime); ct != "" {
		if _, _, err := scheduler.ParseClock(ct); err != nil {
			return fmt.Errorf("connect_time: %w", err)
		}
	}
	if dt := strings.TrimSpace(cfg.DisconnectTime); dt != "" {
		if _, _, err := scheduler.ParseClock(dt); err != nil {
			return fmt.Errorf("disconnect_time: %w", err)
		}
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("timezone: invalid %q: %w", tz, err)
		}
	}
	if _, err := config.ParseDurationOrDefault("refresh_interval", cfg.RefreshInterval, defaultRefreshInterval); err != nil {
		return err
	}
	return nil
}

func (a *App) shutdown() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping")

	a.sup.Cancel()
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := a.sup.Wait(waitCtx); err != nil {
		a.log.Warn("workers did not stop cleanly", logx.Err(err))
	}
	cancel()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	a.log.Info("stopped")
	_ = a.logSvc.Close()
}

func storageConfig(sc *config.StorageConfig) storage.Config {
	if sc == nil {
		return storage.Config{}
	}
	busy, _ := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, 0)
	return storage.Config{
		Driver:      strings.ToLower(strings.TrimSpace(sc.Driver)),
		Path:        strings.TrimSpace(sc.Path),
		BusyTimeout: busy,
	}
}
