package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/depotctl/depotctl/internal/api"
	"github.com/depotctl/depotctl/internal/config"
	"github.com/depotctl/depotctl/internal/daemon"
	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/lock"
	"github.com/depotctl/depotctl/internal/logger"
	"github.com/depotctl/depotctl/internal/notify"
	"github.com/depotctl/depotctl/internal/scheduler"
	"github.com/depotctl/depotctl/internal/state"
)

// WatchService runs the background watcher: a websocket listener for
// push events with a polling fallback that keeps the local activity
// cache current. A file lock and PID file guarantee a single instance.
type WatchService struct {
	mu       sync.RWMutex
	config   *config.Config
	client   *api.Client
	stateMgr *state.Manager
	fileLock *lock.FileLock
	pidFile  *daemon.PIDFile
	notifier *notify.Client
	poller   scheduler.Scheduler
	handler  notify.Handler
	running  bool
}

// WatchStatus reports the watcher's current state
type WatchStatus struct {
	Running     bool
	PID         int
	PollerStats *scheduler.Status
}

// NewWatchService creates a watch service. handler receives every push
// event after it has been logged and cached.
func NewWatchService(cfg *config.Config, client *api.Client, stateMgr *state.Manager, handler notify.Handler) (*WatchService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	fileLock, err := lock.NewFileLock(cfg.LockDir())
	if err != nil {
		return nil, fmt.Errorf("failed to create file lock: %w", err)
	}

	return &WatchService{
		config:   cfg,
		client:   client,
		stateMgr: stateMgr,
		fileLock: fileLock,
		pidFile:  daemon.NewPIDFile(cfg.PIDPath()),
		handler:  handler,
	}, nil
}

// Start acquires the single-instance guards and begins watching
func (w *WatchService) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher is already running")
	}

	if err := w.fileLock.Acquire("watch"); err != nil {
		return err
	}
	if err := w.pidFile.Write(); err != nil {
		w.fileLock.Release()
		return err
	}

	log := logger.Get().With("component", "watch")

	// Prime the activity cache so status queries work offline
	if err := w.refreshActivities(ctx); err != nil {
		log.Warn("initial activity fetch failed", "error", err)
	}

	w.notifier = notify.New(notify.Config{
		URL:           w.config.WebsocketURL(),
		Username:      w.client.Username(),
		MaxRetries:    w.config.Notify.MaxRetries,
		RetryInterval: w.config.Notify.RetryInterval,
	}, w.onEvent, func(lastErr error) {
		log.Warn("switching to polling fallback", "error", lastErr)
		// Runs on the notifier goroutine; Stop may be waiting for
		// that goroutine while holding the mutex
		go func() {
			if err := w.startPoller(ctx); err != nil {
				log.Error("failed to start polling fallback", "error", err)
			}
		}()
	})

	if err := w.notifier.Start(ctx); err != nil {
		w.pidFile.Remove()
		w.fileLock.Release()
		return fmt.Errorf("failed to start notification client: %w", err)
	}

	w.running = true
	log.Info("watcher started", "socket", w.config.WebsocketURL())
	return nil
}

// Stop shuts the watcher down and releases its guards
func (w *WatchService) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return fmt.Errorf("watcher is not running")
	}

	var lastErr error

	if w.notifier != nil {
		w.notifier.Stop()
		w.notifier = nil
	}
	if w.poller != nil {
		if err := w.poller.Stop(); err != nil {
			lastErr = err
		}
		w.poller = nil
	}
	if err := w.pidFile.Remove(); err != nil {
		lastErr = err
	}
	if err := w.fileLock.Release(); err != nil {
		lastErr = err
	}

	w.running = false
	logger.Get().With("component", "watch").Info("watcher stopped")
	return lastErr
}

// Status reports the watcher state, readable from any process via the
// PID file
func (w *WatchService) Status() *WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := &WatchStatus{Running: w.running}
	if w.poller != nil {
		status.PollerStats = w.poller.Status()
	}
	if pid, err := w.pidFile.Read(); err == nil {
		status.PID = pid
		if !w.running {
			running, _ := w.pidFile.IsRunning()
			status.Running = running
		}
	}
	return status
}

// StopRemote signals a watcher running in another process
func (w *WatchService) StopRemote() error {
	running, err := w.pidFile.IsRunning()
	if err != nil {
		return fmt.Errorf("no watcher found: %w", err)
	}
	if !running {
		w.pidFile.Remove()
		return fmt.Errorf("watcher is not running")
	}
	return w.pidFile.Kill()
}

// onEvent logs, caches and forwards one push event
func (w *WatchService) onEvent(event domain.Event) {
	log := logger.Get().With("component", "watch")
	log.Info("event received",
		"type", event.Type,
		"filename", event.Filename,
		"sender", event.Sender)

	// A push implies new server-side activity worth caching
	if err := w.refreshActivities(context.Background()); err != nil {
		log.Warn("activity refresh failed", "error", err)
	}

	if w.handler != nil {
		w.handler(event)
	}
}

// startPoller begins the polling fallback once push delivery is gone
func (w *WatchService) startPoller(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running || w.poller != nil {
		return nil
	}

	poller := scheduler.NewIntervalScheduler(
		scheduler.Config{Interval: w.config.Poll.Interval},
		scheduler.RefresherFunc(w.refreshActivities),
	)
	if err := poller.Start(ctx); err != nil {
		return err
	}
	w.poller = poller
	return nil
}

// refreshActivities pulls the activity feed into the offline cache
func (w *WatchService) refreshActivities(ctx context.Context) error {
	if w.stateMgr == nil {
		return nil
	}
	activities, err := w.client.Activities(ctx)
	if err != nil {
		return err
	}
	return w.stateMgr.CacheActivities(activities)
}
