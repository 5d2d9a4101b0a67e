package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"solarrec/internal/api"
	"solarrec/internal/config"
	"solarrec/internal/logging"
	"solarrec/internal/pipeline"
	"solarrec/internal/recording"
	"solarrec/internal/synclog"
)

// Daemon runs the ingestion API and the background pipeline, and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	service      *api.Service
	orchestrator *pipeline.Orchestrator
	records      *recording.Store
	log          *synclog.Store

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, service *api.Service, orchestrator *pipeline.Orchestrator, records *recording.Store, log *synclog.Store) (*Daemon, error) {
	if cfg == nil || logger == nil || service == nil || orchestrator == nil {
		return nil, errors.New("daemon requires config, logger, service, and orchestrator")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "solarrecd.lock")
	return &Daemon{
		cfg:          cfg,
		logger:       logger,
		service:      service,
		orchestrator: orchestrator,
		records:      records,
		log:          log,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another solarrec daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	server, err := newAPIServer(d.cfg, d.service, d.logger)
	if err != nil {
		d.releaseStart()
		return err
	}
	d.server = server
	if err := d.server.start(d.ctx); err != nil {
		d.releaseStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("solarrec daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.cfg.Paths.APIBind))
	return nil
}

func (d *Daemon) releaseStart() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
}

// Stop shuts down the API, drains in-flight pipeline runs, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.server != nil {
		d.server.stop()
		d.server = nil
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.orchestrator.Stop(drainCtx); err != nil {
		d.logger.Warn("pipeline did not drain cleanly", logging.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("solarrec daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if d.records != nil {
		firstErr = d.records.Close()
	}
	if d.log != nil {
		if err := d.log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Running reports whether the daemon has started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the single-instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
