package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/infrastructure/config"
	"go.uber.org/zap"
)

// InboxPollerConfig holds configuration for the inbox poller
type InboxPollerConfig struct {
	Dir             string
	PollInterval    time.Duration
	POPattern       string
	LineItemPattern string
}

// NewInboxPollerConfig maps the application config
func NewInboxPollerConfig(cfg config.InboxConfig) InboxPollerConfig {
	return InboxPollerConfig{
		Dir:             cfg.Dir,
		PollInterval:    cfg.PollInterval,
		POPattern:       cfg.POPattern,
		LineItemPattern: cfg.LineItemPattern,
	}
}

// InboxPoller watches a directory for ERP exports and queues them for import.
// Purchase order files are always queued ahead of line item files found in
// the same scan so new orders exist before their items arrive.
type InboxPoller struct {
	config    InboxPollerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewInboxPoller creates a new inbox poller
func NewInboxPoller(config InboxPollerConfig, scheduler *Scheduler, logger *zap.Logger) *InboxPoller {
	return &InboxPoller{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start scans once immediately and then on every poll interval
func (p *InboxPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Inbox poller started",
		zap.String("dir", p.config.Dir),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop stops the poller
func (p *InboxPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Inbox poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *InboxPoller) runLoop(ctx context.Context) {
	defer p.wg.Done()

	p.scanAndLog()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scanAndLog()
		}
	}
}

func (p *InboxPoller) scanAndLog() {
	n, err := p.Scan()
	if err != nil {
		p.logger.Error("Inbox scan failed", zap.String("dir", p.config.Dir), zap.Error(err))
		return
	}
	if n > 0 {
		p.logger.Info("Inbox files queued", zap.Int("count", n))
	}
}

// Classify maps a file name to the entity it holds
func (p *InboxPoller) Classify(name string) (bulk.ImportEntityType, bool) {
	if ok, _ := filepath.Match(p.config.POPattern, name); ok {
		return bulk.ImportEntityPurchaseOrders, true
	}
	if ok, _ := filepath.Match(p.config.LineItemPattern, name); ok {
		return bulk.ImportEntityLineItems, true
	}
	return "", false
}

// Scan queues every recognised file in the inbox in name order and returns
// how many were submitted. Files already queued are left alone.
func (p *InboxPoller) Scan() (int, error) {
	entries, err := os.ReadDir(p.config.Dir)
	if err != nil {
		return 0, err
	}

	var orders, items []*Job
	for _, entry := range entries {
		name := entry.Name()
		// editors and uploaders write dotfiles before renaming into place
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		entity, ok := p.Classify(name)
		if !ok {
			p.logger.Debug("Ignoring unrecognised inbox file", zap.String("file", name))
			continue
		}
		job := NewJob(entity, filepath.Join(p.config.Dir, name))
		if entity == bulk.ImportEntityPurchaseOrders {
			orders = append(orders, job)
		} else {
			items = append(items, job)
		}
	}

	submitted := 0
	for _, job := range append(orders, items...) {
		switch err := p.scheduler.Submit(job); {
		case err == nil:
			submitted++
		case errors.Is(err, ErrJobAlreadyQueued):
		default:
			return submitted, err
		}
	}
	return submitted, nil
}
