package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	discoverydomain "github.com/micro-ha/wol-server/internal/domain/discovery"
)

// Poller runs background scans on demand and, when interval > 0, periodically.
// Results reach subscribers through the scanner's publisher; nothing is persisted.
type Poller struct {
	scanner   discoverydomain.Service
	interval  time.Duration
	refreshCh chan struct{}
	logger    *slog.Logger
}

func New(scanner discoverydomain.Service, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{scanner: scanner, interval: interval, refreshCh: make(chan struct{}, 1), logger: logger}
}

// TriggerRefresh requests a scan; it never blocks and coalesces bursts.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		var tick <-chan time.Time
		var timer *time.Timer
		if p.interval > 0 {
			timer = time.NewTimer(p.interval)
			tick = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-p.refreshCh:
			if timer != nil {
				timer.Stop()
			}
		case <-tick:
		}
		if _, err := p.scanner.Scan(ctx); err != nil {
			var platformErr *discoverydomain.UnsupportedPlatformError
			if errors.As(err, &platformErr) {
				p.logger.Info("background scan skipped; platform unsupported", "os", platformErr.OS)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("background scan failed", "err", err)
		}
	}
}
