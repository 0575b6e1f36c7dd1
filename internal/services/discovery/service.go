package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/micro-ha/wol-server/internal/aggregator"
	"github.com/micro-ha/wol-server/internal/arp"
	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	discoverydomain "github.com/micro-ha/wol-server/internal/domain/discovery"
	"github.com/micro-ha/wol-server/internal/model"
)

const (
	SourceARPScan  = "arp-scan"
	SourceARPTable = "arp"
)

// DeviceLister provides registered devices for knownDeviceId annotation.
type DeviceLister interface {
	List(ctx context.Context) ([]devicedomain.Device, error)
}

// Recorder observes every scan strategy attempt.
type Recorder interface {
	ScanFinished(source string, found int, err error)
}

// Publisher is told about each completed scan.
type Publisher interface {
	ScanCompleted(source string, candidates []model.Candidate)
}

type Options struct {
	GOOS        string
	Timeout     time.Duration
	ScanCommand []string
	ARPCommand  []string
}

func DefaultOptions() Options {
	return Options{
		GOOS:        runtime.GOOS,
		Timeout:     15 * time.Second,
		ScanCommand: []string{"arp-scan", "--localnet"},
		ARPCommand:  []string{"arp", "-a"},
	}
}

// Service implements discovery.Service. It never writes to the registry.
type Service struct {
	runner     CommandRunner
	aggregator *aggregator.Aggregator
	devices    DeviceLister
	opts       Options
	recorder   Recorder
	publisher  Publisher
	logger     *slog.Logger
}

func New(runner CommandRunner, agg *aggregator.Aggregator, devices DeviceLister, opts Options, logger *slog.Logger) *Service {
	defaults := DefaultOptions()
	if opts.GOOS == "" {
		opts.GOOS = defaults.GOOS
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if len(opts.ScanCommand) == 0 {
		opts.ScanCommand = defaults.ScanCommand
	}
	if len(opts.ARPCommand) == 0 {
		opts.ARPCommand = defaults.ARPCommand
	}
	if agg == nil {
		agg = aggregator.New(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runner: runner, aggregator: agg, devices: devices, opts: opts, logger: logger}
}

func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// Scan runs the preferred scanner and falls back to the ARP table.
func (s *Service) Scan(ctx context.Context) ([]model.Candidate, error) {
	if !supported(s.opts.GOOS) {
		return nil, &discoverydomain.UnsupportedPlatformError{OS: s.opts.GOOS}
	}

	source := SourceARPScan
	out, scanErr := s.run(ctx, SourceARPScan, s.opts.ScanCommand)
	var candidates []model.Candidate
	if scanErr == nil {
		candidates = arp.ParseARPScan(string(out))
		s.record(SourceARPScan, len(candidates), nil)
	} else {
		s.record(SourceARPScan, 0, scanErr)
		s.logger.Debug("preferred scan failed, falling back", "err", scanErr)

		source = SourceARPTable
		out, tableErr := s.run(ctx, SourceARPTable, s.opts.ARPCommand)
		if tableErr != nil {
			s.record(SourceARPTable, 0, tableErr)
			s.logger.Warn("network scan failed", "scan_err", scanErr, "arp_err", tableErr)
			return nil, &discoverydomain.ScanFailedError{Err: errors.Join(scanErr, tableErr)}
		}
		candidates = arp.ParseARPTable(string(out))
		s.record(SourceARPTable, len(candidates), nil)
	}

	candidates = s.aggregator.Annotate(candidates, s.knownIndex(ctx))
	s.logger.Info("network scan completed", "source", source, "candidates", len(candidates))
	if s.publisher != nil {
		s.publisher.ScanCompleted(source, candidates)
	}
	return candidates, nil
}

func (s *Service) run(ctx context.Context, label string, argv []string) ([]byte, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, fmt.Errorf("%s: no command configured", label)
	}
	runCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.runner.Run(runCtx, argv[0], argv[1:]...)
}

func (s *Service) knownIndex(ctx context.Context) map[string]string {
	if s.devices == nil {
		return nil
	}
	devices, err := s.devices.List(ctx)
	if err != nil {
		s.logger.Warn("load registry for scan annotation failed", "err", err)
		return nil
	}
	return aggregator.KnownIndex(devices)
}

func (s *Service) record(source string, found int, err error) {
	if s.recorder != nil {
		s.recorder.ScanFinished(source, found, err)
	}
}

func supported(goos string) bool {
	switch goos {
	case "linux", "darwin":
		return true
	default:
		return false
	}
}
