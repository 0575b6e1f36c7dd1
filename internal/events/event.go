// Package events fans registry, wake and scan notifications out to live subscribers.
package events

import (
	"log/slog"
	"sync"
	"time"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	"github.com/micro-ha/wol-server/internal/model"
	"github.com/micro-ha/wol-server/internal/pkg/utils"
)

const (
	TypeWakeSent      = "wake.sent"
	TypeScanCompleted = "scan.completed"
)

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Sink receives every published event. Publish must not block for long.
type Sink interface {
	Publish(ev Event)
}

// Bus is the single publisher shared by services.
type Bus struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

func NewBus(logger *slog.Logger, sinks ...Sink) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{sinks: sinks, logger: logger}
}

func (b *Bus) AddSink(s Sink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = utils.NowUTC()
	}
	b.mu.RLock()
	sinks := append([]Sink(nil), b.sinks...)
	b.mu.RUnlock()
	for _, s := range sinks {
		s.Publish(ev)
	}
	b.logger.Debug("event published", "type", ev.Type, "sinks", len(sinks))
}

// DeviceChanged implements device.Notifier.
func (b *Bus) DeviceChanged(kind devicedomain.EventType, d devicedomain.Device) {
	b.Publish(Event{Type: string(kind), Data: d})
}

// WakeSent publishes successful sends only.
func (b *Bus) WakeSent(target model.WakeTarget, err error) {
	if err != nil {
		return
	}
	b.Publish(Event{Type: TypeWakeSent, Data: map[string]any{
		"macAddress":       target.MACAddress,
		"broadcastAddress": target.BroadcastAddress,
		"port":             target.Port,
	}})
}

func (b *Bus) ScanCompleted(source string, candidates []model.Candidate) {
	b.Publish(Event{Type: TypeScanCompleted, Data: map[string]any{
		"source":     source,
		"candidates": candidates,
	}})
}
