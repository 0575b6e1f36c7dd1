package device

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	"github.com/micro-ha/wol-server/internal/model"
	"github.com/micro-ha/wol-server/internal/pkg/utils"
)

// Gauge receives the registry size after each successful write.
type Gauge interface {
	Set(float64)
}

// Service implements device.Service on top of a whole-collection Store.
// Every mutation holds mu across load, modify and save.
type Service struct {
	mu       sync.Mutex
	store    devicedomain.Store
	notifier devicedomain.Notifier
	gauge    Gauge
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates the registry service. notifier may be nil.
func New(store devicedomain.Store, notifier devicedomain.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      utils.NowUTC,
		newID:    uuid.NewString,
	}
}

// WithGauge attaches a registered-device gauge.
func (s *Service) WithGauge(g Gauge) *Service {
	s.gauge = g
	return s
}

// List returns all devices in persisted order.
func (s *Service) List(ctx context.Context) ([]devicedomain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]devicedomain.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Clone())
	}
	return out, nil
}

// Get returns one device by id.
func (s *Service) Get(ctx context.Context, id string) (devicedomain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.store.Load(ctx)
	if err != nil {
		return devicedomain.Device{}, err
	}
	idx := indexByID(devices, id)
	if idx < 0 {
		return devicedomain.Device{}, devicedomain.ErrDeviceNotFound
	}
	return devices[idx].Clone(), nil
}

// FindByMAC matches case-insensitively and treats '-' and ':' as equal.
func (s *Service) FindByMAC(ctx context.Context, mac string) (devicedomain.Device, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.store.Load(ctx)
	if err != nil {
		return devicedomain.Device{}, false, err
	}
	idx := indexByMAC(devices, mac)
	if idx < 0 {
		return devicedomain.Device{}, false, nil
	}
	return devices[idx].Clone(), true, nil
}

// Upsert creates a device for an unseen MAC or overlays the input onto the existing one.
// Subscribers are notified after the registry lock is released.
func (s *Service) Upsert(ctx context.Context, in devicedomain.Input) (devicedomain.Device, error) {
	if err := model.ValidateMAC(in.MACAddress); err != nil {
		return devicedomain.Device{}, err
	}
	if err := validateOverrides(in.BroadcastAddress, in.Port); err != nil {
		return devicedomain.Device{}, err
	}

	result, kind, err := s.upsert(ctx, in)
	if err != nil {
		return devicedomain.Device{}, err
	}
	s.logger.Info("device upserted", "id", result.ID, "mac", result.MACAddress, "created", kind == devicedomain.EventDeviceCreated)
	s.notify(kind, result)
	return result, nil
}

func (s *Service) upsert(ctx context.Context, in devicedomain.Input) (devicedomain.Device, devicedomain.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.store.Load(ctx)
	if err != nil {
		return devicedomain.Device{}, "", err
	}

	kind := devicedomain.EventDeviceUpdated
	idx := indexByMAC(devices, in.MACAddress)
	if idx >= 0 {
		overlay(&devices[idx], in)
	} else {
		kind = devicedomain.EventDeviceCreated
		devices = append(devices, s.create(in))
		idx = len(devices) - 1
	}

	if err := s.save(ctx, devices); err != nil {
		return devicedomain.Device{}, "", err
	}
	return devices[idx].Clone(), kind, nil
}

// Update applies a partial patch to the device with the given id.
func (s *Service) Update(ctx context.Context, id string, patch devicedomain.Patch) (devicedomain.Device, error) {
	if patch.ID != nil && *patch.ID != id {
		return devicedomain.Device{}, &model.ValidationError{Field: "id", Reason: "Device id cannot be changed"}
	}
	if patch.MACAddress != nil {
		if err := model.ValidateMAC(*patch.MACAddress); err != nil {
			return devicedomain.Device{}, err
		}
	}
	if err := validateOverrides(patch.BroadcastAddress.Value, patch.Port.Value); err != nil {
		return devicedomain.Device{}, err
	}

	result, err := s.update(ctx, id, patch)
	if err != nil {
		return devicedomain.Device{}, err
	}
	s.logger.Info("device updated", "id", result.ID)
	s.notify(devicedomain.EventDeviceUpdated, result)
	return result, nil
}

func (s *Service) update(ctx context.Context, id string, patch devicedomain.Patch) (devicedomain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.store.Load(ctx)
	if err != nil {
		return devicedomain.Device{}, err
	}
	idx := indexByID(devices, id)
	if idx < 0 {
		return devicedomain.Device{}, devicedomain.ErrDeviceNotFound
	}
	if patch.MACAddress != nil {
		if other := indexByMAC(devices, *patch.MACAddress); other >= 0 && other != idx {
			return devicedomain.Device{}, devicedomain.ErrDuplicateMAC
		}
	}

	applyPatch(&devices[idx], patch)
	if err := s.save(ctx, devices); err != nil {
		return devicedomain.Device{}, err
	}
	return devices[idx].Clone(), nil
}

// Delete removes the device with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.remove(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("device deleted", "id", id, "mac", removed.MACAddress)
	s.notify(devicedomain.EventDeviceDeleted, removed)
	return nil
}

func (s *Service) remove(ctx context.Context, id string) (devicedomain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.store.Load(ctx)
	if err != nil {
		return devicedomain.Device{}, err
	}
	idx := indexByID(devices, id)
	if idx < 0 {
		return devicedomain.Device{}, devicedomain.ErrDeviceNotFound
	}
	removed := devices[idx].Clone()
	devices = append(devices[:idx], devices[idx+1:]...)
	if err := s.save(ctx, devices); err != nil {
		return devicedomain.Device{}, err
	}
	return removed, nil
}

func (s *Service) create(in devicedomain.Input) devicedomain.Device {
	mac := model.ColonMAC(in.MACAddress)
	d := devicedomain.Device{
		ID:         s.newID(),
		MACAddress: mac,
		Name:       strings.TrimSpace(in.Name),
		Tags:       model.NormalizeTags(in.Tags),
		IsOnline:   false,
		CreatedAt:  s.now(),
	}
	if d.Name == "" {
		d.Name = model.DefaultDeviceName(mac)
	}
	if ip := nonEmpty(in.IPAddress); ip != nil {
		d.IPAddress = ip
	}
	if b := nonEmpty(in.BroadcastAddress); b != nil {
		d.BroadcastAddress = b
	}
	if in.Port != nil {
		p := *in.Port
		d.Port = &p
	}
	return d
}

func overlay(d *devicedomain.Device, in devicedomain.Input) {
	if name := strings.TrimSpace(in.Name); name != "" {
		d.Name = name
	}
	if ip := nonEmpty(in.IPAddress); ip != nil {
		d.IPAddress = ip
	}
	if b := nonEmpty(in.BroadcastAddress); b != nil {
		d.BroadcastAddress = b
	}
	if in.Port != nil {
		p := *in.Port
		d.Port = &p
	}
	d.Tags = model.NormalizeTags(d.Tags, in.Tags)
}

func applyPatch(d *devicedomain.Device, patch devicedomain.Patch) {
	if patch.MACAddress != nil {
		d.MACAddress = model.ColonMAC(*patch.MACAddress)
	}
	if patch.Name != nil {
		d.Name = strings.TrimSpace(*patch.Name)
		if d.Name == "" {
			d.Name = model.DefaultDeviceName(d.MACAddress)
		}
	}
	if patch.IPAddress.Set {
		d.IPAddress = nonEmpty(patch.IPAddress.Value)
	}
	if patch.Tags != nil {
		d.Tags = model.NormalizeTags(*patch.Tags)
	}
	if patch.IsOnline != nil {
		d.IsOnline = *patch.IsOnline
	}
	if patch.BroadcastAddress.Set {
		d.BroadcastAddress = nonEmpty(patch.BroadcastAddress.Value)
	}
	if patch.Port.Set {
		d.Port = nil
		if patch.Port.Value != nil {
			p := *patch.Port.Value
			d.Port = &p
		}
	}
}

func (s *Service) save(ctx context.Context, devices []devicedomain.Device) error {
	if err := s.store.Save(ctx, devices); err != nil {
		return err
	}
	if s.gauge != nil {
		s.gauge.Set(float64(len(devices)))
	}
	return nil
}

func (s *Service) notify(kind devicedomain.EventType, d devicedomain.Device) {
	if s.notifier == nil {
		return
	}
	s.notifier.DeviceChanged(kind, d.Clone())
}

func validateOverrides(broadcast *string, port *int) error {
	if b := nonEmpty(broadcast); b != nil {
		probe := model.WakeTarget{MACAddress: "00:00:00:00:00:00", BroadcastAddress: *b, Port: model.DefaultWakePort}
		if err := probe.Validate(); err != nil {
			return err
		}
	}
	if port != nil && (*port < 1 || *port > 65535) {
		return &model.ValidationError{Field: "port", Reason: "port must be between 1 and 65535"}
	}
	return nil
}

func indexByID(devices []devicedomain.Device, id string) int {
	for i := range devices {
		if devices[i].ID == id {
			return i
		}
	}
	return -1
}

func indexByMAC(devices []devicedomain.Device, mac string) int {
	key := model.MACKey(mac)
	for i := range devices {
		if model.MACKey(devices[i].MACAddress) == key {
			return i
		}
	}
	return -1
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

