package wake

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"strings"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	wakedomain "github.com/micro-ha/wol-server/internal/domain/wake"
	"github.com/micro-ha/wol-server/internal/model"
)

const sentMessage = "Wake packet sent successfully"

// DeviceLookup is the registry subset needed to wake by id.
type DeviceLookup interface {
	Get(ctx context.Context, id string) (devicedomain.Device, error)
}

// Recorder observes every send attempt.
type Recorder interface {
	WakeSent(target model.WakeTarget, err error)
}

// Recorders fans one observation out to several recorders.
type Recorders []Recorder

func (rs Recorders) WakeSent(target model.WakeTarget, err error) {
	for _, r := range rs {
		if r != nil {
			r.WakeSent(target, err)
		}
	}
}

// Service implements wake.Service.
type Service struct {
	sender   wakedomain.Sender
	devices  DeviceLookup
	defaults model.WakeDefaults
	recorder Recorder
	logger   *slog.Logger
}

func New(sender wakedomain.Sender, devices DeviceLookup, defaults model.WakeDefaults, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sender:   sender,
		devices:  devices,
		defaults: defaults.Normalize(),
		recorder: recorder,
		logger:   logger,
	}
}

// Wake sends a magic packet to the MAC in req, filling gaps from the global defaults.
func (s *Service) Wake(ctx context.Context, req model.WakeRequest) (model.WakeResult, error) {
	if err := model.ValidateMAC(req.MACAddress); err != nil {
		return model.WakeResult{}, err
	}
	addr, port := model.Resolve(req.BroadcastAddress, req.Port, s.defaults)
	return s.send(ctx, model.WakeTarget{MACAddress: strings.TrimSpace(req.MACAddress), BroadcastAddress: addr, Port: port})
}

// WakeDevice uses the request body when it names a MAC, otherwise the stored device.
// Request overrides win over device overrides, which win over the global defaults.
func (s *Service) WakeDevice(ctx context.Context, id string, req model.WakeRequest) (model.WakeResult, error) {
	if strings.TrimSpace(req.MACAddress) != "" {
		return s.Wake(ctx, req)
	}

	d, err := s.devices.Get(ctx, id)
	if err != nil {
		return model.WakeResult{}, err
	}
	addr, port := model.Resolve(d.BroadcastAddress, d.Port, s.defaults)
	addr, port = model.Resolve(req.BroadcastAddress, req.Port, model.WakeDefaults{BroadcastAddress: addr, Port: port})
	return s.send(ctx, model.WakeTarget{MACAddress: d.MACAddress, BroadcastAddress: addr, Port: port})
}

func (s *Service) send(ctx context.Context, target model.WakeTarget) (model.WakeResult, error) {
	if err := target.Validate(); err != nil {
		return model.WakeResult{}, err
	}

	err := s.sender.Send(ctx, target)
	if s.recorder != nil {
		s.recorder.WakeSent(target, err)
	}
	if err != nil {
		dst := net.JoinHostPort(target.BroadcastAddress, strconv.Itoa(target.Port))
		s.logger.Warn("wake packet send failed", "mac", target.MACAddress, "target", dst, "err", err)
		return model.WakeResult{}, &wakedomain.TransmissionError{Target: dst, Err: err}
	}

	s.logger.Info("wake packet sent", "mac", target.MACAddress, "broadcast", target.BroadcastAddress, "port", target.Port)
	return model.WakeResult{
		Message:          sentMessage,
		MACAddress:       target.MACAddress,
		BroadcastAddress: target.BroadcastAddress,
		Port:             target.Port,
	}, nil
}
