package wake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	wakedomain "github.com/micro-ha/wol-server/internal/domain/wake"
	"github.com/micro-ha/wol-server/internal/model"
)

type captureSender struct {
	sent []model.WakeTarget
	err  error
}

func (c *captureSender) Send(_ context.Context, target model.WakeTarget) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, target)
	return nil
}

type staticDevices map[string]devicedomain.Device

func (s staticDevices) Get(_ context.Context, id string) (devicedomain.Device, error) {
	d, ok := s[id]
	if !ok {
		return devicedomain.Device{}, devicedomain.ErrDeviceNotFound
	}
	return d, nil
}

type countRecorder struct{ ok, failed int }

func (c *countRecorder) WakeSent(target model.WakeTarget, err error) {
	_ = target
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func newService(sender *captureSender, devices staticDevices, rec Recorder) *Service {
	return New(sender, devices, model.DefaultWakeDefaults(), rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWakeUsesDefaults(t *testing.T) {
	sender := &captureSender{}
	svc := newService(sender, nil, nil)

	res, err := svc.Wake(context.Background(), model.WakeRequest{MACAddress: "AA:BB:CC:DD:EE:FF"})
	if err != nil {
		t.Fatalf("Wake failed: %v", err)
	}
	want := model.WakeResult{Message: "Wake packet sent successfully", MACAddress: "AA:BB:CC:DD:EE:FF", BroadcastAddress: "255.255.255.255", Port: 9}
	if res != want {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one packet, got %d", len(sender.sent))
	}
}

func TestWakeValidationHasNoSideEffect(t *testing.T) {
	sender := &captureSender{}
	svc := newService(sender, nil, nil)

	cases := []model.WakeRequest{
		{},
		{MACAddress: "zz:zz"},
		{MACAddress: "AA:BB:CC:DD:EE:FF", Port: intPtr(0)},
		{MACAddress: "AA:BB:CC:DD:EE:FF", BroadcastAddress: strPtr("ff02::1")},
	}
	for _, req := range cases {
		var verr *model.ValidationError
		if _, err := svc.Wake(context.Background(), req); !errors.As(err, &verr) {
			t.Fatalf("request %+v: expected ValidationError, got %v", req, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no packets, got %d", len(sender.sent))
	}
}

func TestWakeWrapsTransmissionError(t *testing.T) {
	cause := errors.New("network unreachable")
	rec := &countRecorder{}
	svc := newService(&captureSender{err: cause}, nil, rec)

	_, err := svc.Wake(context.Background(), model.WakeRequest{MACAddress: "AA:BB:CC:DD:EE:FF"})
	var terr *wakedomain.TransmissionError
	if !errors.As(err, &terr) || !errors.Is(err, cause) {
		t.Fatalf("expected TransmissionError wrapping cause, got %v", err)
	}
	if terr.Target != "255.255.255.255:9" {
		t.Fatalf("unexpected target %q", terr.Target)
	}
	if rec.failed != 1 || rec.ok != 0 {
		t.Fatalf("unexpected recorder counts %+v", rec)
	}
}

func TestWakeDevicePrecedence(t *testing.T) {
	devices := staticDevices{
		"plain": {ID: "plain", MACAddress: "aa:bb:cc:dd:ee:01"},
		"custom": {
			ID:               "custom",
			MACAddress:       "aa:bb:cc:dd:ee:02",
			BroadcastAddress: strPtr("192.168.1.255"),
			Port:             intPtr(7),
		},
	}

	tests := []struct {
		name     string
		id       string
		req      model.WakeRequest
		wantMAC  string
		wantAddr string
		wantPort int
	}{
		{name: "global defaults", id: "plain", wantMAC: "aa:bb:cc:dd:ee:01", wantAddr: "255.255.255.255", wantPort: 9},
		{name: "device overrides", id: "custom", wantMAC: "aa:bb:cc:dd:ee:02", wantAddr: "192.168.1.255", wantPort: 7},
		{name: "body overrides device", id: "custom", req: model.WakeRequest{Port: intPtr(40000)}, wantMAC: "aa:bb:cc:dd:ee:02", wantAddr: "192.168.1.255", wantPort: 40000},
		{name: "body mac wins", id: "custom", req: model.WakeRequest{MACAddress: "11:22:33:44:55:66"}, wantMAC: "11:22:33:44:55:66", wantAddr: "255.255.255.255", wantPort: 9},
		{name: "body mac with unknown id", id: "missing", req: model.WakeRequest{MACAddress: "11:22:33:44:55:66"}, wantMAC: "11:22:33:44:55:66", wantAddr: "255.255.255.255", wantPort: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{}
			svc := newService(sender, devices, nil)
			res, err := svc.WakeDevice(context.Background(), tt.id, tt.req)
			if err != nil {
				t.Fatalf("WakeDevice failed: %v", err)
			}
			if res.MACAddress != tt.wantMAC || res.BroadcastAddress != tt.wantAddr || res.Port != tt.wantPort {
				t.Fatalf("unexpected result %+v", res)
			}
			if len(sender.sent) != 1 || sender.sent[0].MACAddress != tt.wantMAC {
				t.Fatalf("unexpected packets %+v", sender.sent)
			}
		})
	}
}

func TestWakeDeviceNotFound(t *testing.T) {
	sender := &captureSender{}
	svc := newService(sender, staticDevices{}, nil)
	if _, err := svc.WakeDevice(context.Background(), "missing", model.WakeRequest{}); !errors.Is(err, devicedomain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no packets")
	}
}

func TestRecordersFanOut(t *testing.T) {
	a, b := &countRecorder{}, &countRecorder{}
	svc := newService(&captureSender{}, nil, Recorders{a, nil, b})
	if _, err := svc.Wake(context.Background(), model.WakeRequest{MACAddress: "AA:BB:CC:DD:EE:FF"}); err != nil {
		t.Fatalf("Wake failed: %v", err)
	}
	if a.ok != 1 || b.ok != 1 {
		t.Fatalf("expected both recorders to observe the send, got %+v %+v", a, b)
	}
}
