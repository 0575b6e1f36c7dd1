package wol

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/micro-ha/wol-server/internal/model"
)

// UDPSender writes magic packets to an IPv4 broadcast (or unicast) address.
type UDPSender struct {
	WriteTimeout time.Duration
}

func NewUDPSender(writeTimeout time.Duration) *UDPSender {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &UDPSender{WriteTimeout: writeTimeout}
}

// Send opens a fresh broadcast-enabled socket per packet and closes it afterwards.
func (s *UDPSender) Send(ctx context.Context, target model.WakeTarget) error {
	hw, err := model.ParseMAC(target.MACAddress)
	if err != nil {
		return err
	}
	packet, err := MagicPacket(hw)
	if err != nil {
		return err
	}

	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(target.BroadcastAddress, strconv.Itoa(target.Port)))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target.BroadcastAddress, err)
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return fmt.Errorf("open udp socket: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(s.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	n, err := conn.WriteTo(packet, dst)
	if err != nil {
		return fmt.Errorf("write magic packet: %w", err)
	}
	if n != len(packet) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(packet))
	}
	return nil
}
