package wol

import "net"

const (
	// MagicPacketSize is 6 bytes of 0xFF followed by 16 repetitions of the MAC.
	MagicPacketSize = 6 + 16*6
	macRepetitions  = 16
)

var syncStream = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// MagicPacket encodes a six-octet hardware address into a 102 byte payload.
func MagicPacket(hw net.HardwareAddr) ([]byte, error) {
	if len(hw) != 6 {
		return nil, &net.AddrError{Err: "hardware address must be 6 octets", Addr: hw.String()}
	}
	packet := make([]byte, 0, MagicPacketSize)
	packet = append(packet, syncStream...)
	for i := 0; i < macRepetitions; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}
