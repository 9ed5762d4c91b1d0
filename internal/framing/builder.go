package framing

import (
	"encoding/binary"
	"fmt"
)

// Packet construction helpers for producing wire-format packets to feed a
// remote framer (used by framelink-send and the round-trip tests).

// BuildPacket constructs a complete wire packet for the given mode and
// payload using the marker bytes from cfg (nil cfg = DefaultConfig).
//
// Packet structure:
//
//	[0-3]   start marker    MarkerLen repetitions of cfg.StartByte
//	[4]     mode            Opaque one-byte tag
//	[5-6]   length          Payload length (little-endian uint16)
//	[7+]    payload         length bytes (may be empty)
//	[N-4:]  end marker      MarkerLen repetitions of cfg.EndByte
//
// Returns an error if the payload exceeds MaxPayloadSize.
func BuildPacket(cfg *Config, mode byte, payload []byte) ([]byte, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}

	packet := make([]byte, 0, 2*MarkerLen+1+LengthLen+len(payload))

	for i := 0; i < MarkerLen; i++ {
		packet = append(packet, cfg.StartByte)
	}

	packet = append(packet, mode)

	var length [LengthLen]byte
	binary.LittleEndian.PutUint16(length[:], uint16(len(payload)))
	packet = append(packet, length[:]...)

	packet = append(packet, payload...)

	for i := 0; i < MarkerLen; i++ {
		packet = append(packet, cfg.EndByte)
	}

	return packet, nil
}

// ValidatePacket checks that a built packet is structurally sound: both
// markers present and correct, and the length field matching the actual
// payload size. Useful for testing and for sanity-checking outgoing
// packets before transmission.
func ValidatePacket(cfg *Config, packet []byte) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	minSize := 2*MarkerLen + 1 + LengthLen
	if len(packet) < minSize {
		return fmt.Errorf("packet too small: %d bytes (minimum %d)", len(packet), minSize)
	}

	for i := 0; i < MarkerLen; i++ {
		if packet[i] != cfg.StartByte {
			return fmt.Errorf("invalid start marker byte at offset %d: 0x%02x (expected 0x%02x)",
				i, packet[i], cfg.StartByte)
		}
	}

	length := int(binary.LittleEndian.Uint16(packet[MarkerLen+1 : MarkerLen+1+LengthLen]))
	expected := minSize + length
	if len(packet) != expected {
		return fmt.Errorf("packet size %d does not match length field (expected %d)", len(packet), expected)
	}

	for i := len(packet) - MarkerLen; i < len(packet); i++ {
		if packet[i] != cfg.EndByte {
			return fmt.Errorf("invalid end marker byte at offset %d: 0x%02x (expected 0x%02x)",
				i, packet[i], cfg.EndByte)
		}
	}

	return nil
}
