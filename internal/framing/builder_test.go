package framing

import (
	"bytes"
	"testing"
)

func TestBuildPacket(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		mode    byte
		payload []byte
		wantErr bool
		verify  func(t *testing.T, packet []byte)
	}{
		{
			name:    "reference packet",
			cfg:     DefaultConfig(),
			mode:    0x01,
			payload: []byte{0x10, 0x20, 0x30},
			verify: func(t *testing.T, packet []byte) {
				want := []byte{
					0xAA, 0xAA, 0xAA, 0xAA, // start marker
					0x01,       // mode
					0x03, 0x00, // length (little-endian)
					0x10, 0x20, 0x30, // payload
					0xBB, 0xBB, 0xBB, 0xBB, // end marker
				}
				if !bytes.Equal(packet, want) {
					t.Errorf("packet = %x, want %x", packet, want)
				}
			},
		},
		{
			name:    "empty payload",
			cfg:     DefaultConfig(),
			mode:    0x05,
			payload: nil,
			verify: func(t *testing.T, packet []byte) {
				if len(packet) != 2*MarkerLen+1+LengthLen {
					t.Errorf("packet length = %d, want %d", len(packet), 2*MarkerLen+1+LengthLen)
				}
				if packet[MarkerLen+1] != 0 || packet[MarkerLen+2] != 0 {
					t.Errorf("length field = %x, want 0000", packet[MarkerLen+1:MarkerLen+3])
				}
			},
		},
		{
			name:    "nil config uses defaults",
			cfg:     nil,
			mode:    0x01,
			payload: []byte{0xFF},
			verify: func(t *testing.T, packet []byte) {
				if packet[0] != DefaultStartByte {
					t.Errorf("start byte = 0x%02x, want 0x%02x", packet[0], DefaultStartByte)
				}
				if packet[len(packet)-1] != DefaultEndByte {
					t.Errorf("end byte = 0x%02x, want 0x%02x", packet[len(packet)-1], DefaultEndByte)
				}
			},
		},
		{
			name:    "custom markers",
			cfg:     &Config{StartByte: 0x11, EndByte: 0x22},
			mode:    0x09,
			payload: []byte{0x01},
			verify: func(t *testing.T, packet []byte) {
				for i := 0; i < MarkerLen; i++ {
					if packet[i] != 0x11 {
						t.Errorf("start marker byte %d = 0x%02x, want 0x11", i, packet[i])
					}
				}
			},
		},
		{
			name:    "payload at maximum size",
			cfg:     DefaultConfig(),
			mode:    0x01,
			payload: make([]byte, MaxPayloadSize),
			verify: func(t *testing.T, packet []byte) {
				if len(packet) != 2*MarkerLen+1+LengthLen+MaxPayloadSize {
					t.Errorf("packet length = %d", len(packet))
				}
			},
		},
		{
			name:    "payload too large",
			cfg:     DefaultConfig(),
			mode:    0x01,
			payload: make([]byte, MaxPayloadSize+1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet, err := BuildPacket(tt.cfg, tt.mode, tt.payload)

			if (err != nil) != tt.wantErr {
				t.Errorf("BuildPacket() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if err := ValidatePacket(tt.cfg, packet); err != nil {
					t.Errorf("ValidatePacket() on built packet: %v", err)
				}
				if tt.verify != nil {
					tt.verify(t, packet)
				}
			}
		})
	}
}

func TestValidatePacket(t *testing.T) {
	valid, err := BuildPacket(DefaultConfig(), 0x01, []byte{0x10, 0x20, 0x30})
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}

	tests := []struct {
		name    string
		packet  []byte
		wantErr bool
	}{
		{
			name:    "valid packet",
			packet:  valid,
			wantErr: false,
		},
		{
			name:    "too small",
			packet:  valid[:6],
			wantErr: true,
		},
		{
			name: "broken start marker",
			packet: func() []byte {
				p := append([]byte{}, valid...)
				p[2] = 0x00
				return p
			}(),
			wantErr: true,
		},
		{
			name: "broken end marker",
			packet: func() []byte {
				p := append([]byte{}, valid...)
				p[len(p)-1] = 0x00
				return p
			}(),
			wantErr: true,
		},
		{
			name: "length field mismatch",
			packet: func() []byte {
				p := append([]byte{}, valid...)
				p[MarkerLen+1] = 0x09 // Claims 9 payload bytes, only 3 present
				return p
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePacket(DefaultConfig(), tt.packet)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePacket() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func BenchmarkBuildPacket(b *testing.B) {
	payload := make([]byte, 256)
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildPacket(cfg, 0x01, payload); err != nil {
			b.Fatal(err)
		}
	}
}
