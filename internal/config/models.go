package config

import (
	"fmt"

	"github.com/muurk/framelink/internal/framing"
)

// Settings represents the entire user configuration file.
// This stores the framing profile, ingest server defaults, and
// application preferences.
type Settings struct {
	Version     int             `yaml:"version"`
	Framing     *FramingProfile `yaml:"framing,omitempty"`
	Server      *ServerDefaults `yaml:"server,omitempty"`
	Preferences *Preferences    `yaml:"preferences,omitempty"`
}

// FramingProfile holds the construction-time wire format configuration.
// Marker lengths and the length-field width are implementation constants;
// only the marker byte values are configurable.
type FramingProfile struct {
	StartByte uint8 `yaml:"start_byte"` // Start marker byte value (default 0xAA)
	EndByte   uint8 `yaml:"end_byte"`   // End marker byte value (default 0xBB)
}

// ServerDefaults holds default settings for the ingest server.
type ServerDefaults struct {
	Host       string `yaml:"host"`                  // Listen host (empty = all interfaces)
	TCPPort    int    `yaml:"tcp_port"`              // Raw TCP ingest port
	WSPort     int    `yaml:"ws_port"`               // WebSocket ingest port
	CaptureDir string `yaml:"capture_dir,omitempty"` // Packet capture directory (empty = disabled)
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	Advertise       bool `yaml:"advertise"`        // Advertise the ingest server via mDNS
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

// NewSettings creates new Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Framing: &FramingProfile{
			StartByte: framing.DefaultStartByte,
			EndByte:   framing.DefaultEndByte,
		},
		Server: &ServerDefaults{
			Host:    "",
			TCPPort: 9710,
			WSPort:  9711,
		},
		Preferences: &Preferences{
			Advertise:       true,
			DiscoverTimeout: 10,
		},
	}
}

// FramingConfig converts the profile into a framing.Config.
func (p *FramingProfile) FramingConfig() *framing.Config {
	return &framing.Config{
		StartByte: p.StartByte,
		EndByte:   p.EndByte,
	}
}

// Validate checks the settings for inconsistencies that would break
// framing or the ingest server.
func (s *Settings) Validate() error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", s.Version)
	}

	if s.Framing != nil && s.Framing.StartByte == s.Framing.EndByte {
		return fmt.Errorf("start and end marker bytes must differ (both 0x%02x)", s.Framing.StartByte)
	}

	if s.Server != nil {
		if s.Server.TCPPort < 0 || s.Server.TCPPort > 65535 {
			return fmt.Errorf("invalid tcp_port: %d", s.Server.TCPPort)
		}
		if s.Server.WSPort < 0 || s.Server.WSPort > 65535 {
			return fmt.Errorf("invalid ws_port: %d", s.Server.WSPort)
		}
		if s.Server.TCPPort != 0 && s.Server.TCPPort == s.Server.WSPort {
			return fmt.Errorf("tcp_port and ws_port must differ (both %d)", s.Server.TCPPort)
		}
	}

	if s.Preferences != nil && s.Preferences.DiscoverTimeout < 0 {
		return fmt.Errorf("invalid discover_timeout: %d", s.Preferences.DiscoverTimeout)
	}

	return nil
}
