package discovery

import (
	"fmt"
	"net"
	"time"
)

// Source represents a discovered Framelink ingest server on the network
type Source struct {
	// Instance is the mDNS instance name (e.g., "framelink-9710")
	Instance string

	// Hostname is the mDNS hostname (e.g., "workstation.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.4.16")
	IP string

	// Port is the TCP ingest port
	Port int

	// Metadata contains additional mDNS TXT record data
	// Common fields: "transport=tcp", "start=aa", "end=bb"
	Metadata map[string]string

	// DiscoveredAt is when the source was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the source
func (s *Source) String() string {
	return fmt.Sprintf("Framelink Source %s (%s) at %s:%d", s.Instance, s.Hostname, s.IP, s.Port)
}

// Addr returns the TCP dial address for the source
func (s *Source) Addr() string {
	return net.JoinHostPort(s.IP, fmt.Sprintf("%d", s.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Source) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
