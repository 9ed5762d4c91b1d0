package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type for Framelink ingest servers
	ServiceType = "_framelink._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for source discovery
	DefaultScanTimeout = 10 * time.Second
)

// Scanner handles mDNS source discovery
type Scanner struct {
	// Timeout is the maximum time to wait for source discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForSources discovers all Framelink ingest servers on the local network
// Returns a list of discovered sources or an error
func (s *Scanner) ScanForSources() ([]*Source, error) {
	return s.ScanForSourcesWithContext(context.Background())
}

// ScanForSourcesWithContext discovers sources with a custom context
func (s *Scanner) ScanForSourcesWithContext(ctx context.Context) ([]*Source, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	sources := make([]*Source, 0)
	collected := make(chan struct{})

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect service entries in a goroutine
	go func() {
		defer close(collected)
		for entry := range entries {
			source := parseServiceEntry(entry)
			if source != nil {
				sources = append(sources, source)
			}
		}
	}()

	// Start browsing for Framelink services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation), then for the
	// collector to drain the entry channel
	<-ctx.Done()
	<-collected

	return sources, nil
}

// WaitForSource waits for a specific source by instance name
// Returns the source or an error if not found within timeout
func (s *Scanner) WaitForSource(instance string) (*Source, error) {
	return s.WaitForSourceWithContext(context.Background(), instance)
}

// WaitForSourceWithContext waits for a specific source with a custom context
func (s *Scanner) WaitForSourceWithContext(ctx context.Context, instance string) (*Source, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	sourceChan := make(chan *Source, 1)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Browse for services in a goroutine
	go func() {
		for entry := range entries {
			source := parseServiceEntry(entry)
			if source != nil && source.Instance == instance {
				sourceChan <- source
				cancel() // Found the source, cancel context
				return
			}
		}
	}()

	// Start browsing for Framelink services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for source or timeout
	select {
	case source := <-sourceChan:
		return source, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("source with instance name %s not found within timeout", instance)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Source
// Returns nil if the entry has no usable address
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Source {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Parse TXT records into metadata
	metadata := ParseTXTRecords(entry.Text)

	return &Source{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ParseTXTRecords parses mDNS TXT records ("key=value" strings) into a map.
// A record without '=' becomes a key with an empty value.
func ParseTXTRecords(records []string) map[string]string {
	metadata := make(map[string]string)
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// Advertiser announces a running ingest server via mDNS
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers the ingest server on the local network so that
// framelink-send and other clients can find it. The TXT records carry the
// framing profile so clients can build matching packets.
func Advertise(instance string, port int, startByte, endByte byte) (*Advertiser, error) {
	txt := []string{
		"transport=tcp",
		fmt.Sprintf("start=%02x", startByte),
		fmt.Sprintf("end=%02x", endByte),
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	return &Advertiser{server: server}, nil
}

// Shutdown stops advertising the service
func (a *Advertiser) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
	}
}

// ScanForSources is a convenience function to scan for sources with a custom timeout
func ScanForSources(timeout time.Duration) ([]*Source, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForSources()
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan() ([]*Source, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.ScanForSources()
}
