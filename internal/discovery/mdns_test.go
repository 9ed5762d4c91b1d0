package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name: "valid source with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "workstation.local.",
				Port:     9710,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
				Text:     []string{"transport=tcp", "start=aa", "end=bb"},
			},
			wantNil:      false,
			wantInstance: "framelink-9710",
			wantIP:       "192.168.4.16",
			wantPort:     9710,
		},
		{
			name: "source with custom port",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab.local",
				Port:     9810,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:      false,
			wantInstance: "framelink-9810",
			wantIP:       "10.0.0.5",
			wantPort:     9810,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "ghost.local",
				Port:     9710,
				AddrIPv4: []net.IP{},
				AddrIPv6: []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only source",
			entry: &zeroconf.ServiceEntry{
				HostName: "v6only.local",
				Port:     9710,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantIP:   "fe80::1",
			wantPort: 9710,
		},
		{
			name: "both IPv4 and IPv6 prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "dual.local",
				Port:     9710,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantIP:   "192.168.1.50",
			wantPort: 9710,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry
			if entry.Instance == "" {
				entry.Instance = tt.wantInstance
			}

			source := parseServiceEntry(entry)

			if tt.wantNil {
				if source != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", source)
				}
				return
			}

			if source == nil {
				t.Fatal("parseServiceEntry() = nil, want source")
			}
			if source.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", source.IP, tt.wantIP)
			}
			if source.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", source.Port, tt.wantPort)
			}
			if source.DiscoveredAt.IsZero() {
				t.Error("DiscoveredAt should be set")
			}
		})
	}
}

func TestParseTXTRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []string
		want    map[string]string
	}{
		{
			name:    "framing profile records",
			records: []string{"transport=tcp", "start=aa", "end=bb"},
			want:    map[string]string{"transport": "tcp", "start": "aa", "end": "bb"},
		},
		{
			name:    "key without value",
			records: []string{"flag"},
			want:    map[string]string{"flag": ""},
		},
		{
			name:    "value containing equals sign",
			records: []string{"note=a=b"},
			want:    map[string]string{"note": "a=b"},
		},
		{
			name:    "empty records",
			records: []string{},
			want:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTXTRecords(tt.records)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseTXTRecords() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("ParseTXTRecords()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("NewScanner().Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
