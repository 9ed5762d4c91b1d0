package discovery

import (
	"strings"
	"testing"
	"time"
)

func TestSource_String(t *testing.T) {
	source := &Source{
		Instance:     "framelink-9710",
		Hostname:     "workstation.local.",
		IP:           "192.168.4.16",
		Port:         9710,
		DiscoveredAt: time.Now(),
	}

	s := source.String()
	if !strings.Contains(s, "framelink-9710") {
		t.Errorf("String() = %q, should contain instance name", s)
	}
	if !strings.Contains(s, "192.168.4.16:9710") {
		t.Errorf("String() = %q, should contain address", s)
	}
}

func TestSource_Addr(t *testing.T) {
	tests := []struct {
		name   string
		source *Source
		want   string
	}{
		{
			name:   "IPv4 address",
			source: &Source{IP: "10.0.0.5", Port: 9710},
			want:   "10.0.0.5:9710",
		},
		{
			name:   "IPv6 address gets brackets",
			source: &Source{IP: "fe80::1", Port: 9710},
			want:   "[fe80::1]:9710",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.source.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSource_GetMetadata(t *testing.T) {
	source := &Source{
		Metadata: map[string]string{"start": "aa", "end": "bb"},
	}

	if got := source.GetMetadata("start"); got != "aa" {
		t.Errorf("GetMetadata(start) = %q, want aa", got)
	}
	if got := source.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	// Nil metadata map must not panic
	empty := &Source{}
	if got := empty.GetMetadata("start"); got != "" {
		t.Errorf("GetMetadata() on nil map = %q, want empty", got)
	}
}
