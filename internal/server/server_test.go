package server

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muurk/framelink/internal/framing"
)

func TestServer_HandleConnection(t *testing.T) {
	srv, err := New(&Config{Framing: framing.DefaultConfig()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	client, serverSide := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handleConnection(serverSide)
	}()

	packet, err := framing.BuildPacket(framing.DefaultConfig(), 0x01, []byte{0x10, 0x20, 0x30})
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}

	// Write the packet fragmented across two chunks, like a real socket would
	if _, err := client.Write(packet[:5]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := client.Write(packet[5:]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Wait for the framer worker to deliver the packet
	deadline := time.Now().Add(2 * time.Second)
	for srv.PacketsTotal() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for packet to be counted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := srv.PacketsTotal(); got != 1 {
		t.Errorf("PacketsTotal() = %d, want 1", got)
	}

	_ = client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleConnection did not return after client close")
	}

	if got := srv.GetActiveConnections(); got != 0 {
		t.Errorf("GetActiveConnections() after close = %d, want 0", got)
	}
}

func TestServer_PacketSinkCountsPerConnection(t *testing.T) {
	srv, err := New(&Config{Framing: framing.DefaultConfig()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sink := srv.packetSink("test:1", "tcp")
	sink(0x01, []byte{0x10})
	sink(0x02, nil)

	if got := srv.PacketsTotal(); got != 2 {
		t.Errorf("PacketsTotal() = %d, want 2", got)
	}
}

func TestSavePacketToCapture(t *testing.T) {
	dir := t.TempDir()

	SavePacketToCapture("192.168.1.5:1234", "tcp", 1, 0x42, []byte("hello"), dir)
	SavePacketToCapture("192.168.1.5:1234", "tcp", 2, 0x01, nil, dir)

	matches, err := filepath.Glob(filepath.Join(dir, "capture-*.jsonl"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected exactly one capture file, got %v (err=%v)", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("failed to open capture file: %v", err)
	}
	defer f.Close()

	var records []PacketCapture
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec PacketCapture
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("failed to parse capture line: %v", err)
		}
		records = append(records, rec)
	}

	if len(records) != 2 {
		t.Fatalf("capture file has %d records, want 2", len(records))
	}

	first := records[0]
	if first.Mode != "0x42" {
		t.Errorf("Mode = %q, want 0x42", first.Mode)
	}
	if first.PayloadLen != 5 {
		t.Errorf("PayloadLen = %d, want 5", first.PayloadLen)
	}
	if first.PayloadHex != "68656c6c6f" {
		t.Errorf("PayloadHex = %q, want 68656c6c6f", first.PayloadHex)
	}
	if first.PayloadAscii != "hello" {
		t.Errorf("PayloadAscii = %q, want hello", first.PayloadAscii)
	}
	if first.Transport != "tcp" {
		t.Errorf("Transport = %q, want tcp", first.Transport)
	}

	if records[1].PayloadLen != 0 {
		t.Errorf("second record PayloadLen = %d, want 0", records[1].PayloadLen)
	}
}

func TestSavePacketToCapture_DisabledIsNoOp(t *testing.T) {
	// Must not panic or create files anywhere
	SavePacketToCapture("addr", "tcp", 1, 0x01, []byte{0x01}, "")
}

func TestToASCII(t *testing.T) {
	got := toASCII([]byte{0x00, 'A', 0x7F, 'z', 0xFF})
	if got != ".A.z." {
		t.Errorf("toASCII() = %q, want .A.z.", got)
	}
}
