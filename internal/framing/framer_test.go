package framing

import (
	"bytes"
	"testing"
	"time"
)

// testPacket captures one sink invocation.
type testPacket struct {
	mode    byte
	payload []byte
}

// collectPackets registers a channel-backed sink on the framer.
func collectPackets(f *Framer) <-chan testPacket {
	ch := make(chan testPacket, 64)
	f.SetSink(func(mode byte, payload []byte) {
		ch <- testPacket{mode: mode, payload: payload}
	})
	return ch
}

func waitPacket(t *testing.T, ch <-chan testPacket) testPacket {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for packet")
		return testPacket{}
	}
}

func assertNoPacket(t *testing.T, ch <-chan testPacket) {
	t.Helper()
	select {
	case p := <-ch:
		t.Fatalf("unexpected packet delivered: mode=0x%02x payload=%x", p.mode, p.payload)
	case <-time.After(100 * time.Millisecond):
	}
}

// specimen is the reference packet used throughout the tests:
// start marker 4x 0xAA, mode 0x01, length 3, payload 10 20 30, end marker 4x 0xBB.
func specimen(t *testing.T) []byte {
	t.Helper()
	packet, err := BuildPacket(DefaultConfig(), 0x01, []byte{0x10, 0x20, 0x30})
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}
	return packet
}

func TestFramer_RoundTrip(t *testing.T) {
	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	if err := f.Append(specimen(t)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p := waitPacket(t, ch)
	if p.mode != 0x01 {
		t.Errorf("mode = 0x%02x, want 0x01", p.mode)
	}
	if !bytes.Equal(p.payload, []byte{0x10, 0x20, 0x30}) {
		t.Errorf("payload = %x, want 102030", p.payload)
	}

	// Exactly one callback for one packet.
	assertNoPacket(t, ch)
}

func TestFramer_Fragmentation(t *testing.T) {
	stream := specimen(t)

	tests := []struct {
		name   string
		chunks [][]byte
	}{
		{
			name: "one byte per append",
			chunks: func() [][]byte {
				var chunks [][]byte
				for _, b := range stream {
					chunks = append(chunks, []byte{b})
				}
				return chunks
			}(),
		},
		{
			name: "split inside start marker",
			chunks: [][]byte{
				stream[:2],
				stream[2:],
			},
		},
		{
			name: "split between mode and length",
			chunks: [][]byte{
				stream[:5],
				stream[5:],
			},
		},
		{
			name: "split inside length field",
			chunks: [][]byte{
				stream[:6],
				stream[6:],
			},
		},
		{
			name: "split inside payload",
			chunks: [][]byte{
				stream[:8],
				stream[8:9],
				stream[9:],
			},
		},
		{
			name: "split inside end marker",
			chunks: [][]byte{
				stream[:len(stream)-2],
				stream[len(stream)-2:],
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(DefaultConfig())
			defer f.Close()
			ch := collectPackets(f)

			for _, chunk := range tt.chunks {
				if err := f.Append(chunk); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}

			p := waitPacket(t, ch)
			if p.mode != 0x01 {
				t.Errorf("mode = 0x%02x, want 0x01", p.mode)
			}
			if !bytes.Equal(p.payload, []byte{0x10, 0x20, 0x30}) {
				t.Errorf("payload = %x, want 102030", p.payload)
			}
			assertNoPacket(t, ch)
		})
	}
}

func TestFramer_MultiPacketBurst(t *testing.T) {
	first, err := BuildPacket(DefaultConfig(), 0x01, []byte{0x10, 0x20, 0x30})
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}
	second, err := BuildPacket(DefaultConfig(), 0x02, []byte{0x40})
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}

	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	// Both packets in a single append must yield two callbacks in stream
	// order without any further append.
	burst := append(append([]byte{}, first...), second...)
	if err := f.Append(burst); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p1 := waitPacket(t, ch)
	if p1.mode != 0x01 || !bytes.Equal(p1.payload, []byte{0x10, 0x20, 0x30}) {
		t.Errorf("first packet = {0x%02x, %x}, want {0x01, 102030}", p1.mode, p1.payload)
	}

	p2 := waitPacket(t, ch)
	if p2.mode != 0x02 || !bytes.Equal(p2.payload, []byte{0x40}) {
		t.Errorf("second packet = {0x%02x, %x}, want {0x02, 40}", p2.mode, p2.payload)
	}

	assertNoPacket(t, ch)
}

func TestFramer_ZeroLengthPayload(t *testing.T) {
	packet, err := BuildPacket(DefaultConfig(), 0x7F, nil)
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}

	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	if err := f.Append(packet); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p := waitPacket(t, ch)
	if p.mode != 0x7F {
		t.Errorf("mode = 0x%02x, want 0x7f", p.mode)
	}
	if len(p.payload) != 0 {
		t.Errorf("payload length = %d, want 0", len(p.payload))
	}
}

func TestFramer_NoiseBeforeMarker(t *testing.T) {
	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	// Garbage preceding the start marker, including isolated start bytes
	// that never form a full marker.
	noise := []byte{0x00, 0xFF, 0xAA, 0x13, 0xAA, 0xAA, 0x37}
	stream := append(noise, specimen(t)...)
	if err := f.Append(stream); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p := waitPacket(t, ch)
	if p.mode != 0x01 {
		t.Errorf("mode = 0x%02x, want 0x01", p.mode)
	}
	if !bytes.Equal(p.payload, []byte{0x10, 0x20, 0x30}) {
		t.Errorf("payload = %x, want 102030 (noise leaked into payload?)", p.payload)
	}
	assertNoPacket(t, ch)
}

func TestFramer_CorruptedEndMarker(t *testing.T) {
	corrupted := specimen(t)
	corrupted[len(corrupted)-2] = 0xCC // Break the end marker

	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	if err := f.Append(corrupted); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// The corrupted packet must never be delivered.
	assertNoPacket(t, ch)

	// The parser must recover on the next valid packet in the stream.
	if err := f.Append(specimen(t)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p := waitPacket(t, ch)
	if p.mode != 0x01 {
		t.Errorf("mode after resync = 0x%02x, want 0x01", p.mode)
	}
	if !bytes.Equal(p.payload, []byte{0x10, 0x20, 0x30}) {
		t.Errorf("payload after resync = %x, want 102030", p.payload)
	}

	stats := f.Stats()
	if stats.Resyncs == 0 {
		t.Error("Stats().Resyncs = 0, want at least 1 after corrupted end marker")
	}
	if stats.Packets != 1 {
		t.Errorf("Stats().Packets = %d, want 1", stats.Packets)
	}
}

func TestFramer_AppendWithoutSink(t *testing.T) {
	f := New(DefaultConfig())
	defer f.Close()

	err := f.Append([]byte{0x01, 0x02})
	if err != ErrNoSink {
		t.Fatalf("Append() error = %v, want ErrNoSink", err)
	}

	// The queue must be left unchanged: register a sink afterwards and
	// verify the rejected bytes did not survive as stream noise.
	ch := collectPackets(f)
	if err := f.Append(specimen(t)); err != nil {
		t.Fatalf("Append() after SetSink error = %v", err)
	}

	p := waitPacket(t, ch)
	if !bytes.Equal(p.payload, []byte{0x10, 0x20, 0x30}) {
		t.Errorf("payload = %x, want 102030", p.payload)
	}
	if got := f.Stats().BytesDiscarded; got != 0 {
		t.Errorf("Stats().BytesDiscarded = %d, want 0 (rejected bytes were queued)", got)
	}
}

func TestFramer_CustomMarkers(t *testing.T) {
	cfg := &Config{StartByte: 0x7E, EndByte: 0x7F}

	packet, err := BuildPacket(cfg, 0x42, []byte{0xDE, 0xAD})
	if err != nil {
		t.Fatalf("BuildPacket() error = %v", err)
	}

	f := New(cfg)
	defer f.Close()
	ch := collectPackets(f)

	if err := f.Append(packet); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p := waitPacket(t, ch)
	if p.mode != 0x42 {
		t.Errorf("mode = 0x%02x, want 0x42", p.mode)
	}
	if !bytes.Equal(p.payload, []byte{0xDE, 0xAD}) {
		t.Errorf("payload = %x, want dead", p.payload)
	}
}

func TestFramer_PacketSplitAcrossAppends(t *testing.T) {
	// A packet whose tail arrives together with the head of the next one.
	first, _ := BuildPacket(DefaultConfig(), 0x01, []byte{0x10, 0x20, 0x30})
	second, _ := BuildPacket(DefaultConfig(), 0x02, []byte{0x40, 0x50})
	stream := append(append([]byte{}, first...), second...)

	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	split := len(first) - 2
	if err := f.Append(stream[:split]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := f.Append(stream[split:]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	p1 := waitPacket(t, ch)
	p2 := waitPacket(t, ch)
	if p1.mode != 0x01 || p2.mode != 0x02 {
		t.Errorf("packet order = 0x%02x, 0x%02x, want 0x01, 0x02", p1.mode, p2.mode)
	}
}

func TestFramer_CloseDiscardsPartialPacket(t *testing.T) {
	f := New(DefaultConfig())
	ch := collectPackets(f)

	// Start of a packet with no end in sight.
	partial := specimen(t)
	if err := f.Append(partial[:7]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Close is idempotent.
	if err := f.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if err := f.Append([]byte{0x01}); err != ErrClosed {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}

	assertNoPacket(t, ch)
}

func TestFramer_ConcurrentProducers(t *testing.T) {
	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	const producers = 4
	const perProducer = 25

	packet := specimen(t)
	for i := 0; i < producers; i++ {
		go func() {
			for j := 0; j < perProducer; j++ {
				// Each producer appends whole packets, so interleaving at
				// packet granularity keeps the stream well formed.
				if err := f.Append(packet); err != nil {
					t.Errorf("Append() error = %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < producers*perProducer; i++ {
		p := waitPacket(t, ch)
		if p.mode != 0x01 {
			t.Fatalf("packet %d mode = 0x%02x, want 0x01", i, p.mode)
		}
	}
	assertNoPacket(t, ch)
}

func TestFramer_StatsCountsDiscardedNoise(t *testing.T) {
	f := New(DefaultConfig())
	defer f.Close()
	ch := collectPackets(f)

	noise := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if err := f.Append(append(noise, specimen(t)...)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	waitPacket(t, ch)

	stats := f.Stats()
	if stats.BytesDiscarded != uint64(len(noise)) {
		t.Errorf("Stats().BytesDiscarded = %d, want %d", stats.BytesDiscarded, len(noise))
	}
	if stats.Packets != 1 {
		t.Errorf("Stats().Packets = %d, want 1", stats.Packets)
	}
}

func BenchmarkFramer_RoundTrip(b *testing.B) {
	packet, err := BuildPacket(DefaultConfig(), 0x01, make([]byte, 256))
	if err != nil {
		b.Fatal(err)
	}

	f := New(DefaultConfig())
	defer f.Close()

	done := make(chan struct{}, 1)
	f.SetSink(func(mode byte, payload []byte) {
		done <- struct{}{}
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := f.Append(packet); err != nil {
			b.Fatal(err)
		}
		<-done
	}
}
