// Package framing implements the Framelink streaming packet framer.
//
// The framer accepts raw bytes arriving incrementally from any transport
// and reconstructs discrete packets delimited by a fixed start marker, a
// one-byte mode tag, a length-prefixed payload, and a fixed end marker.
// Each completed packet is delivered to a registered callback.
//
// # Wire Format
//
// Packets have this structure:
//   - Start marker: 4 bytes, each equal to the configured start byte (default 0xAA)
//   - Mode: 1 byte, opaque tag interpreted by the consumer, not the framer
//   - Length: 2 bytes, little-endian uint16 payload size
//   - Payload: exactly Length bytes (may be empty)
//   - End marker: 4 bytes, each equal to the configured end byte (default 0xBB)
//
// The length encoding is a fixed wire contract (little-endian, 2 bytes)
// and is never derived from the platform's native integer layout.
//
// # Incremental Parsing
//
// Input may be fragmented arbitrarily across Append calls - a packet split
// one byte at a time parses identically to the same bytes delivered in a
// single call. The parser suspends whenever the current phase lacks bytes
// and resumes without losing progress when more data arrives. A burst
// containing several complete packets delivers all of them before the
// worker blocks again.
//
// # Corruption Recovery
//
// End markers are validated by content, never by byte count. On a
// mismatch the framer discards the packet, drops a single byte from the
// buffered stream, and rescans for the next start marker. The
// single-byte-discard policy minimizes data loss and is part of the
// package contract.
//
// # Usage Example
//
//	framer := framing.New(framing.DefaultConfig())
//	defer framer.Close()
//
//	framer.SetSink(func(mode byte, payload []byte) {
//	    fmt.Printf("packet mode=0x%02x len=%d\n", mode, len(payload))
//	})
//
//	// Feed bytes from any transport, from any goroutine.
//	if err := framer.Append(data); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Append is safe for concurrent use from any number of producer
// goroutines. The sink is invoked synchronously on the framer's single
// worker goroutine, so a slow sink delays subsequent parsing - this is
// the only backpressure mechanism; the shared queue itself is unbounded.
package framing
