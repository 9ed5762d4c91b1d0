// Package server implements the Framelink ingest server.
//
// The ingest server accepts raw byte streams from producers over two
// transports and feeds every connection's bytes into a dedicated framing
// parser:
//
//   - Raw TCP: bytes are read straight off the socket. Any tool that can
//     open a TCP connection can act as a producer (netcat included).
//   - WebSocket: binary messages on the /ingest endpoint are treated as
//     stream chunks. Message boundaries carry no framing meaning.
//
// Each decoded packet is logged and, when a capture directory is
// configured, appended to a JSONL capture file for offline analysis.
//
// # Connection Model
//
// Every connection owns one framer instance with its own worker goroutine,
// so a slow producer or a corrupted stream never affects other
// connections. The per-connection sink counts and captures packets; it
// runs on the framer worker, which is the framer's only backpressure
// mechanism.
//
// # Discovery
//
// When advertising is enabled the server registers itself via mDNS as a
// "_framelink._tcp" service, with the framing profile in the TXT records
// so clients can build matching packets.
//
// # Shutdown
//
// The server shuts down gracefully on SIGINT/SIGTERM: the mDNS
// advertisement is withdrawn, listeners are closed, active connections are
// terminated, and connection goroutines are awaited with a timeout.
// Partially parsed packets on open connections are discarded.
package server
