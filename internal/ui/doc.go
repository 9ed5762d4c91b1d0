// Package ui implements the live packet monitor terminal UI.
//
// The monitor is a Bubble Tea program that renders decoded packets as they
// arrive: a bordered header with the listen address, framing profile, and
// running counters, above a scrollable viewport of packet rows (timestamp,
// mode, payload size, producer address, hex preview).
//
// The ingest side feeds the program by sending messages:
//
//	program.Send(ui.PacketMsg{
//	    Time:       time.Now(),
//	    RemoteAddr: remoteAddr,
//	    Mode:       mode,
//	    PayloadLen: len(payload),
//	    Preview:    ui.PreviewHex(payload),
//	})
//
// ConnEventMsg tracks producer connect/disconnect and StatsMsg refreshes
// the resync counter. Program.Send is safe to call from any goroutine,
// including framer worker goroutines.
package ui
