package framing

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Wire format constants. Marker length, mode width, and length-field width
// are fixed for every Framer instance; only the marker byte values are
// configurable at construction.
const (
	// MarkerLen is the number of bytes in the start and end markers.
	// Each marker is MarkerLen repetitions of the configured marker byte.
	MarkerLen = 4

	// LengthLen is the width of the payload length field (little-endian uint16).
	LengthLen = 2

	// DefaultStartByte is the default start marker byte value.
	DefaultStartByte = 0xAA

	// DefaultEndByte is the default end marker byte value.
	DefaultEndByte = 0xBB

	// MaxPayloadSize is the largest payload the 2-byte length field can describe.
	MaxPayloadSize = 0xFFFF
)

var (
	// ErrNoSink is returned by Append when no notification sink has been
	// registered. Bytes are never queued without a sink.
	ErrNoSink = errors.New("framing: no sink registered")

	// ErrClosed is returned by Append after Close has been called.
	ErrClosed = errors.New("framing: framer closed")
)

// Sink is the notification callback invoked once per completed packet.
// It runs synchronously on the framer's worker goroutine, so a slow sink
// delays parsing of subsequent packets (implicit backpressure).
type Sink func(mode byte, payload []byte)

// Config holds the construction-time framing configuration.
type Config struct {
	StartByte byte // Start marker byte value (repeated MarkerLen times)
	EndByte   byte // End marker byte value (repeated MarkerLen times)
}

// DefaultConfig returns the default framing configuration (0xAA / 0xBB markers).
func DefaultConfig() *Config {
	return &Config{
		StartByte: DefaultStartByte,
		EndByte:   DefaultEndByte,
	}
}

// parseState is the incremental cursor of the framing state machine.
// It survives across drain cycles because any field may be split across
// Append calls.
type parseState int

const (
	stateAwaitStart parseState = iota
	stateAwaitMode
	stateAwaitLength
	stateAwaitPayload
	stateAwaitEnd
)

// String returns a human-readable state name (used in debug logging).
func (s parseState) String() string {
	switch s {
	case stateAwaitStart:
		return "awaiting_start"
	case stateAwaitMode:
		return "awaiting_mode"
	case stateAwaitLength:
		return "awaiting_length"
	case stateAwaitPayload:
		return "awaiting_payload"
	case stateAwaitEnd:
		return "awaiting_end"
	default:
		return "unknown"
	}
}

// Stats holds cumulative framer counters. Values only ever increase.
type Stats struct {
	Packets        uint64 // Completed packets delivered to the sink
	BytesDiscarded uint64 // Bytes dropped while scanning for a start marker
	Resyncs        uint64 // End-marker mismatches (framing corruption events)
}

// Framer reconstructs discrete packets from an incrementally arriving byte
// stream. Producers feed bytes with Append from any number of goroutines;
// a single dedicated worker goroutine drains the shared queue, drives the
// parsing state machine, and invokes the registered sink once per packet.
//
// Wire format:
//
//	[START x4] [MODE 1 byte] [LENGTH 2 bytes LE] [PAYLOAD] [END x4]
type Framer struct {
	startByte byte
	endByte   byte

	// Shared state, guarded by mu. Producers only ever touch queue and sink.
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []byte
	sink    Sink
	stopped bool

	// Worker-owned state. Never touched by producers. The worker reads it
	// under mu only when evaluating the wake condition.
	pending []byte
	state   parseState
	mode    byte
	need    int // Payload length for the current packet
	payload []byte

	// Counters, updated by the worker, readable from any goroutine.
	packets        atomic.Uint64
	bytesDiscarded atomic.Uint64
	resyncs        atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Framer and spawns its worker goroutine. A nil cfg uses
// DefaultConfig. The caller must register a sink with SetSink before the
// first Append, and must call Close when finished.
func New(cfg *Config) *Framer {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	f := &Framer{
		startByte: cfg.StartByte,
		endByte:   cfg.EndByte,
		state:     stateAwaitStart,
		done:      make(chan struct{}),
	}
	f.cond = sync.NewCond(&f.mu)

	go f.run()

	return f
}

// SetSink registers the notification callback. The framer borrows the
// callback; it does not manage its lifetime.
func (f *Framer) SetSink(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
}

// Append queues raw bytes for parsing and wakes the worker. Safe for
// concurrent use. Fails with ErrNoSink if no sink is registered (no bytes
// are queued) and ErrClosed after Close.
func (f *Framer) Append(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sink == nil {
		return ErrNoSink
	}
	if f.stopped {
		return ErrClosed
	}

	f.queue = append(f.queue, data...)
	f.cond.Signal()

	return nil
}

// Close stops the worker and waits for it to exit. Any partially parsed
// packet is discarded; there is no partial-delivery guarantee. Close is
// idempotent and always returns nil.
func (f *Framer) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.stopped = true
		f.cond.Signal()
		f.mu.Unlock()
		<-f.done
	})
	return nil
}

// Stats returns a snapshot of the framer's counters.
func (f *Framer) Stats() Stats {
	return Stats{
		Packets:        f.packets.Load(),
		BytesDiscarded: f.bytesDiscarded.Load(),
		Resyncs:        f.resyncs.Load(),
	}
}

// run is the worker loop: block until woken, drain the shared queue into
// the pending buffer, then advance the state machine until it suspends.
func (f *Framer) run() {
	defer close(f.done)

	for {
		f.mu.Lock()
		// The third wake clause (canAdvance) guarantees that packets already
		// complete in the pending buffer are delivered without waiting for
		// unrelated new data.
		for !f.stopped && len(f.queue) == 0 && !f.canAdvance() {
			f.cond.Wait()
		}
		if f.stopped {
			f.mu.Unlock()
			return
		}

		if len(f.queue) > 0 {
			f.pending = append(f.pending, f.queue...)
			f.queue = f.queue[:0]
		}
		sink := f.sink
		f.mu.Unlock()

		// Parsing runs outside the lock so producers are never blocked by
		// CPU-bound framing work or a slow sink.
		f.advance(sink)
	}
}

// canAdvance reports whether the pending buffer alone holds enough bytes
// for the state machine to make progress in its current phase. Called by
// the worker with mu held.
func (f *Framer) canAdvance() bool {
	switch f.state {
	case stateAwaitStart:
		// After a suspended scan the pending buffer holds at most
		// MarkerLen-1 bytes, so this cannot spin.
		return len(f.pending) >= MarkerLen
	case stateAwaitMode:
		return len(f.pending) >= 1
	case stateAwaitLength:
		return len(f.pending) >= LengthLen
	case stateAwaitPayload:
		return len(f.pending) >= f.need
	case stateAwaitEnd:
		return len(f.pending) >= MarkerLen
	default:
		return false
	}
}

// advance drives the state machine over the pending buffer until a phase
// has too few bytes to proceed. Multiple complete packets in the buffer
// are all delivered in this single pass.
func (f *Framer) advance(sink Sink) {
	for {
		switch f.state {
		case stateAwaitStart:
			if !f.scanStart() {
				return
			}

		case stateAwaitMode:
			if len(f.pending) < 1 {
				return
			}
			f.mode = f.pending[0]
			f.pending = f.pending[1:]
			f.state = stateAwaitLength

		case stateAwaitLength:
			if len(f.pending) < LengthLen {
				return
			}
			// Little-endian uint16, fixed wire contract.
			f.need = int(f.pending[0]) | int(f.pending[1])<<8
			f.pending = f.pending[LengthLen:]
			if f.need == 0 {
				f.payload = nil
				f.state = stateAwaitEnd
			} else {
				f.state = stateAwaitPayload
			}

		case stateAwaitPayload:
			if len(f.pending) < f.need {
				return
			}
			f.payload = make([]byte, f.need)
			copy(f.payload, f.pending[:f.need])
			f.pending = f.pending[f.need:]
			f.state = stateAwaitEnd

		case stateAwaitEnd:
			if len(f.pending) < MarkerLen {
				return
			}
			if f.isMarker(f.pending[:MarkerLen], f.endByte) {
				f.pending = f.pending[MarkerLen:]
				f.state = stateAwaitStart
				f.packets.Add(1)
				if sink != nil {
					sink(f.mode, f.payload)
				}
				f.payload = nil
			} else {
				// Framing corruption: never deliver a packet whose end
				// marker failed validation. Resynchronize by discarding a
				// single byte and rescanning for a start marker.
				f.resyncs.Add(1)
				f.bytesDiscarded.Add(1)
				f.pending = f.pending[1:]
				f.payload = nil
				f.state = stateAwaitStart
			}
		}
	}
}

// scanStart searches the pending buffer for the start marker. On a match
// it consumes everything up to and including the marker and returns true.
// Otherwise it discards bytes that can no longer be part of a marker,
// keeps any trailing partial-marker prefix, and returns false (suspend).
func (f *Framer) scanStart() bool {
	if len(f.pending) < MarkerLen {
		return false
	}

	for i := 0; i+MarkerLen <= len(f.pending); i++ {
		if f.isMarker(f.pending[i:i+MarkerLen], f.startByte) {
			f.bytesDiscarded.Add(uint64(i))
			f.pending = f.pending[i+MarkerLen:]
			f.state = stateAwaitMode
			return true
		}
	}

	// No marker found. Keep only the trailing run of start bytes (a
	// possible marker prefix, at most MarkerLen-1 long) and drop the rest.
	keep := 0
	for keep < MarkerLen-1 && keep < len(f.pending) &&
		f.pending[len(f.pending)-1-keep] == f.startByte {
		keep++
	}
	f.bytesDiscarded.Add(uint64(len(f.pending) - keep))
	f.pending = f.pending[len(f.pending)-keep:]

	return false
}

// isMarker reports whether every byte of b equals the marker byte value.
func (f *Framer) isMarker(b []byte, value byte) bool {
	for _, c := range b {
		if c != value {
			return false
		}
	}
	return true
}
