// Package logging provides structured logging for Framelink.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the ingest server and CLI tools. It provides both
// general logging functions and specialized functions for framing-specific
// logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, parser state, raw bytes)
//   - Info: Normal operations (connections, packets, state changes)
//   - Warn: Non-fatal issues (connection drops, resync events)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Source connected",
//	    zap.String("remote_addr", "192.168.1.100"),
//	    zap.String("transport", "tcp"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Connection Logging:
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogConnection(remoteAddr, "connection_closed")
//
// Packet Logging:
//
//	logging.LogPacket(remoteAddr, mode, payload)
//
// Raw Byte Logging (debug level):
//
//	logging.LogRawBytes("ingest chunk", data)
//
// # Configuration
//
// Initialize logging at server startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// CLI commands that want silent mode by default should use
// InitializeFromEnv, which reads FRAMELINK_LOG_LEVEL.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
