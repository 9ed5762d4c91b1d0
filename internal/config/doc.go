// Package config provides user configuration management for Framelink.
//
// This package manages a YAML-based configuration file that stores the wire
// framing profile (marker byte values), ingest server defaults, and
// application preferences. The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/framelink/config.yaml or $HOME/.config/framelink/config.yaml
//   - macOS: $HOME/.config/framelink/config.yaml
//   - Windows: %LOCALAPPDATA%\framelink\config.yaml
//
// # Usage Example
//
//	// Load the global settings
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Build a framer from the configured profile
//	framer := framing.New(settings.Framing.FramingConfig())
//
//	// Change defaults and save atomically
//	settings.Server.TCPPort = 9810
//	if err := settings.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global settings use sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
