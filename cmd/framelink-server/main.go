// Framelink-server is the ingest server for the Framelink packet framing
// protocol.
//
// It accepts raw byte streams over TCP and WebSocket, reconstructs discrete
// packets with the framing parser, and logs or captures every decoded
// packet. Defaults come from the user configuration file and can be
// overridden with flags.
//
// Usage:
//
//	framelink-server server [flags]
//
// See 'framelink-server server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/framelink/internal/config"
	"github.com/muurk/framelink/internal/framing"
	"github.com/muurk/framelink/internal/server"
	"github.com/muurk/framelink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "framelink-server",
	Short: "Framelink ingest server",
	Long: `The Framelink ingest server accepts raw byte streams over TCP and
WebSocket, reconstructs discrete packets delimited by the configured start
and end markers, and logs every decoded packet.

Note: To send packets to a running server, use the separate 'framelink-send'
utility. For a live terminal monitor, use 'framelink-watch'.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	host       string
	tcpPort    int
	wsPort     int
	startByte  int
	endByte    int
	logLevel   string
	captureDir string
	advertise  bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ingest server",
	Long: `Start the Framelink ingest server to accept byte streams from producers.

Defaults for the listen address, ports, and framing profile are read from
the user configuration file (see 'framelink-server init-config'); any flag
set on the command line takes precedence.

To capture decoded packets for offline analysis, use the --capture-dir flag
to specify a directory where JSONL capture files will be written.`,
	Example: `  # Start with configuration file defaults
  framelink-server server

  # Start on a custom port with debug logging
  framelink-server server --tcp-port 9810 --log-level debug

  # Use a custom framing profile (marker byte values)
  framelink-server server --start-byte 0x7e --end-byte 0x7f

  # Capture decoded packets to JSONL files
  framelink-server server --capture-dir ./captures

  # Run without mDNS advertisement
  framelink-server server --advertise=false`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	serverCmd.Flags().IntVar(&tcpPort, "tcp-port", 0, "TCP ingest port (0 = config default)")
	serverCmd.Flags().IntVar(&wsPort, "ws-port", 0, "WebSocket ingest port (0 = config default, -1 = disabled)")
	serverCmd.Flags().IntVar(&startByte, "start-byte", -1, "Start marker byte value 0-255 (-1 = config default)")
	serverCmd.Flags().IntVar(&endByte, "end-byte", -1, "End marker byte value 0-255 (-1 = config default)")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serverCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory to write packet capture logs (disabled if not specified)")
	serverCmd.Flags().BoolVar(&advertise, "advertise", true, "Advertise the ingest server via mDNS")
}

func runServer(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override configuration file defaults
	if !cmd.Flags().Changed("host") {
		host = settings.Server.Host
	}
	if tcpPort == 0 {
		tcpPort = settings.Server.TCPPort
	}
	if wsPort == 0 {
		wsPort = settings.Server.WSPort
	} else if wsPort < 0 {
		wsPort = 0 // Disabled
	}
	if captureDir == "" {
		captureDir = settings.Server.CaptureDir
	}
	if !cmd.Flags().Changed("advertise") {
		advertise = settings.Preferences.Advertise
	}

	framingCfg := settings.Framing.FramingConfig()
	if startByte >= 0 {
		if startByte > 255 {
			return fmt.Errorf("invalid start byte: %d (must be 0-255)", startByte)
		}
		framingCfg.StartByte = byte(startByte)
	}
	if endByte >= 0 {
		if endByte > 255 {
			return fmt.Errorf("invalid end byte: %d (must be 0-255)", endByte)
		}
		framingCfg.EndByte = byte(endByte)
	}
	if framingCfg.StartByte == framingCfg.EndByte {
		return fmt.Errorf("start and end marker bytes must differ (both 0x%02x)", framingCfg.StartByte)
	}

	// Validate capture directory if specified
	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
	}

	// Create server configuration
	cfg := &server.Config{
		Host:       host,
		TCPPort:    tcpPort,
		WSPort:     wsPort,
		Framing:    framingCfg,
		LogLevel:   logLevel,
		CaptureDir: captureDir,
		Advertise:  advertise,
	}

	// Create and start server
	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// Init-config command
var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default configuration file",
	Long: `Create a default configuration file with the standard framing profile
(start marker 0xAA, end marker 0xBB) and server defaults. Existing
settings are overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		fmt.Printf("Framing profile: start=0x%02x end=0x%02x\n",
			framing.DefaultStartByte, framing.DefaultEndByte)
		return nil
	},
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("framelink-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
