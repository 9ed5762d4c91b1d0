// Framelink-send is a producer utility for the Framelink packet framing
// protocol.
//
// It builds wire-format packets from a mode byte and payload and transmits
// them to a running ingest server over raw TCP or WebSocket. It can also
// discover ingest servers on the local network via mDNS.
//
// Usage:
//
//	framelink-send send --addr 192.168.1.10:9710 --mode 0x01 --payload-hex 102030
//	framelink-send discover
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/framelink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "framelink-send",
	Short: "Framelink packet producer",
	Long: `A producer utility for the Framelink packet framing protocol.

Builds wire-format packets (start marker, mode byte, length-prefixed
payload, end marker) and transmits them to an ingest server over raw TCP
or WebSocket.

Note: To run an ingest server, use the separate 'framelink-server' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("framelink-send %s (commit: %s)\n", version.Version, version.Commit)
	},
}
