package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/muurk/framelink/internal/config"
	"github.com/muurk/framelink/internal/discovery"
	"github.com/muurk/framelink/internal/framing"
	"github.com/muurk/framelink/internal/logging"
)

// Send command flags
var (
	sendAddr        string
	sendURL         string
	sendMode        string
	sendPayloadHex  string
	sendPayloadText string
	sendCount       int
	sendInterval    time.Duration
	sendStartByte   int
	sendEndByte     int
	sendFragment    int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build and transmit packets to an ingest server",
	Long: `Build wire-format packets and transmit them to a running ingest server.

The target is either a raw TCP address (--addr) or a WebSocket URL (--url).
The payload is given as hex (--payload-hex) or literal text (--payload-text).
Marker byte values default to the configuration file profile.

The --fragment flag splits the byte stream into chunks of the given size
before transmission, which exercises the server's incremental reassembly.`,
	Example: `  # Send one packet over TCP
  framelink-send send --addr 192.168.1.10:9710 --mode 0x01 --payload-hex 102030

  # Send a text payload over WebSocket
  framelink-send send --url ws://192.168.1.10:9711/ingest --mode 0x02 --payload-text "hello"

  # Send 100 packets, one every 50ms, fragmented into 3-byte chunks
  framelink-send send --addr 192.168.1.10:9710 --mode 0x01 --payload-hex 102030 \
      --count 100 --interval 50ms --fragment 3

  # Send an empty packet with custom markers
  framelink-send send --addr localhost:9710 --mode 0x7f --start-byte 0x7e --end-byte 0x7f`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendAddr, "addr", "", "TCP address of the ingest server (host:port)")
	sendCmd.Flags().StringVar(&sendURL, "url", "", "WebSocket URL of the ingest server (ws://host:port/ingest)")
	sendCmd.Flags().StringVar(&sendMode, "mode", "", "Packet mode byte (e.g. 0x01)")
	sendCmd.Flags().StringVar(&sendPayloadHex, "payload-hex", "", "Payload as hex string")
	sendCmd.Flags().StringVar(&sendPayloadText, "payload-text", "", "Payload as literal text")
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "Number of packets to send")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 0, "Delay between packets")
	sendCmd.Flags().IntVar(&sendStartByte, "start-byte", -1, "Start marker byte value 0-255 (-1 = config default)")
	sendCmd.Flags().IntVar(&sendEndByte, "end-byte", -1, "End marker byte value 0-255 (-1 = config default)")
	sendCmd.Flags().IntVar(&sendFragment, "fragment", 0, "Fragment the stream into chunks of this size (0 = whole packets)")

	_ = sendCmd.MarkFlagRequired("mode")
}

func runSend(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	if (sendAddr == "") == (sendURL == "") {
		return fmt.Errorf("exactly one of --addr or --url must be given")
	}
	if sendPayloadHex != "" && sendPayloadText != "" {
		return fmt.Errorf("--payload-hex and --payload-text are mutually exclusive")
	}
	if sendCount < 1 {
		return fmt.Errorf("invalid count: %d", sendCount)
	}

	mode, err := parseByteValue(sendMode)
	if err != nil {
		return fmt.Errorf("invalid mode: %w", err)
	}

	var payload []byte
	if sendPayloadHex != "" {
		payload, err = hex.DecodeString(sendPayloadHex)
		if err != nil {
			return fmt.Errorf("invalid payload hex: %w", err)
		}
	} else if sendPayloadText != "" {
		payload = []byte(sendPayloadText)
	}

	framingCfg, err := resolveFramingConfig()
	if err != nil {
		return err
	}

	packet, err := framing.BuildPacket(framingCfg, mode, payload)
	if err != nil {
		return fmt.Errorf("failed to build packet: %w", err)
	}

	writer, closer, err := dialTarget()
	if err != nil {
		return err
	}
	defer closer()

	for i := 0; i < sendCount; i++ {
		if i > 0 && sendInterval > 0 {
			time.Sleep(sendInterval)
		}
		if err := writeFragmented(writer, packet, sendFragment); err != nil {
			return fmt.Errorf("failed to send packet %d/%d: %w", i+1, sendCount, err)
		}
	}

	fmt.Printf("Sent %d packet(s): mode=0x%02x payload=%d bytes (%d bytes each on the wire)\n",
		sendCount, mode, len(payload), len(packet))
	return nil
}

// dialTarget opens the TCP or WebSocket transport and returns a chunk
// writer plus a close function.
func dialTarget() (func([]byte) error, func(), error) {
	if sendAddr != "" {
		conn, err := net.DialTimeout("tcp", sendAddr, 10*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to %s: %w", sendAddr, err)
		}
		write := func(chunk []byte) error {
			_, werr := conn.Write(chunk)
			return werr
		}
		return write, func() { _ = conn.Close() }, nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(sendURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", sendURL, err)
	}
	write := func(chunk []byte) error {
		return conn.WriteMessage(websocket.BinaryMessage, chunk)
	}
	return write, func() { _ = conn.Close() }, nil
}

// writeFragmented writes the packet either whole or in fixed-size chunks
func writeFragmented(write func([]byte) error, packet []byte, fragment int) error {
	if fragment <= 0 || fragment >= len(packet) {
		return write(packet)
	}
	for off := 0; off < len(packet); off += fragment {
		end := off + fragment
		if end > len(packet) {
			end = len(packet)
		}
		if err := write(packet[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// resolveFramingConfig loads the configured profile and applies flag overrides
func resolveFramingConfig() (*framing.Config, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := settings.Framing.FramingConfig()
	if sendStartByte >= 0 {
		if sendStartByte > 255 {
			return nil, fmt.Errorf("invalid start byte: %d (must be 0-255)", sendStartByte)
		}
		cfg.StartByte = byte(sendStartByte)
	}
	if sendEndByte >= 0 {
		if sendEndByte > 255 {
			return nil, fmt.Errorf("invalid end byte: %d (must be 0-255)", sendEndByte)
		}
		cfg.EndByte = byte(sendEndByte)
	}
	return cfg, nil
}

// parseByteValue parses a byte value given as decimal or 0x-prefixed hex
func parseByteValue(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// Discover command flags
var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover ingest servers on the local network",
	Long: `Scan the local network for Framelink ingest servers advertised via mDNS.

Each discovered server is listed with its address and framing profile
(from the mDNS TXT records), ready to paste into 'framelink-send send --addr'.`,
	Example: `  # Scan with the default timeout
  framelink-send discover

  # Quick scan
  framelink-send discover --timeout 3s`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "Discovery timeout")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	fmt.Printf("Scanning for ingest servers (%s)...\n", discoverTimeout)

	sources, err := discovery.ScanForSources(discoverTimeout)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if len(sources) == 0 {
		fmt.Println("No ingest servers found.")
		return nil
	}

	fmt.Printf("Found %d ingest server(s):\n\n", len(sources))
	for _, source := range sources {
		fmt.Printf("  %s\n", source.String())
		if start := source.GetMetadata("start"); start != "" {
			fmt.Printf("    framing: start=0x%s end=0x%s\n", start, source.GetMetadata("end"))
		}
	}

	return nil
}
