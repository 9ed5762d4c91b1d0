// Framelink-watch is a live terminal monitor for the Framelink packet
// framing protocol.
//
// It runs its own TCP ingest listener and renders every decoded packet
// in a scrolling terminal UI, with per-row timestamps, mode bytes, and
// payload previews. It is meant for interactive protocol debugging; for
// a long-running ingest daemon use 'framelink-server' instead.
//
// Usage:
//
//	framelink-watch --port 9710
package main

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/framelink/internal/config"
	"github.com/muurk/framelink/internal/framing"
	"github.com/muurk/framelink/internal/ui"
	"github.com/muurk/framelink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	watchHost      string
	watchPort      int
	watchStartByte int
	watchEndByte   int
)

var rootCmd = &cobra.Command{
	Use:   "framelink-watch",
	Short: "Live terminal monitor for Framelink packets",
	Long: `Run a TCP ingest listener and watch decoded packets scroll by in a
terminal UI. Each row shows the arrival time, mode byte, payload size,
producer address, and a hex preview of the payload.

The listener uses the framing profile from the configuration file unless
overridden with --start-byte / --end-byte.`,
	Example: `  # Watch on the configured port
  framelink-watch

  # Watch on a custom port with custom markers
  framelink-watch --port 9810 --start-byte 0x7e --end-byte 0x7f`,
	Version: version.Version,
	RunE:    runWatch,
}

func init() {
	rootCmd.Flags().StringVar(&watchHost, "host", "", "Listen host (empty = all interfaces)")
	rootCmd.Flags().IntVar(&watchPort, "port", 0, "TCP ingest port (0 = config default)")
	rootCmd.Flags().IntVar(&watchStartByte, "start-byte", -1, "Start marker byte value 0-255 (-1 = config default)")
	rootCmd.Flags().IntVar(&watchEndByte, "end-byte", -1, "End marker byte value 0-255 (-1 = config default)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !ui.IsInteractive() {
		return fmt.Errorf("framelink-watch requires an interactive terminal (use framelink-server for non-interactive ingest)")
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !cmd.Flags().Changed("host") {
		watchHost = settings.Server.Host
	}
	if watchPort == 0 {
		watchPort = settings.Server.TCPPort
	}

	framingCfg := settings.Framing.FramingConfig()
	if watchStartByte >= 0 {
		if watchStartByte > 255 {
			return fmt.Errorf("invalid start byte: %d (must be 0-255)", watchStartByte)
		}
		framingCfg.StartByte = byte(watchStartByte)
	}
	if watchEndByte >= 0 {
		if watchEndByte > 255 {
			return fmt.Errorf("invalid end byte: %d (must be 0-255)", watchEndByte)
		}
		framingCfg.EndByte = byte(watchEndByte)
	}
	if framingCfg.StartByte == framingCfg.EndByte {
		return fmt.Errorf("start and end marker bytes must differ (both 0x%02x)", framingCfg.StartByte)
	}

	listenAddr := net.JoinHostPort(watchHost, fmt.Sprintf("%d", watchPort))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}
	defer listener.Close()

	profile := fmt.Sprintf("start=0x%02x end=0x%02x", framingCfg.StartByte, framingCfg.EndByte)
	program := tea.NewProgram(
		ui.NewMonitor(listener.Addr().String(), profile),
		tea.WithAltScreen(),
	)

	feeder := &feeder{
		program: program,
		cfg:     framingCfg,
	}
	go feeder.acceptLoop(listener)
	go feeder.statsLoop()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}
	return nil
}

// feeder bridges the TCP ingest side and the Bubble Tea program. Each
// connection gets its own framer; aggregate resync counts are summed
// across live and finished framers for the header stats line.
type feeder struct {
	program *tea.Program
	cfg     *framing.Config

	mu            sync.Mutex
	framers       map[*framing.Framer]struct{}
	resyncsClosed uint64 // Resyncs accumulated by already-closed framers
}

// acceptLoop accepts producer connections until the listener is closed
func (fd *feeder) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go fd.handleConnection(conn)
	}
}

// handleConnection reads the byte stream into a dedicated framer and
// forwards each decoded packet to the monitor
func (fd *feeder) handleConnection(conn net.Conn) {
	defer conn.Close()

	remoteAddr := conn.RemoteAddr().String()
	fd.program.Send(ui.ConnEventMsg{RemoteAddr: remoteAddr, Event: "connected"})
	defer fd.program.Send(ui.ConnEventMsg{RemoteAddr: remoteAddr, Event: "disconnected"})

	framer := framing.New(fd.cfg)
	framer.SetSink(func(mode byte, payload []byte) {
		fd.program.Send(ui.PacketMsg{
			Time:       time.Now(),
			RemoteAddr: remoteAddr,
			Mode:       mode,
			PayloadLen: len(payload),
			Preview:    ui.PreviewHex(payload),
		})
	})
	fd.track(framer)
	defer fd.untrack(framer)
	defer framer.Close()

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if aerr := framer.Append(buf[:n]); aerr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// statsLoop pushes aggregate resync counts to the monitor header
func (fd *feeder) statsLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		fd.program.Send(ui.StatsMsg{Resyncs: fd.totalResyncs()})
	}
}

func (fd *feeder) track(f *framing.Framer) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.framers == nil {
		fd.framers = make(map[*framing.Framer]struct{})
	}
	fd.framers[f] = struct{}{}
}

func (fd *feeder) untrack(f *framing.Framer) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.resyncsClosed += f.Stats().Resyncs
	delete(fd.framers, f)
}

func (fd *feeder) totalResyncs() uint64 {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	total := fd.resyncsClosed
	for f := range fd.framers {
		total += f.Stats().Resyncs
	}
	return total
}
