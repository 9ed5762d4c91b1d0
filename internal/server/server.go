package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/muurk/framelink/internal/discovery"
	"github.com/muurk/framelink/internal/framing"
	"github.com/muurk/framelink/internal/logging"
	"go.uber.org/zap"
)

// Config holds the ingest server configuration
type Config struct {
	Host       string          // Listen host (empty = all interfaces)
	TCPPort    int             // Raw TCP ingest port
	WSPort     int             // WebSocket ingest port (0 = disabled)
	Framing    *framing.Config // Wire framing profile (nil = defaults)
	LogLevel   string          // Log level for this process
	CaptureDir string          // Directory to write packet capture logs (empty = disabled)
	Advertise  bool            // Advertise the TCP ingest port via mDNS
}

// Server is the Framelink ingest server. It accepts raw byte streams over
// TCP and WebSocket, feeds each connection's bytes into a dedicated framer,
// and logs/captures every decoded packet.
type Server struct {
	config      *Config
	listener    net.Listener
	wsServer    *wsIngest
	advertiser  *discovery.Advertiser
	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]net.Conn
	packetTotal atomic.Uint64
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	// Initialize logging
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if config.Framing == nil {
		config.Framing = framing.DefaultConfig()
	}

	return &Server{
		config:      config,
		activeConns: make(map[string]net.Conn),
	}, nil
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.TCPPort)

	logging.Info("Starting Framelink ingest server",
		zap.String("tcp_addr", addr),
		zap.Int("ws_port", s.config.WSPort),
		zap.String("start_byte", fmt.Sprintf("0x%02x", s.config.Framing.StartByte)),
		zap.String("end_byte", fmt.Sprintf("0x%02x", s.config.Framing.EndByte)),
		zap.String("log_level", s.config.LogLevel),
		zap.String("capture_dir", s.config.CaptureDir),
	)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create TCP listener: %w", err)
	}
	s.listener = listener

	logging.Info("Server listening for connections",
		zap.String("addr", addr),
	)

	// Start the WebSocket ingest endpoint (if enabled)
	if s.config.WSPort > 0 {
		s.wsServer = newWSIngest(s)
		if err := s.wsServer.start(); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to start WebSocket ingest: %w", err)
		}
	}

	// Advertise the TCP ingest port via mDNS (if enabled)
	if s.config.Advertise {
		instance := fmt.Sprintf("framelink-%d", s.config.TCPPort)
		adv, err := discovery.Advertise(instance, s.config.TCPPort,
			s.config.Framing.StartByte, s.config.Framing.EndByte)
		if err != nil {
			logging.Warn("Failed to advertise via mDNS", zap.Error(err))
		} else {
			s.advertiser = adv
			logging.Info("Advertising ingest server via mDNS",
				zap.String("instance", instance),
			)
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start accepting connections in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptConnections()
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// acceptConnections accepts and handles incoming TCP connections
func (s *Server) acceptConnections() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if listener was closed (during shutdown)
			if opErr, ok := err.(*net.OpError); ok && opErr.Err.Error() == "use of closed network connection" {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		// Handle connection in goroutine
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single TCP ingest connection. All bytes read
// from the connection are appended to a dedicated framer; the framer's
// sink logs and captures each decoded packet.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	// Track active connection
	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	logging.LogConnection(remoteAddr, "connection_accepted")

	framer := framing.New(s.config.Framing)
	defer framer.Close()
	framer.SetSink(s.packetSink(remoteAddr, "tcp"))

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			logging.LogRawBytes("ingest chunk", buf[:n])
			if appendErr := framer.Append(buf[:n]); appendErr != nil {
				logging.Error("Failed to append bytes to framer",
					zap.String("remote_addr", remoteAddr),
					zap.Error(appendErr),
				)
				return
			}
		}
		if err != nil {
			logging.Info("Connection closed or read error",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}
}

// packetSink builds the framer sink for one connection. It runs on the
// framer's worker goroutine, so slow capture writes delay parsing for that
// connection only.
func (s *Server) packetSink(remoteAddr, transport string) framing.Sink {
	var packetNum int
	return func(mode byte, payload []byte) {
		packetNum++
		s.packetTotal.Add(1)

		logging.LogPacket(remoteAddr, mode, payload)
		SavePacketToCapture(remoteAddr, transport, packetNum, mode, payload, s.config.CaptureDir)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	// Stop advertising first so clients stop finding us
	if s.advertiser != nil {
		s.advertiser.Shutdown()
	}

	// Close listener to stop accepting new connections
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}

	// Stop the WebSocket ingest endpoint
	if s.wsServer != nil {
		s.wsServer.stop(ctx)
	}

	// Close all active connections
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Info("Server stopped",
		zap.Uint64("packets_total", s.packetTotal.Load()),
	)

	// Sync logger
	logging.Sync()

	return nil
}

// GetActiveConnections returns the number of active TCP connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

// PacketsTotal returns the total number of packets decoded since startup
func (s *Server) PacketsTotal() uint64 {
	return s.packetTotal.Load()
}
