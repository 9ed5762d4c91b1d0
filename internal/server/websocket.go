package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/framelink/internal/framing"
	"github.com/muurk/framelink/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to read the next message from the peer
	readWait = 60 * time.Second

	// Maximum WebSocket message size accepted from a producer
	maxMessageSize = 1 << 20
)

// IngestPath is the HTTP path of the WebSocket ingest endpoint
const IngestPath = "/ingest"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Producers are trusted LAN tools, not browsers
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsIngest is the WebSocket ingest endpoint. Each connection gets its own
// framer; binary messages are treated as raw stream chunks and appended.
type wsIngest struct {
	server     *Server
	httpServer *http.Server
}

func newWSIngest(s *Server) *wsIngest {
	return &wsIngest{server: s}
}

// start begins serving the WebSocket endpoint in a background goroutine
func (w *wsIngest) start() error {
	addr := fmt.Sprintf("%s:%d", w.server.config.Host, w.server.config.WSPort)

	mux := http.NewServeMux()
	mux.HandleFunc(IngestPath, w.handleUpgrade)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create WebSocket listener: %w", err)
	}

	w.httpServer = &http.Server{Handler: mux}

	logging.Info("WebSocket ingest listening",
		zap.String("addr", addr),
		zap.String("path", IngestPath),
	)

	go func() {
		if serveErr := w.httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			logging.Error("WebSocket ingest server error", zap.Error(serveErr))
		}
	}()

	return nil
}

// stop shuts the endpoint down, waiting for in-flight connections
func (w *wsIngest) stop(ctx context.Context) {
	if w.httpServer == nil {
		return
	}
	if err := w.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("WebSocket ingest shutdown error", zap.Error(err))
	}
}

// handleUpgrade upgrades an HTTP request and runs the ingest loop
func (w *wsIngest) handleUpgrade(rw http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	w.server.wg.Add(1)
	defer w.server.wg.Done()

	logging.LogConnection(remoteAddr, "websocket_upgraded")
	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	framer := framing.New(w.server.config.Framing)
	defer framer.Close()
	framer.SetSink(w.server.packetSink(remoteAddr, "websocket"))

	conn.SetReadLimit(maxMessageSize)

	// Main message receive loop
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			logging.Info("Failed to set read deadline, connection may be closed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading message",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			} else {
				logging.Info("Connection closed by producer",
					zap.String("remote_addr", remoteAddr),
				)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			// Binary chunks are the raw byte stream - boundaries carry no
			// meaning, the framer reassembles packets regardless of how
			// the producer fragments them
			logging.LogRawBytes("websocket ingest chunk", data)
			if err := framer.Append(data); err != nil {
				logging.Error("Failed to append bytes to framer",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}

		case websocket.TextMessage:
			logging.Warn("Ignoring text message on binary ingest endpoint",
				zap.String("remote_addr", remoteAddr),
				zap.Int("length", len(data)),
			)

		default:
			logging.Debug("Ignoring control message",
				zap.String("remote_addr", remoteAddr),
				zap.Int("message_type", messageType),
			)
		}
	}
}
