package server

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/muurk/framelink/internal/logging"
	"go.uber.org/zap"
)

// PacketCapture represents a captured packet for offline analysis
type PacketCapture struct {
	Timestamp    time.Time `json:"timestamp"`
	PacketNum    int       `json:"packet_num"`
	RemoteAddr   string    `json:"remote_addr"`
	Transport    string    `json:"transport"`
	Mode         string    `json:"mode"`
	PayloadLen   int       `json:"payload_length"`
	PayloadHex   string    `json:"payload_hex"`
	PayloadAscii string    `json:"payload_ascii"`
}

// SavePacketToCapture saves a decoded packet to the capture directory
// If captureDir is empty, this function does nothing (capture disabled)
func SavePacketToCapture(remoteAddr, transport string, packetNum int, mode byte, payload []byte, captureDir string) {
	// Skip if packet capture is disabled
	if captureDir == "" {
		return
	}

	// Create filename with timestamp (one file per day keeps captures manageable)
	timestamp := time.Now()
	filename := filepath.Join(captureDir, fmt.Sprintf("capture-%s.jsonl",
		timestamp.Format("20060102")))

	// Prepare capture record
	capture := PacketCapture{
		Timestamp:    timestamp,
		PacketNum:    packetNum,
		RemoteAddr:   remoteAddr,
		Transport:    transport,
		Mode:         fmt.Sprintf("0x%02x", mode),
		PayloadLen:   len(payload),
		PayloadHex:   hex.EncodeToString(payload),
		PayloadAscii: toASCII(payload),
	}

	// Append to JSONL file (JSON Lines format - one JSON object per line)
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open capture file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = f.Close() }()

	// Write JSON line
	data, err := json.Marshal(capture)
	if err != nil {
		logging.Error("Failed to marshal packet capture",
			zap.Error(err),
		)
		return
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write to capture file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}

	logging.Debug("Saved packet to capture file",
		zap.String("filename", filename),
		zap.Int("packet_num", packetNum),
	)
}

// toASCII converts bytes to ASCII string (non-printable chars become '.')
func toASCII(data []byte) string {
	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}
