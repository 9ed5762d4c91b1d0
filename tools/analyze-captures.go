//go:build ignore

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// PacketCapture matches the capture record written by the ingest server
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

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-captures <jsonl-file> [--dump]")
		fmt.Println("Example: analyze-captures captures/capture-20260829.jsonl")
		os.Exit(1)
	}

	filename := os.Args[1]
	dump := len(os.Args) > 2 && os.Args[2] == "--dump"

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	var captures []PacketCapture
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		var c PacketCapture
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			fmt.Printf("Error parsing line %d: %v\n", i+1, err)
			continue
		}
		captures = append(captures, c)
	}

	fmt.Printf("=== Framelink Capture Analyzer ===\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Packets: %d\n\n", len(captures))

	if len(captures) == 0 {
		return
	}

	summarize(captures)

	if dump {
		fmt.Println()
		for _, c := range captures {
			dumpPacket(&c)
		}
	}
}

// summarize prints mode histogram, size distribution, and per-producer counts
func summarize(captures []PacketCapture) {
	modeCounts := map[string]int{}
	modeBytes := map[string]int{}
	addrCounts := map[string]int{}
	transportCounts := map[string]int{}
	minLen, maxLen, totalLen := captures[0].PayloadLen, 0, 0

	for _, c := range captures {
		modeCounts[c.Mode]++
		modeBytes[c.Mode] += c.PayloadLen
		addrCounts[c.RemoteAddr]++
		transportCounts[c.Transport]++
		totalLen += c.PayloadLen
		if c.PayloadLen < minLen {
			minLen = c.PayloadLen
		}
		if c.PayloadLen > maxLen {
			maxLen = c.PayloadLen
		}
	}

	fmt.Println("Mode histogram:")
	for _, mode := range sortedKeys(modeCounts) {
		fmt.Printf("  %s  %6d packets  %8d payload bytes\n", mode, modeCounts[mode], modeBytes[mode])
	}

	fmt.Println("\nPayload sizes:")
	fmt.Printf("  min=%d max=%d avg=%.1f total=%d\n",
		minLen, maxLen, float64(totalLen)/float64(len(captures)), totalLen)

	fmt.Println("\nProducers:")
	for _, addr := range sortedKeys(addrCounts) {
		fmt.Printf("  %-24s %6d packets\n", addr, addrCounts[addr])
	}

	fmt.Println("\nTransports:")
	for _, tr := range sortedKeys(transportCounts) {
		fmt.Printf("  %-12s %6d packets\n", tr, transportCounts[tr])
	}

	first, last := captures[0].Timestamp, captures[len(captures)-1].Timestamp
	if span := last.Sub(first); span > 0 {
		fmt.Printf("\nTime span: %s (%.1f packets/s)\n", span.Round(time.Millisecond),
			float64(len(captures))/span.Seconds())
	}
}

// dumpPacket prints one packet with a full hex dump
func dumpPacket(c *PacketCapture) {
	payload, err := hex.DecodeString(c.PayloadHex)
	if err != nil {
		fmt.Printf("Error decoding hex for packet #%d: %v\n", c.PacketNum, err)
		return
	}

	fmt.Printf("----------------------------------------\n")
	fmt.Printf("Packet #%d  mode=%s  %d bytes  %s  %s/%s\n",
		c.PacketNum, c.Mode, c.PayloadLen,
		c.Timestamp.Format("15:04:05.000"), c.Transport, c.RemoteAddr)
	hexDump(payload)
}

func hexDump(payload []byte) {
	for i := 0; i < len(payload); i += 16 {
		fmt.Printf("%04x  ", i)

		for j := 0; j < 16; j++ {
			if i+j < len(payload) {
				fmt.Printf("%02x ", payload[i+j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}

		fmt.Print(" |")
		for j := 0; j < 16 && i+j < len(payload); j++ {
			b := payload[i+j]
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
