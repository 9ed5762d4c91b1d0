package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxRows is the number of packet rows retained in the monitor scrollback
const maxRows = 500

// previewLen is the number of payload bytes shown in the preview column
const previewLen = 24

// PacketMsg is sent to the monitor program for every decoded packet
type PacketMsg struct {
	Time       time.Time
	RemoteAddr string
	Mode       byte
	PayloadLen int
	Preview    string // Hex preview of the payload head
}

// ConnEventMsg is sent when a producer connects or disconnects
type ConnEventMsg struct {
	RemoteAddr string
	Event      string // "connected" or "disconnected"
}

// StatsMsg refreshes the resync counter shown in the header
type StatsMsg struct {
	Resyncs uint64
}

// Monitor is the Bubble Tea model for the live packet monitor
type Monitor struct {
	listenAddr string
	profile    string // Human-readable framing profile (e.g., "start=0xaa end=0xbb")

	rows    []PacketMsg
	total   uint64
	conns   int
	resyncs uint64

	viewport viewport.Model
	spin     spinner.Model
	ready    bool
	width    int
	height   int
}

// NewMonitor creates a monitor model for the given listen address and
// framing profile description
func NewMonitor(listenAddr, profile string) Monitor {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return Monitor{
		listenAddr: listenAddr,
		profile:    profile,
		spin:       sp,
	}
}

// Init implements tea.Model
func (m Monitor) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model
func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 5 // Bordered header plus stats line
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderRows())

	case PacketMsg:
		m.total++
		m.rows = append(m.rows, msg)
		if len(m.rows) > maxRows {
			m.rows = m.rows[len(m.rows)-maxRows:]
		}
		if m.ready {
			atBottom := m.viewport.AtBottom()
			m.viewport.SetContent(m.renderRows())
			if atBottom {
				m.viewport.GotoBottom()
			}
		}

	case ConnEventMsg:
		switch msg.Event {
		case "connected":
			m.conns++
		case "disconnected":
			if m.conns > 0 {
				m.conns--
			}
		}

	case StatsMsg:
		m.resyncs = msg.Resyncs

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Monitor) View() string {
	if !m.ready {
		return WaitingStyle.Render("starting monitor...")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ scroll · q quit"))
	return b.String()
}

// renderHeader renders the bordered title area with listen address,
// framing profile, and counters
func (m Monitor) renderHeader() string {
	width := m.width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	title := TitleStyle.Render("FRAMELINK PACKET MONITOR")
	subtitle := SubtitleStyle.Render(fmt.Sprintf("listening on %s · %s", m.listenAddr, m.profile))

	stats := StatsStyle.Render(fmt.Sprintf("packets: %d", m.total)) +
		SubtitleStyle.Render(fmt.Sprintf(" · producers: %d", m.conns))
	if m.resyncs > 0 {
		stats += lipgloss.NewStyle().Foreground(WarningColor).
			Render(fmt.Sprintf(" · resyncs: %d", m.resyncs))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, subtitle, stats)
	return HeaderBorderStyle(width).Render(content)
}

// renderRows renders the packet rows, newest last
func (m Monitor) renderRows() string {
	if len(m.rows) == 0 {
		return WaitingStyle.Render(m.spin.View() + " waiting for packets...")
	}

	var lines []string
	for _, row := range m.rows {
		lines = append(lines, m.renderRow(row))
	}
	return strings.Join(lines, "\n")
}

// renderRow formats one packet row
func (m Monitor) renderRow(row PacketMsg) string {
	ts := TimestampStyle.Render(row.Time.Format("15:04:05.000"))
	mode := ModeStyle.Render(fmt.Sprintf("mode=0x%02x", row.Mode))
	size := PayloadStyle.Render(fmt.Sprintf("%4dB", row.PayloadLen))
	addr := AddrStyle.Render(row.RemoteAddr)

	preview := row.Preview
	if preview == "" {
		preview = "(empty)"
	}

	return fmt.Sprintf(" %s  %s  %s  %s  %s", ts, mode, size, addr, PayloadStyle.Render(preview))
}

// PreviewHex builds the truncated hex preview shown in the payload column
func PreviewHex(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	n := len(payload)
	truncated := false
	if n > previewLen {
		n = previewLen
		truncated = true
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", payload[i])
	}
	if truncated {
		b.WriteString(" …")
	}
	return b.String()
}
