package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bromq-dev/udpmq/pkg/client"
	"github.com/bromq-dev/udpmq/pkg/console"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

var (
	sentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	recvStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())

	modeStyles = map[console.Mode]lipgloss.Style{
		console.ModeAuto:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		console.ModeProtocol: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		console.ModeText:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		console.ModeHex:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
	}
)

// incomingMsg carries a raw inbound datagram into the update loop.
type incomingMsg []byte

type logEntry struct {
	text  string
	style lipgloss.Style
}

type model struct {
	client *client.Client
	target string

	input   string
	mode    console.Mode
	entries []logEntry
	scroll  int

	width  int
	height int
}

func newModel(c *client.Client, target string) model {
	return model{
		client: c,
		target: target,
		mode:   console.ModeAuto,
		entries: []logEntry{
			{text: "Ready. Tab=mode, Enter=send, Esc=quit", style: dimStyle},
		},
	}
}

func runTUI(target, bind string) error {
	var program *tea.Program

	c, err := client.Dial(client.Config{
		Target: target,
		Bind:   bind,
		RawHandler: func(data []byte) {
			if program != nil {
				program.Send(incomingMsg(data))
			}
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return err
	}
	defer c.Close()

	program = tea.NewProgram(newModel(c, target), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case incomingMsg:
		m = m.log(fmt.Sprintf("< %d bytes: %s", len(msg), console.Format(msg)), recvStyle)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.mode = m.mode.Next()
		case "enter":
			m = m.send()
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case "up":
			m = m.scrollBy(-1)
		case "down":
			m = m.scrollBy(1)
		case "pgup":
			m = m.scrollBy(-m.logHeight())
		case "pgdown":
			m = m.scrollBy(m.logHeight())
		default:
			switch msg.Type {
			case tea.KeyRunes:
				m.input += string(msg.Runes)
			case tea.KeySpace:
				m.input += " "
			}
		}
	}
	return m, nil
}

// send interprets the input line according to the current mode
// and transmits it. Auto falls through protocol, hex, then text.
func (m model) send() model {
	input := m.input
	m.input = ""
	if input == "" {
		return m
	}

	switch m.mode {
	case console.ModeProtocol:
		return m.sendPacket(input)
	case console.ModeText:
		return m.sendRaw(console.ParseTextWithEscapes(input))
	case console.ModeHex:
		data, err := console.ParseHex(input)
		if err != nil {
			return m.log(fmt.Sprintf("x invalid hex: %v", err), errStyle)
		}
		return m.sendRaw(data)
	default:
		if _, err := console.ParseCommand(input); err == nil {
			return m.sendPacket(input)
		}
		if data, err := console.ParseHex(input); err == nil && len(data) > 0 {
			return m.sendRaw(data)
		}
		return m.sendRaw(console.ParseTextWithEscapes(input))
	}
}

func (m model) sendPacket(input string) model {
	pkt, err := console.ParseCommand(input)
	if err != nil {
		return m.log(fmt.Sprintf("x %v", err), errStyle)
	}
	msgID := m.client.NextMsgID()
	data, err := packet.NewFrame(msgID, pkt).Encode()
	if err != nil {
		return m.log(fmt.Sprintf("x %v", err), errStyle)
	}
	if err := m.client.SendRaw(data); err != nil {
		return m.log(fmt.Sprintf("x send failed: %v", err), errStyle)
	}
	return m.log(fmt.Sprintf("> [%s] %d bytes: %s", m.modeLabel(), len(data), console.Format(data)), sentStyle)
}

func (m model) sendRaw(data []byte) model {
	if err := m.client.SendRaw(data); err != nil {
		return m.log(fmt.Sprintf("x send failed: %v", err), errStyle)
	}
	return m.log(fmt.Sprintf("> [%s] %d bytes: %s", m.modeLabel(), len(data), console.Format(data)), sentStyle)
}

func (m model) modeLabel() string {
	switch m.mode {
	case console.ModeProtocol:
		return "MQTT"
	case console.ModeText:
		return "TXT"
	case console.ModeHex:
		return "HEX"
	default:
		return "AUTO"
	}
}

func (m model) log(text string, style lipgloss.Style) model {
	m.entries = append(m.entries, logEntry{text: text, style: style})
	// Follow the tail.
	if over := len(m.entries) - m.logHeight(); over > 0 {
		m.scroll = over
	}
	return m
}

func (m model) logHeight() int {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m model) scrollBy(delta int) model {
	max := len(m.entries) - m.logHeight()
	if max < 0 {
		max = 0
	}
	m.scroll += delta
	if m.scroll < 0 {
		m.scroll = 0
	}
	if m.scroll > max {
		m.scroll = max
	}
	return m
}

func (m model) View() string {
	if m.width == 0 {
		return "starting..."
	}

	height := m.logHeight()
	start := m.scroll
	if start > len(m.entries) {
		start = len(m.entries)
	}
	end := start + height
	if end > len(m.entries) {
		end = len(m.entries)
	}

	lines := ""
	for _, e := range m.entries[start:end] {
		lines += e.style.Render(e.text) + "\n"
	}
	for i := end - start; i < height; i++ {
		lines += "\n"
	}

	status := fmt.Sprintf(" Target: %s | Mode: %s (tab to cycle)",
		targetStyle.Render(m.target),
		modeStyles[m.mode].Render("["+m.modeLabel()+"]"))

	prompt := borderStyle.Width(m.width - 2).Render("> " + m.input)

	return lines + status + "\n" + prompt
}
