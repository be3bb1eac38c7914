package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/the-lightning-land/wifid/wifi"
)

const (
	appName          = "wifictl"
	statusInterval   = 2 * time.Second
	statusMsgTimeout = 3 * time.Second
	requestTimeout   = 30 * time.Second
	minListHeight    = 5
)

var (
	appStyle = lipgloss.NewStyle().Margin(1, 1)

	colorPrimary = lipgloss.Color("5")
	colorAccent  = lipgloss.Color("6")
	colorSuccess = lipgloss.Color("2")
	colorError   = lipgloss.Color("1")
	colorFaint   = lipgloss.Color("8")

	titleStyle            = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	statusBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(colorAccent).Padding(0, 1)
	listItemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	listSelectedItemStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(colorPrimary).Bold(true)
	eventStyle            = lipgloss.NewStyle().Foreground(colorFaint)
	errorStyle            = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	successStyle          = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	helpStyle             = lipgloss.NewStyle().Foreground(colorFaint)
)

type viewState int

const (
	viewNetworks viewState = iota
	viewPassphrase
)

// network is one scan result in the list.
type network struct {
	wifi.ScanResult
}

func (n network) FilterValue() string {
	return n.SSID
}

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	n, ok := listItem.(network)
	if !ok {
		return
	}

	line := n.String()
	if index == m.Index() {
		fmt.Fprint(w, listSelectedItemStyle.Render("> "+line))
		return
	}

	fmt.Fprint(w, listItemStyle.Render("  "+line))
}

type statusMsg struct {
	status *status
	err    error
}

type scanMsg struct {
	report *scanReport
	err    error
}

type actionMsg struct {
	what string
	err  error
}

type eventMsg struct {
	event wifi.Event
	ok    bool
}

type statusTickMsg struct{}

type clearStatusMsg struct{}

type keyMap struct {
	Connect     key.Binding
	Scan        key.Binding
	Station     key.Binding
	AccessPoint key.Binding
	Reconfigure key.Binding
	Reset       key.Binding
	Back        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Connect:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "provision")),
	Scan:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "scan")),
	Station:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "toggle station")),
	AccessPoint: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle ap")),
	Reconfigure: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "reconfigure")),
	Reset:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type model struct {
	client *client
	events <-chan wifi.Event

	state      viewState
	networks   list.Model
	passphrase textinput.Model
	spinner    spinner.Model
	busy       bool
	selected   string

	status    *status
	lastEvent string
	message   string
	failed    bool
}

func newModel(c *client, events <-chan wifi.Event) model {
	networks := list.New([]list.Item{}, itemDelegate{}, 0, minListHeight)
	networks.Title = "Networks"
	networks.SetShowHelp(false)
	networks.SetShowStatusBar(false)
	networks.SetFilteringEnabled(false)

	passphrase := textinput.New()
	passphrase.Placeholder = "passphrase"
	passphrase.EchoMode = textinput.EchoPassword
	passphrase.CharLimit = wifi.MaxPassphraseLength

	s := spinner.New()
	s.Spinner = spinner.Dot

	return model{
		client:     c,
		events:     events,
		networks:   networks,
		passphrase: passphrase,
		spinner:    s,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{fetchStatusCmd(m.client), scanCmd(m.client), m.spinner.Tick}

	if m.events != nil {
		cmds = append(cmds, waitForEventCmd(m.events))
	}

	return tea.Batch(cmds...)
}

func fetchStatusCmd(c *client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		s, err := c.status(ctx)
		return statusMsg{status: s, err: err}
	}
}

func scanCmd(c *client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		report, err := c.scan(ctx)
		return scanMsg{report: report, err: err}
	}
}

func actionCmd(what string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return actionMsg{what: what, err: fn(ctx)}
	}
}

func waitForEventCmd(events <-chan wifi.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return eventMsg{event: event, ok: ok}
	}
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

func clearStatusAfterDelay() tea.Cmd {
	return tea.Tick(statusMsgTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m *model) setMessage(message string, failed bool) {
	m.message = message
	m.failed = failed
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - 14
		if height < minListHeight {
			height = minListHeight
		}
		m.networks.SetSize(msg.Width-appStyle.GetHorizontalFrameSize(), height)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case statusMsg:
		if msg.err != nil {
			m.setMessage(msg.err.Error(), true)
		} else {
			m.status = msg.status
		}
		cmds = append(cmds, statusTickCmd())

	case statusTickMsg:
		cmds = append(cmds, fetchStatusCmd(m.client))

	case scanMsg:
		m.busy = false
		if msg.err != nil {
			m.setMessage("scan failed: "+msg.err.Error(), true)
			cmds = append(cmds, clearStatusAfterDelay())
			break
		}

		items := make([]list.Item, 0, len(msg.report.Networks))
		for _, result := range wifi.Rank(msg.report.Networks) {
			items = append(items, network{result})
		}
		cmds = append(cmds, m.networks.SetItems(items))

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.setMessage(msg.what+" failed: "+msg.err.Error(), true)
		} else {
			m.setMessage(msg.what+" requested", false)
		}
		cmds = append(cmds, fetchStatusCmd(m.client), clearStatusAfterDelay())

	case eventMsg:
		if !msg.ok {
			m.lastEvent = "event stream closed"
			break
		}
		m.lastEvent = msg.event.String()
		cmds = append(cmds, waitForEventCmd(m.events))

	case clearStatusMsg:
		m.message = ""

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyPress(msg)...)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) handleKeyPress(msg tea.KeyMsg) []tea.Cmd {
	if key.Matches(msg, keys.Quit) && (m.state != viewPassphrase || msg.String() == "ctrl+c") {
		return []tea.Cmd{tea.Quit}
	}

	if m.state == viewPassphrase {
		return m.handlePassphraseKeys(msg)
	}

	switch {
	case key.Matches(msg, keys.Scan):
		m.busy = true
		return []tea.Cmd{scanCmd(m.client), m.spinner.Tick}
	case key.Matches(msg, keys.Station):
		return m.action("toggle station", m.client.toggleStation)
	case key.Matches(msg, keys.AccessPoint):
		return m.action("toggle access point", m.client.toggleAccessPoint)
	case key.Matches(msg, keys.Reconfigure):
		return m.action("reconfigure", m.client.reconfigure)
	case key.Matches(msg, keys.Reset):
		return m.action("reset", m.client.reset)
	case key.Matches(msg, keys.Connect):
		n, ok := m.networks.SelectedItem().(network)
		if !ok {
			return nil
		}

		m.selected = n.SSID

		if n.Open() {
			return m.action("provision "+n.SSID, func(ctx context.Context) error {
				return m.client.provision(ctx, n.SSID, "")
			})
		}

		m.state = viewPassphrase
		m.passphrase.Reset()
		return []tea.Cmd{m.passphrase.Focus(), textinput.Blink}
	}

	var cmd tea.Cmd
	m.networks, cmd = m.networks.Update(msg)

	return []tea.Cmd{cmd}
}

func (m *model) handlePassphraseKeys(msg tea.KeyMsg) []tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		m.state = viewNetworks
		m.passphrase.Blur()
		return nil

	case key.Matches(msg, keys.Connect):
		ssid := m.selected
		passphrase := m.passphrase.Value()

		m.state = viewNetworks
		m.passphrase.Blur()

		return m.action("provision "+ssid, func(ctx context.Context) error {
			return m.client.provision(ctx, ssid, passphrase)
		})
	}

	var cmd tea.Cmd
	m.passphrase, cmd = m.passphrase.Update(msg)

	return []tea.Cmd{cmd}
}

func (m *model) action(what string, fn func(ctx context.Context) error) []tea.Cmd {
	m.busy = true
	return []tea.Cmd{actionCmd(what, fn), m.spinner.Tick}
}

func (m model) View() string {
	header := titleStyle.Render(appName)
	if m.busy {
		header += " " + m.spinner.View()
	}

	statusLines := []string{"connecting to wifid..."}
	if m.status != nil {
		statusLines = m.status.Lines
	}

	sections := []string{
		header,
		statusBoxStyle.Render(strings.Join(statusLines, "\n")),
	}

	switch m.state {
	case viewPassphrase:
		sections = append(sections, fmt.Sprintf("Passphrase for %s\n%s", m.selected, m.passphrase.View()))
	default:
		sections = append(sections, m.networks.View())
	}

	if m.lastEvent != "" {
		sections = append(sections, eventStyle.Render("last event: "+m.lastEvent))
	}

	if m.message != "" {
		style := successStyle
		if m.failed {
			style = errorStyle
		}
		sections = append(sections, style.Render(m.message))
	}

	sections = append(sections, helpStyle.Render(m.helpLine()))

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m model) helpLine() string {
	bindings := []key.Binding{keys.Connect, keys.Scan, keys.Station, keys.AccessPoint, keys.Reconfigure, keys.Reset, keys.Quit}
	if m.state == viewPassphrase {
		bindings = []key.Binding{keys.Connect, keys.Back}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}

	return strings.Join(parts, " • ")
}
