package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nateberkopec/notibar/internal/alert"
	"github.com/nateberkopec/notibar/internal/inbox"
	"github.com/nateberkopec/notibar/internal/links"
	"github.com/nateberkopec/notibar/internal/log"
	"github.com/nateberkopec/notibar/internal/panel"
	"github.com/nateberkopec/notibar/internal/render"
	"github.com/nateberkopec/notibar/internal/watch"
)

// inboxAPI captures the subset of client functionality the model needs. This
// makes it easy to stub in tests without reaching a server.
type inboxAPI interface {
	Check(ctx context.Context) (inbox.PollResult, error)
}

type alerter interface {
	Fire(ctx context.Context, a alert.Alert)
}

type permissionRequester interface {
	Request(ctx context.Context) bool
}

const (
	defaultPollInterval  = 15 * time.Second
	defaultPulseInterval = 500 * time.Millisecond
)

type statusKind int

const (
	statusNeutral statusKind = iota
	statusSuccess
)

type statusMessage struct {
	text    string
	kind    statusKind
	expires time.Time
}

// Config wires external dependencies for the app.
type Config struct {
	Client       inboxAPI
	Links        links.Builder
	Alerter      alerter
	Permission   permissionRequester
	Logger       log.Logger
	PollInterval time.Duration
	BellEnabled  bool

	// Clock and BellOutput default to time.Now and os.Stdout.
	Clock      func() time.Time
	BellOutput io.Writer
}

// Model implements the Bubble Tea program.
type Model struct {
	client     inboxAPI
	alerter    alerter
	permission permissionRequester
	logger     log.Logger
	tracker    *watch.Tracker
	panel      panel.Controller
	keys       keyMap

	pollInterval  time.Duration
	pulseInterval time.Duration
	bellEnabled   bool
	bellOut       io.Writer
	clock         func() time.Time

	selectedIndex int
	scrollOffset  int
	width         int
	height        int

	spin     spinner.Model
	inFlight int
	pulseOn  bool
	pulsing  bool

	status statusMessage
}

// New creates a Bubble Tea model for the notification widget.
func New(cfg Config) *Model {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	bellOut := cfg.BellOutput
	if bellOut == nil {
		bellOut = os.Stdout
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Ellipsis))

	return &Model{
		client:        cfg.Client,
		alerter:       cfg.Alerter,
		permission:    cfg.Permission,
		logger:        logger,
		tracker:       watch.NewTracker(cfg.Links),
		keys:          defaultKeyMap(),
		pollInterval:  pollInterval,
		pulseInterval: defaultPulseInterval,
		bellEnabled:   cfg.BellEnabled,
		bellOut:       bellOut,
		clock:         clock,
		spin:          sp,
	}
}

// Init asks for desktop permission once, polls immediately and starts the
// repeating poll timer.
func (m *Model) Init() tea.Cmd {
	spinCmd := func() tea.Msg { return m.spin.Tick() }
	return tea.Batch(m.permissionCmd(), m.pollCmd(), m.scheduleRefresh(), spinCmd)
}

// Update drives the Bubble Tea state machine.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.maybeExpireStatus()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureSelectionBounds()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case permissionMsg:
		m.tracker.SetPermission(msg.Granted)
	case refreshTickMsg:
		// Fires unconditionally; an earlier request may still be in flight.
		return m, tea.Batch(m.scheduleRefresh(), m.pollCmd())
	case pollResultMsg:
		m.inFlight = max(0, m.inFlight-1)
		return m, m.absorb(msg.Result)
	case pollErrMsg:
		m.inFlight = max(0, m.inFlight-1)
		m.logger.Warnf(context.Background(), "check notifications failed: %v", msg.Err)
	case pulseTickMsg:
		return m, m.pulse()
	case openErrMsg:
		m.logger.Warnf(context.Background(), "open link failed: %v", msg.Err)
	}

	return m, nil
}

// View renders the TUI.
func (m *Model) View() string {
	return renderView(m)
}

// absorb applies a successful poll. Rows and badge change together; an
// alert, if due, runs as a command so playback never blocks the UI.
func (m *Model) absorb(result inbox.PollResult) tea.Cmd {
	cycle := m.tracker.Apply(result, m.clock())
	m.ensureSelectionBounds()
	m.logger.Debugf(context.Background(), "poll applied unread=%d rows=%d", result.Unread, len(cycle.Rows))

	if !cycle.Badge.Attention {
		m.pulseOn = false
	}
	if cycle.Alert == nil {
		return nil
	}

	cmds := []tea.Cmd{m.fireAlertCmd(*cycle.Alert)}
	if m.bellEnabled {
		cmds = append(cmds, m.bellCmd())
	}
	m.pulseOn = true
	if !m.pulsing {
		m.pulsing = true
		cmds = append(cmds, m.schedulePulse())
	}
	return tea.Batch(cmds...)
}

// pulse animates the bell while the badge wants attention.
func (m *Model) pulse() tea.Cmd {
	if !m.tracker.Badge().Attention {
		m.pulsing = false
		m.pulseOn = false
		return nil
	}
	m.pulseOn = !m.pulseOn
	return m.schedulePulse()
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		target := m.hitTest(msg.X, msg.Y)
		m.panel.Click(target)
		if target == panel.TargetPanel {
			if index, ok := m.itemAt(msg.Y); ok {
				m.selectedIndex = index
				m.ensureSelectionBounds()
			}
		}
	case msg.Button == tea.MouseButtonWheelUp && m.panel.Visible():
		m.moveSelection(-1)
	case msg.Button == tea.MouseButtonWheelDown && m.panel.Visible():
		m.moveSelection(1)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.panel.Click(panel.TargetTrigger)
		return m, nil
	case key.Matches(msg, m.keys.Bell):
		m.bellEnabled = !m.bellEnabled
		if m.bellEnabled {
			m.setStatus("Bell enabled", statusSuccess)
		} else {
			m.setStatus("Bell muted", statusNeutral)
		}
		return m, nil
	}

	if !m.panel.Visible() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.View):
		return m, m.openSelected(render.ActionView)
	case key.Matches(msg, m.keys.MarkRead):
		return m, m.openSelected(render.ActionMarkRead)
	}
	return m, nil
}

func (m *Model) openSelected(kind render.ActionKind) tea.Cmd {
	row := m.selectedRow()
	if row == nil {
		return nil
	}
	action, ok := row.Action(kind)
	if !ok {
		return nil
	}
	m.setStatus(fmt.Sprintf("Opening %s", action.Href), statusNeutral)
	return openURLCmd(action.Href)
}

func (m *Model) selectedRow() *render.Row {
	rows := m.tracker.Rows()
	if len(rows) == 0 {
		return nil
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	if m.selectedIndex >= len(rows) {
		m.selectedIndex = len(rows) - 1
	}
	row := rows[m.selectedIndex]
	if row.Placeholder {
		return nil
	}
	return &row
}

func (m *Model) moveSelection(delta int) {
	total := m.tracker.LenRows()
	if total == 0 {
		m.selectedIndex = 0
		m.scrollOffset = 0
		return
	}
	m.selectedIndex += delta
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	if m.selectedIndex >= total {
		m.selectedIndex = total - 1
	}
	m.ensureSelectionBounds()
}

func (m *Model) ensureSelectionBounds() {
	total := m.tracker.LenRows()
	if m.selectedIndex >= total {
		m.selectedIndex = max(0, total-1)
	}
	visible := m.visibleItems()
	if visible <= 0 {
		return
	}
	if m.selectedIndex < m.scrollOffset {
		m.scrollOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.scrollOffset+visible {
		m.scrollOffset = m.selectedIndex - visible + 1
	}
	maxScroll := max(0, total-visible)
	if m.scrollOffset > maxScroll {
		m.scrollOffset = maxScroll
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m *Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (m *Model) schedulePulse() tea.Cmd {
	return tea.Tick(m.pulseInterval, func(time.Time) tea.Msg {
		return pulseTickMsg{}
	})
}

func (m *Model) pollCmd() tea.Cmd {
	if m.client == nil {
		return nil
	}
	m.inFlight++
	client := m.client
	return func() tea.Msg {
		result, err := client.Check(context.Background())
		if err != nil {
			return pollErrMsg{Err: err}
		}
		return pollResultMsg{Result: result}
	}
}

func (m *Model) setStatus(text string, kind statusKind) {
	if text == "" {
		m.status = statusMessage{}
		return
	}
	m.status = statusMessage{
		text:    text,
		kind:    kind,
		expires: m.clock().Add(10 * time.Second),
	}
}

func (m *Model) maybeExpireStatus() {
	if m.status.text == "" {
		return
	}
	if m.clock().After(m.status.expires) {
		m.status = statusMessage{}
	}
}

// permissionCmd asks for desktop permission. It runs once per program.
func (m *Model) permissionCmd() tea.Cmd {
	if m.permission == nil {
		return nil
	}
	requester := m.permission
	return func() tea.Msg {
		return permissionMsg{Granted: requester.Request(context.Background())}
	}
}

func (m *Model) fireAlertCmd(a alert.Alert) tea.Cmd {
	if m.alerter == nil {
		return nil
	}
	al := m.alerter
	return func() tea.Msg {
		al.Fire(context.Background(), a)
		return nil
	}
}

// bellCmd rings the terminal bell. tea.Printf is swallowed on the alt
// screen, so the byte goes straight to the output.
func (m *Model) bellCmd() tea.Cmd {
	out := m.bellOut
	logger := m.logger
	return func() tea.Msg {
		if _, err := io.WriteString(out, "\a"); err != nil {
			logger.Warnf(context.Background(), "ring bell failed: %v", err)
		}
		return nil
	}
}

type refreshTickMsg struct{}

type pulseTickMsg struct{}

type pollResultMsg struct {
	Result inbox.PollResult
}

type pollErrMsg struct {
	Err error
}

type permissionMsg struct {
	Granted bool
}

type openErrMsg struct {
	Err error
}

func openURLCmd(target string) tea.Cmd {
	return func() tea.Msg {
		name, args := openCommand(target)
		if name == "" {
			return openErrMsg{Err: fmt.Errorf("opening URLs is not supported on this platform")}
		}
		cmd := exec.Command(name, args...)
		if err := cmd.Start(); err != nil {
			return openErrMsg{Err: err}
		}
		return nil
	}
}

func openCommand(target string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{target}
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "", nil
	}
}
