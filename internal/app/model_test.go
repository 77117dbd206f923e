package app

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateberkopec/notibar/internal/alert"
	"github.com/nateberkopec/notibar/internal/inbox"
	"github.com/nateberkopec/notibar/internal/panel"
	"github.com/nateberkopec/notibar/internal/render"
)

type stubInbox struct {
	result inbox.PollResult
	err    error
}

func (s stubInbox) Check(context.Context) (inbox.PollResult, error) {
	return s.result, s.err
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (r *recordingAlerter) Fire(_ context.Context, a alert.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recordingAlerter) fired() []alert.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]alert.Alert(nil), r.alerts...)
}

type grantingRequester struct {
	granted bool
}

func (g grantingRequester) Request(context.Context) bool {
	return g.granted
}

func newTestModel(t *testing.T, cfg Config) (*Model, *recordingAlerter, *bytes.Buffer) {
	t.Helper()
	al := &recordingAlerter{}
	bell := &bytes.Buffer{}
	if cfg.Client == nil {
		cfg.Client = stubInbox{result: sampleResult()}
	}
	cfg.Links = testBuilder(t)
	cfg.Alerter = al
	cfg.BellOutput = bell
	cfg.Clock = fixedClock
	m := New(cfg)
	m.pulseInterval = time.Millisecond
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(*Model), al, bell
}

// batchCmds unwraps a tea.Batch without running its commands, so callers
// can skip the timers and never sleep.
func batchCmds(t *testing.T, cmd tea.Cmd) []tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok, "expected tea.BatchMsg, got %T", msg)
	return batch
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func leftClick(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestInitRequestsPermissionAndPollsImmediately(t *testing.T) {
	m := New(Config{
		Client:     stubInbox{result: sampleResult()},
		Links:      testBuilder(t),
		Permission: grantingRequester{granted: true},
	})

	cmds := batchCmds(t, m.Init())
	require.Len(t, cmds, 4)
	assert.Equal(t, 1, m.inFlight)

	assert.Equal(t, permissionMsg{Granted: true}, cmds[0]())

	msg := cmds[1]()
	result, ok := msg.(pollResultMsg)
	require.True(t, ok, "expected pollResultMsg, got %T", msg)
	assert.Equal(t, 3, result.Result.Unread)
}

func TestRefreshTickReschedulesAndPollsUnconditionally(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})

	_, cmd := m.Update(refreshTickMsg{})
	cmds := batchCmds(t, cmd)
	require.Len(t, cmds, 2)
	assert.Equal(t, 1, m.inFlight)

	// A second tick while the first request is outstanding still polls.
	_, cmd = m.Update(refreshTickMsg{})
	require.Len(t, batchCmds(t, cmd), 2)
	assert.Equal(t, 2, m.inFlight)

	_, ok := cmds[1]().(pollResultMsg)
	assert.True(t, ok)
}

func TestPollFailureReturnsErrorMessage(t *testing.T) {
	m, _, _ := newTestModel(t, Config{Client: stubInbox{err: errors.New("connection refused")}})

	msg := m.pollCmd()()
	failed, ok := msg.(pollErrMsg)
	require.True(t, ok, "expected pollErrMsg, got %T", msg)
	assert.EqualError(t, failed.Err, "connection refused")
}

func TestFirstPollAlertsOnceAndSecondEqualPollDoesNot(t *testing.T) {
	m, al, bell := newTestModel(t, Config{BellEnabled: true})

	_, cmd := m.Update(pollResultMsg{Result: sampleResult()})
	cmds := batchCmds(t, cmd)
	require.Len(t, cmds, 3)
	cmds[0]()
	cmds[1]()

	fired := al.fired()
	require.Len(t, fired, 1)
	assert.Equal(t, 3, fired[0].Unread)
	assert.Equal(t, "Request approved", fired[0].Title)
	assert.False(t, fired[0].Desktop)
	assert.Equal(t, "\a", bell.String())

	badge := m.tracker.Badge()
	assert.Equal(t, "3", badge.Label())
	assert.True(t, badge.Attention)
	assert.True(t, m.pulseOn)

	rows := m.tracker.Rows()
	require.Len(t, rows, 2)
	_, hasView := rows[0].Action(render.ActionView)
	_, hasMark := rows[0].Action(render.ActionMarkRead)
	assert.True(t, hasView)
	assert.True(t, hasMark)

	_, cmd = m.Update(pollResultMsg{Result: sampleResult()})
	assert.Nil(t, cmd)
	assert.Len(t, al.fired(), 1)
	assert.Equal(t, "3", m.tracker.Badge().Label())
}

func TestAlertWithoutBellSkipsBellCommand(t *testing.T) {
	m, al, bell := newTestModel(t, Config{BellEnabled: false})

	_, cmd := m.Update(pollResultMsg{Result: sampleResult()})
	cmds := batchCmds(t, cmd)
	require.Len(t, cmds, 2)
	cmds[0]()

	assert.Len(t, al.fired(), 1)
	assert.Empty(t, bell.String())
}

func TestDecreaseDoesNotAlert(t *testing.T) {
	m, al, _ := newTestModel(t, Config{})

	first := sampleResult()
	first.Unread = 5
	_, cmd := m.Update(pollResultMsg{Result: first})
	batchCmds(t, cmd)[0]()

	second := sampleResult()
	second.Unread = 2
	_, cmd = m.Update(pollResultMsg{Result: second})

	assert.Nil(t, cmd)
	assert.Len(t, al.fired(), 1)
	assert.Equal(t, "2", m.tracker.Badge().Label())
	assert.Equal(t, 2, m.tracker.LastUnread())
}

func TestZeroUnreadClearsBadgeAndStopsPulse(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})

	m.Update(pollResultMsg{Result: sampleResult()})
	require.True(t, m.tracker.Badge().Attention)

	_, cmd := m.Update(pollResultMsg{Result: inbox.PollResult{Notifications: []inbox.Notification{}}})
	assert.Nil(t, cmd)
	assert.False(t, m.tracker.Badge().Present())
	assert.False(t, m.tracker.Badge().Attention)

	_, cmd = m.Update(pulseTickMsg{})
	assert.Nil(t, cmd)
	assert.False(t, m.pulsing)
	assert.False(t, m.pulseOn)
}

func TestPulseTogglesWhileAttentionIsSet(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: sampleResult()})
	require.True(t, m.pulseOn)

	_, cmd := m.Update(pulseTickMsg{})
	assert.NotNil(t, cmd)
	assert.False(t, m.pulseOn)

	_, cmd = m.Update(pulseTickMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, m.pulseOn)
}

func TestPollErrorKeepsPreviousState(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: sampleResult()})
	before := m.tracker.Rows()

	_, cmd := m.Update(pollErrMsg{Err: errors.New("boom")})

	assert.Nil(t, cmd)
	assert.Equal(t, before, m.tracker.Rows())
	assert.Equal(t, "3", m.tracker.Badge().Label())
	assert.Equal(t, 3, m.tracker.LastUnread())
	assert.Empty(t, m.status.text)
}

func TestGrantedPermissionEnablesDesktopAlert(t *testing.T) {
	m, al, _ := newTestModel(t, Config{})
	m.Update(permissionMsg{Granted: true})

	_, cmd := m.Update(pollResultMsg{Result: sampleResult()})
	batchCmds(t, cmd)[0]()

	fired := al.fired()
	require.Len(t, fired, 1)
	assert.True(t, fired[0].Desktop)
}

func TestMouseClicksDriveThePanel(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: sampleResult()})

	trigger := triggerArea(m)
	m.Update(leftClick(trigger.left+1, 0))
	require.True(t, m.panel.Visible(), "trigger click opens")

	box := panelArea(m)
	m.Update(leftClick(box.left+2, box.top+1+itemLines))
	assert.True(t, m.panel.Visible(), "inside click keeps it open")
	assert.Equal(t, 1, m.selectedIndex)

	m.Update(leftClick(0, 0))
	assert.True(t, m.panel.Visible(), "header row is inside the root")

	m.Update(leftClick(0, m.height-1))
	assert.False(t, m.panel.Visible(), "outside click closes")

	m.Update(leftClick(trigger.left, 0))
	require.True(t, m.panel.Visible())
	m.Update(leftClick(trigger.left, 0))
	assert.False(t, m.panel.Visible(), "trigger click toggles closed")
}

func TestHitTestTargets(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: sampleResult()})

	assert.Equal(t, panel.TargetTrigger, m.hitTest(m.width-1, 0))
	assert.Equal(t, panel.TargetRoot, m.hitTest(0, 0))
	assert.Equal(t, panel.TargetOutside, m.hitTest(m.width-1, 3), "closed panel is not a target")

	m.panel.Toggle()
	assert.Equal(t, panel.TargetPanel, m.hitTest(m.width-1, 3))
	assert.Equal(t, panel.TargetOutside, m.hitTest(0, 3))
}

func TestKeysToggleAndNavigate(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: sampleResult()})

	m.Update(keyPress("j"))
	assert.Equal(t, 0, m.selectedIndex, "navigation ignored while closed")

	m.Update(keyPress("n"))
	require.True(t, m.panel.Visible())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.panel.Visible(), "escape does not close")

	m.Update(keyPress("j"))
	assert.Equal(t, 1, m.selectedIndex)
	m.Update(keyPress("j"))
	assert.Equal(t, 1, m.selectedIndex)

	_, cmd := m.Update(keyPress("r"))
	assert.Nil(t, cmd, "read rows have no mark-read action")

	m.Update(keyPress("k"))
	assert.Equal(t, 0, m.selectedIndex)

	m.Update(keyPress("n"))
	assert.False(t, m.panel.Visible())
}

func TestOpenSelectedUsesRowLinks(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: sampleResult()})
	m.panel.Toggle()

	cmd := m.openSelected(render.ActionMarkRead)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Opening https://intranet.example.com/notifications/41/read", m.status.text)

	cmd = m.openSelected(render.ActionView)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Opening https://intranet.example.com/requests/7", m.status.text)
}

func TestPlaceholderRowHasNoActions(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	m.Update(pollResultMsg{Result: inbox.PollResult{Notifications: []inbox.Notification{}}})
	m.panel.Toggle()

	assert.Nil(t, m.openSelected(render.ActionView))
	assert.Equal(t, 1, m.tracker.LenRows())
}

func TestBellKeyTogglesBell(t *testing.T) {
	m, _, _ := newTestModel(t, Config{BellEnabled: true})

	m.Update(keyPress("b"))
	assert.False(t, m.bellEnabled)
	assert.Equal(t, "Bell muted", m.status.text)

	m.Update(keyPress("b"))
	assert.True(t, m.bellEnabled)
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t, Config{})
	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
