package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nateberkopec/notibar/internal/panel"
	"github.com/nateberkopec/notibar/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	triggerStyle       = lipgloss.NewStyle().Padding(0, 1)
	triggerUnreadStyle = triggerStyle.Bold(true).Foreground(lipgloss.Color("230"))
	triggerPulseStyle  = triggerUnreadStyle.Background(lipgloss.Color("203"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("105")).
			Padding(0, 1)

	unreadTitleStyle = lipgloss.NewStyle().Bold(true)
	readTitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	actionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))

	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("57")).
				Foreground(lipgloss.Color("230"))

	statusNeutralStyle = lipgloss.NewStyle()
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Screen geometry shared by rendering and mouse hit testing.
const (
	headerLines   = 1
	footerLines   = 2
	itemLines     = 4
	panelMaxWidth = 56
	panelChrome   = 2 // top and bottom border
	panelPadding  = 4 // border and padding on both sides
	messageLines  = 2
	unreadMarker  = "●"
)

type area struct {
	left, top     int
	width, height int
}

func (a area) contains(x, y int) bool {
	return x >= a.left && x < a.left+a.width && y >= a.top && y < a.top+a.height
}

func renderView(m *Model) string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}

	out := []string{renderHeader(m)}
	out = append(out, renderBody(m)...)
	out = append(out, renderHelpText(m))
	out = append(out, renderStatusLine(m))

	return strings.Join(out, "\n")
}

func renderHeader(m *Model) string {
	trigger := renderTrigger(m)
	leftWidth := max(0, m.width-lipgloss.Width(trigger))

	checked := "checking…"
	if m.tracker.Loaded() {
		checked = "checked " + humanize.RelTime(m.tracker.CheckedAt(), m.clock(), "ago", "from now")
	}
	left := titleStyle.Render("notibar") + subtleStyle.Render(" • "+checked)
	left = truncate(left, leftWidth)

	return pad(left, leftWidth) + trigger
}

func triggerLabel(m *Model) string {
	badge := m.tracker.Badge()
	if !badge.Present() {
		return "🔔"
	}
	return "🔔 " + badge.Label()
}

func renderTrigger(m *Model) string {
	badge := m.tracker.Badge()
	style := triggerStyle
	switch {
	case badge.Attention && m.pulseOn:
		style = triggerPulseStyle
	case badge.Present():
		style = triggerUnreadStyle
	}
	return style.Render(triggerLabel(m))
}

func triggerArea(m *Model) area {
	width := lipgloss.Width(triggerLabel(m)) + 2
	return area{left: m.width - width, top: 0, width: width, height: headerLines}
}

func bodyHeight(m *Model) int {
	return max(0, m.height-headerLines-footerLines)
}

// visibleItems is how many notifications fit in the dropdown at once.
func (m *Model) visibleItems() int {
	if m.height <= 0 {
		return 0
	}
	return max(1, (bodyHeight(m)-panelChrome)/itemLines)
}

func (m *Model) shownItems() int {
	return max(1, min(m.visibleItems(), m.tracker.LenRows()))
}

func panelArea(m *Model) area {
	width := min(m.width, panelMaxWidth)
	return area{
		left:   m.width - width,
		top:    headerLines,
		width:  width,
		height: m.shownItems()*itemLines + panelChrome,
	}
}

// hitTest maps a terminal cell to a click target. The root is the header
// row plus the dropdown.
func (m *Model) hitTest(x, y int) panel.Target {
	switch {
	case triggerArea(m).contains(x, y):
		return panel.TargetTrigger
	case m.panel.Visible() && panelArea(m).contains(x, y):
		return panel.TargetPanel
	case y >= 0 && y < headerLines:
		return panel.TargetRoot
	default:
		return panel.TargetOutside
	}
}

// itemAt returns the row index drawn at screen line y.
func (m *Model) itemAt(y int) (int, bool) {
	inner := y - headerLines - 1
	if inner < 0 || inner >= m.shownItems()*itemLines {
		return 0, false
	}
	index := m.scrollOffset + inner/itemLines
	if index >= m.tracker.LenRows() {
		return 0, false
	}
	return index, true
}

func renderBody(m *Model) []string {
	height := bodyHeight(m)
	lines := make([]string, 0, height)

	if m.panel.Visible() {
		box := renderPanel(m)
		placed := lipgloss.PlaceHorizontal(m.width, lipgloss.Right, box)
		lines = append(lines, strings.Split(placed, "\n")...)
	}

	blank := strings.Repeat(" ", max(0, m.width))
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return lines
}

func renderPanel(m *Model) string {
	outer := panelArea(m)
	inner := max(1, outer.width-panelPadding)

	var lines []string
	rows := m.tracker.Rows()
	if rows == nil {
		lines = append(lines, pad(subtleStyle.Render("Checking…"), inner))
		for len(lines) < itemLines {
			lines = append(lines, pad("", inner))
		}
	} else {
		start := m.scrollOffset
		end := min(start+m.shownItems(), len(rows))
		for idx := start; idx < end; idx++ {
			item := renderItem(rows[idx], inner)
			if idx == m.selectedIndex && !rows[idx].Placeholder {
				for i, line := range item {
					item[i] = selectedRowStyle.Width(inner).Render(line)
				}
			}
			lines = append(lines, item...)
		}
	}

	return panelStyle.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// renderItem draws one row as exactly itemLines lines of the given width.
func renderItem(row render.Row, width int) []string {
	lines := make([]string, 0, itemLines)

	if row.Placeholder {
		lines = append(lines, pad(subtleStyle.Render(row.Message), width))
	} else {
		marker := " "
		style := readTitleStyle
		if row.Unread {
			marker = unreadMarker
			style = unreadTitleStyle
		}
		lines = append(lines, pad(truncate(marker+" "+style.Render(row.Title), width), width))

		for _, line := range render.ClampLines(row.Message, width-2, messageLines) {
			lines = append(lines, pad("  "+line, width))
		}
		for len(lines) < 1+messageLines {
			lines = append(lines, pad("", width))
		}

		meta := "  " + subtleStyle.Render(row.CreatedAt)
		for _, action := range row.Actions {
			meta += "  " + actionStyle.Render("["+actionKey(action.Kind)+"] "+action.Label)
		}
		lines = append(lines, pad(truncate(meta, width), width))
	}

	for len(lines) < itemLines {
		lines = append(lines, pad("", width))
	}
	return lines
}

func actionKey(kind render.ActionKind) string {
	if kind == render.ActionMarkRead {
		return "r"
	}
	return "v"
}

func renderHelpText(m *Model) string {
	help := "[n] notifications • [j/k] move • [v] view • [r] mark read • [b] bell: " + bellEmoji(m.bellEnabled) + " • [q] quit"
	return helpStyle.Width(m.width).Render(pad(truncate(help, m.width), m.width))
}

func renderStatusLine(m *Model) string {
	msg := m.status.text
	if msg == "" && m.inFlight > 0 {
		msg = "Checking for notifications" + m.spin.View()
	}

	style := statusNeutralStyle
	if m.status.kind == statusSuccess {
		style = statusSuccessStyle
	}

	return style.Width(m.width).Render(pad(truncate(msg, m.width), m.width))
}

func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	if width <= 1 {
		return lipgloss.NewStyle().MaxWidth(1).Render(text)
	}
	trimmed := lipgloss.NewStyle().MaxWidth(width - 1).Render(text)
	return trimmed + "…"
}

func pad(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func bellEmoji(enabled bool) string {
	if enabled {
		return "🔔"
	}
	return "❌"
}
