package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/trace"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// chainRow is one request in the flattened forest view.
type chainRow struct {
	Request *trace.RequestRecord
	Depth   int
}

// flattenForest converts a forest into depth-first rows for display.
func flattenForest(f critical.Forest) []chainRow {
	var rows []chainRow
	f.Walk(func(n *critical.ChainNode, depth int) {
		rows = append(rows, chainRow{Request: n.Request, Depth: depth})
	})
	return rows
}

// ChainListModel is the bubbletea model for browsing assembled chains.
// It shows the forest as an indented request list; the detail pane below
// the table shows the full record for the cursor row.
type ChainListModel struct {
	Rows   []chainRow
	Cursor int
	Height int
	Offset int
}

// NewChainListModel creates a chain browser over the given forest.
func NewChainListModel(f critical.Forest) ChainListModel {
	return ChainListModel{
		Rows:   flattenForest(f),
		Height: 15,
	}
}

func (m ChainListModel) Init() tea.Cmd {
	return nil
}

func (m ChainListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g", "home":
			m.Cursor = 0
			m.Offset = 0
		case "G", "end":
			m.Cursor = len(m.Rows) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ChainListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Critical Request Chains"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		indent := strings.Repeat("  ", r.Depth)
		name := indent + shortRowURL(r.Request.URL)

		duration := "—"
		if d := r.Request.Duration(); d > 0 {
			duration = fmt.Sprintf("%.0fms", d)
		}

		rows = append(rows, []string{
			cursor,
			name,
			string(r.Request.ResourceType),
			string(r.Request.Priority),
			duration,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Request", "Type", "Priority", "Duration").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if m.Cursor < len(m.Rows) {
		b.WriteString(renderRowDetail(m.Rows[m.Cursor]))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// renderRowDetail shows the full record for the selected row.
func renderRowDetail(r chainRow) string {
	var b strings.Builder
	b.WriteString("  " + StyleLink.Render(r.Request.URL) + "\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  id %s · frame %s · depth %d",
		r.Request.ID, r.Request.FrameID, r.Depth)))
	if r.Request.Initiator != nil {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  initiated by %s (%s)",
			r.Request.Initiator.URL, r.Request.Initiator.Kind)))
	}
	if r.Request.IsRedirect() {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  redirects to %s", r.Request.RedirectDestination)))
	}
	return b.String()
}

// shortRowURL trims a URL to fit the table column.
func shortRowURL(url string) string {
	const maxLen = 60
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-1] + "…"
}
