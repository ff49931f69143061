package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/metacheck/pkg/finding"
	"github.com/matzehuels/metacheck/pkg/rules"
	"github.com/matzehuels/metacheck/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BundleListModel - Interactive findings browser
// =============================================================================

// BundleListModel is the bubbletea model for browsing written findings.
// Enter opens the checks of the selected repository; esc returns to the
// list.
type BundleListModel struct {
	Bundles []store.StoredBundle
	Cursor  int
	Height  int
	Offset  int

	// Open is true while the checks of the selected bundle are shown.
	Open bool
}

// NewBundleListModel creates a new bundle list model.
func NewBundleListModel(bundles []store.StoredBundle) BundleListModel {
	return BundleListModel{
		Bundles: bundles,
		Height:  15,
	}
}

func (m BundleListModel) Init() tea.Cmd {
	return nil
}

func (m BundleListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace":
			if !m.Open {
				return m, tea.Quit
			}
			m.Open = false
		case "up", "k":
			if !m.Open && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.Open && m.Cursor < len(m.Bundles)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Bundles) > 0 {
				m.Open = true
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BundleListModel) View() string {
	if len(m.Bundles) == 0 {
		return listDimStyle.Render("No findings to browse.") + "\n"
	}
	if m.Open {
		return m.detailView(m.Bundles[m.Cursor])
	}
	return m.listView()
}

func (m BundleListModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Findings"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Bundles))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		sb := m.Bundles[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			bundleTitle(sb),
			fmt.Sprint(sb.Bundle.Pitfalls()),
			fmt.Sprint(sb.Bundle.Warnings()),
			checkCodes(sb.Bundle.Checks),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Repository", "Pitfalls", "Warnings", "Checks").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			switch col {
			case 2:
				return lipgloss.NewStyle().Foreground(colorRed)
			case 3:
				return lipgloss.NewStyle().Foreground(colorYellow)
			case 4:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Bundles))))

	return b.String()
}

func (m BundleListModel) detailView(sb store.StoredBundle) string {
	var b strings.Builder
	sw := sb.Bundle.AssessedSoftware

	b.WriteString(StyleTitle.Render(bundleTitle(sb)))
	b.WriteString("\n")
	if sw.URL != "" && sw.URL != finding.Unknown {
		b.WriteString(StyleLink.Render(sw.URL))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("version %s · assessed %s · %s", sw.SoftwareVersion, sb.Bundle.DateCreated, filepath.Base(sb.Path))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	for _, c := range sb.Bundle.Checks {
		label := stylePitfall.Render(c.CheckID)
		if c.Severity == string(rules.SeverityWarning) {
			label = StyleWarning.Render(c.CheckID)
		}
		b.WriteString(label + " " + listDimStyle.Render(string(c.Category())) + "\n")
		b.WriteString("  " + listNormalStyle.Render(c.Evidence) + "\n")
		if c.Suggestion != "" {
			b.WriteString("  " + listSelectedStyle.Render(iconArrow) + " " + listDimStyle.Render(c.Suggestion) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// bundleTitle names a bundle by its software, falling back to the file.
func bundleTitle(sb store.StoredBundle) string {
	if name := sb.Bundle.AssessedSoftware.Name; name != "" && name != finding.Unknown {
		return name
	}
	return strings.TrimSuffix(filepath.Base(sb.Path), finding.FileSuffix)
}

// checkCodes lists the check IDs of a bundle, shortened past five.
func checkCodes(checks []finding.CheckResult) string {
	codes := make([]string, 0, len(checks))
	for i, c := range checks {
		if i == 5 {
			codes = append(codes, fmt.Sprintf("+%d", len(checks)-5))
			break
		}
		codes = append(codes, c.CheckID)
	}
	return strings.Join(codes, " ")
}
