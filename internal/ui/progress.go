package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"resilient/internal/buildpipeline"
)

type progressModel struct {
	title   string
	baseDir string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path    string
	status  buildpipeline.Status
	stage   buildpipeline.Stage
	elapsed string
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file progress
// of a directory diagnose. Paths are shown relative to baseDir.
func NewProgressModel(title, baseDir string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: buildpipeline.StatusQueued})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		baseDir: baseDir,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(buildpipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	doneCount, failed := m.counts()
	header := fmt.Sprintf("%s %d/%d", m.title, doneCount, len(m.items))
	if failed > 0 {
		header += fmt.Sprintf(", %d with errors", failed)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-14, 20)
	for _, item := range m.items {
		label := itemLabel(item)
		fmt.Fprintf(&b, "  %s %s", styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, label)), truncate(m.display(item.path), nameWidth))
		if item.elapsed != "" {
			b.WriteString(" " + lipgloss.NewStyle().Faint(true).Render(item.elapsed))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

const statusWidth = 10

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	if ev.Stage != "" {
		item.stage = ev.Stage
	}
	if finished(ev.Status) && ev.Elapsed > 0 {
		item.elapsed = ev.Elapsed.Round(time.Millisecond).String()
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	total := 0.0
	for _, item := range m.items {
		if finished(item.status) {
			total++
			continue
		}
		total += stageWeight(item)
	}
	return total / float64(len(m.items))
}

func (m *progressModel) counts() (done, failed int) {
	for _, item := range m.items {
		if finished(item.status) {
			done++
		}
		if item.status == buildpipeline.StatusError {
			failed++
		}
	}
	return done, failed
}

func (m *progressModel) display(path string) string {
	if m.baseDir == "" {
		return path
	}
	if rel, err := filepath.Rel(m.baseDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func finished(status buildpipeline.Status) bool {
	switch status {
	case buildpipeline.StatusDone, buildpipeline.StatusError, buildpipeline.StatusCached:
		return true
	}
	return false
}

func stageWeight(item fileItem) float64 {
	if item.status != buildpipeline.StatusWorking {
		return 0
	}
	switch item.stage {
	case buildpipeline.StageParse:
		return 0.3
	case buildpipeline.StageCheck:
		return 0.7
	case buildpipeline.StageRun:
		return 0.9
	}
	return 0
}

func itemLabel(item fileItem) string {
	if item.status == buildpipeline.StatusWorking {
		return stageLabel(item.stage)
	}
	return string(item.status)
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageParse:
		return "parsing"
	case buildpipeline.StageCheck:
		return "checking"
	case buildpipeline.StageRun:
		return "running"
	}
	return "working"
}

func styleStatus(status buildpipeline.Status) lipgloss.Style {
	switch status {
	case buildpipeline.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case buildpipeline.StatusCached:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	case buildpipeline.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case buildpipeline.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
