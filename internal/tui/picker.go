package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/backpack455/hack-mit-sub000/internal/orchestrator"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// Pipeline is the subset of the orchestrator the picker drives.
type Pipeline interface {
	Current() *models.RecommendationSet
	Generate(ctx context.Context) orchestrator.GenerationOutcome
	Execute(ctx context.Context, id string) models.ExecutionResult
}

// GeneratedMsg carries a finished generation.
type GeneratedMsg struct {
	Outcome orchestrator.GenerationOutcome
}

// ExecutedMsg carries a finished execution.
type ExecutedMsg struct {
	Result models.ExecutionResult
}

// Picker is the bubbletea model for interactive mode.
type Picker struct {
	ctx      context.Context
	pipeline Pipeline

	set     *models.RecommendationSet
	visible []models.Recommendation
	cursor  int

	generating bool
	runningID  string
	status     string
	statusErr  bool

	result  *models.ExecutionResult
	spinner spinner.Model
	filter  textinput.Model
	output  viewport.Model

	filtering bool
	width     int
	height    int
	quitting  bool
}

// NewPicker creates a Picker. If the pipeline has no current set the picker
// generates one on start.
func NewPicker(ctx context.Context, p Pipeline) *Picker {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle))

	ti := textinput.New()
	ti.Placeholder = "filter by title or agent"
	ti.CharLimit = 100
	ti.Width = 40

	m := &Picker{
		ctx:      ctx,
		pipeline: p,
		spinner:  sp,
		filter:   ti,
		output:   viewport.New(80, 12),
		width:    80,
		height:   24,
	}
	m.setRecommendations(p.Current())
	return m
}

// NewPickerProgram wraps a Picker in a tea.Program using the alt screen.
func NewPickerProgram(ctx context.Context, p Pipeline) *tea.Program {
	return tea.NewProgram(NewPicker(ctx, p), tea.WithAltScreen(), tea.WithContext(ctx))
}

// Init implements tea.Model.
func (m *Picker) Init() tea.Cmd {
	if m.set == nil {
		return tea.Batch(m.spinner.Tick, m.startGenerate())
	}
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.output.Width = msg.Width - 4
		m.output.Height = max(msg.Height/2-2, 3)
		return m, nil

	case GeneratedMsg:
		m.generating = false
		if !msg.Outcome.Stale {
			m.setRecommendations(msg.Outcome.Set)
		}
		switch {
		case msg.Outcome.Err != nil:
			m.setStatus("Using fallback recommendations: "+msg.Outcome.Err.Error(), true)
		case msg.Outcome.Stale:
			m.setStatus("Generation superseded", false)
		default:
			m.setStatus(fmt.Sprintf("%d recommendations", m.set.Len()), false)
		}
		return m, nil

	case ExecutedMsg:
		m.runningID = ""
		res := msg.Result
		m.result = &res
		m.output.SetContent(RenderResult(res))
		m.output.GotoTop()
		m.setStatus("Finished "+res.ActionID, res.Failed())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Picker) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "enter":
		if rec, ok := m.Selected(); ok && !m.busy() {
			return m, m.startExecute(rec.ID)
		}
	case "r":
		if !m.busy() {
			return m, m.startGenerate()
		}
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "esc":
		m.result = nil
		m.output.SetContent("")
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Picker) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.filter.Blur()
		if msg.String() == "esc" {
			m.filter.Reset()
			m.applyFilter()
		}
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Picker) startGenerate() tea.Cmd {
	m.generating = true
	m.setStatus("Generating recommendations", false)
	ctx, p := m.ctx, m.pipeline
	return func() tea.Msg {
		return GeneratedMsg{Outcome: p.Generate(ctx)}
	}
}

func (m *Picker) startExecute(id string) tea.Cmd {
	m.runningID = id
	m.setStatus("Running "+id, false)
	ctx, p := m.ctx, m.pipeline
	return func() tea.Msg {
		return ExecutedMsg{Result: p.Execute(ctx, id)}
	}
}

func (m *Picker) busy() bool {
	return m.generating || m.runningID != ""
}

func (m *Picker) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Picker) setRecommendations(set *models.RecommendationSet) {
	m.set = set
	m.applyFilter()
}

func (m *Picker) applyFilter() {
	m.visible = m.visible[:0]
	if m.set == nil {
		m.cursor = 0
		return
	}
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	for _, rec := range m.set.Recommendations {
		if q == "" ||
			strings.Contains(strings.ToLower(rec.Title), q) ||
			strings.Contains(strings.ToLower(rec.AgentTag), q) {
			m.visible = append(m.visible, rec)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

// Selected returns the recommendation under the cursor.
func (m *Picker) Selected() (models.Recommendation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return models.Recommendation{}, false
	}
	return m.visible[m.cursor], true
}

// View implements tea.Model.
func (m *Picker) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	parts := []string{titleStyle.Render("agentpipe")}
	parts = append(parts, m.listView())

	if m.filtering || m.filter.Value() != "" {
		parts = append(parts, "/ "+m.filter.View())
	}
	if m.result != nil {
		parts = append(parts, boxStyle.Width(max(m.width-2, 20)).Render(m.output.View()))
	}
	parts = append(parts, m.statusView(), m.hintsView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Picker) listView() string {
	if m.set == nil {
		return hintStyle.Render("No recommendations yet.")
	}
	if len(m.visible) == 0 {
		return hintStyle.Render("Nothing matches the filter.")
	}

	var sb strings.Builder
	if m.set.IsFallback {
		sb.WriteString(warnStyle.Render("fallback recommendations"))
		sb.WriteByte('\n')
	}
	for i, rec := range m.visible {
		line := RenderRecommendation(rec)
		if i == m.cursor {
			line = selectedStyle.Render("> "+Icon(rec.Icon)+" "+rec.Title) + "  " + agentStyle.Render(rec.AgentTag)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (m *Picker) statusView() string {
	if m.busy() {
		return m.spinner.View() + " " + m.status
	}
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return hintStyle.Render(m.status)
}

func (m *Picker) hintsView() string {
	if m.filtering {
		return hintStyle.Render("enter apply │ esc clear")
	}
	return hintStyle.Render("↑/↓ select │ enter run │ / filter │ r refresh │ esc close result │ q quit")
}
