package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/backpack455/hack-mit-sub000/internal/orchestrator"
	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

type fakePipeline struct {
	current   *models.RecommendationSet
	outcome   orchestrator.GenerationOutcome
	generated int
	executed  []string
}

func (f *fakePipeline) Current() *models.RecommendationSet { return f.current }

func (f *fakePipeline) Generate(context.Context) orchestrator.GenerationOutcome {
	f.generated++
	if !f.outcome.Stale {
		f.current = f.outcome.Set
	}
	return f.outcome
}

func (f *fakePipeline) Execute(_ context.Context, id string) models.ExecutionResult {
	f.executed = append(f.executed, id)
	return models.ExecutionResult{ActionID: id, ResolvedID: id, Kind: models.ResultSuccess, Content: "ran " + id}
}

func sampleSet() *models.RecommendationSet {
	return &models.RecommendationSet{
		ID: "set-1",
		Recommendations: []models.Recommendation{
			{ID: "rec_1_find_papers", Title: "Find papers", AgentTag: "exa-mcp", Icon: "search", Confidence: 0.8},
			{ID: "rec_2_plan_sprint", Title: "Plan sprint", AgentTag: "sequential-thinking", Icon: "analyze", Confidence: 0.6},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPicker_GeneratesOnStartWithoutSet(t *testing.T) {
	p := &fakePipeline{outcome: orchestrator.GenerationOutcome{Set: sampleSet()}}
	m := NewPicker(context.Background(), p)

	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init should return commands")
	}
	if !m.generating {
		t.Error("picker should be generating")
	}

	msg := m.startGenerate()()
	m.Update(msg)

	if m.generating {
		t.Error("generating should be cleared")
	}
	if len(m.visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(m.visible))
	}
	if p.generated != 1 {
		t.Errorf("generated = %d, want 1", p.generated)
	}
}

func TestPicker_NavigateAndExecute(t *testing.T) {
	p := &fakePipeline{current: sampleSet()}
	m := NewPicker(context.Background(), p)

	m.Update(key("down"))
	rec, ok := m.Selected()
	if !ok || rec.ID != "rec_2_plan_sprint" {
		t.Fatalf("Selected() = %q, %v", rec.ID, ok)
	}
	m.Update(key("down"))
	if rec, _ := m.Selected(); rec.ID != "rec_2_plan_sprint" {
		t.Errorf("cursor should stop at the last entry, got %q", rec.ID)
	}

	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter should start execution")
	}
	if m.runningID != "rec_2_plan_sprint" {
		t.Errorf("runningID = %q", m.runningID)
	}

	// Busy pickers ignore a second run.
	if _, again := m.Update(key("enter")); again != nil {
		t.Error("enter while running should be ignored")
	}

	m.Update(cmd())
	if m.runningID != "" {
		t.Error("runningID should be cleared")
	}
	if m.result == nil || m.result.Content != "ran rec_2_plan_sprint" {
		t.Fatalf("result = %+v", m.result)
	}
	if len(p.executed) != 1 {
		t.Errorf("executed = %v", p.executed)
	}
	if !strings.Contains(m.View(), "rec_2_plan_sprint") {
		t.Error("view should include the result")
	}

	m.Update(key("esc"))
	if m.result != nil {
		t.Error("esc should close the result")
	}
}

func TestPicker_Filter(t *testing.T) {
	m := NewPicker(context.Background(), &fakePipeline{current: sampleSet()})

	m.Update(key("/"))
	if !m.filtering {
		t.Fatal("/ should enter filter mode")
	}
	for _, r := range "exa" {
		m.Update(key(string(r)))
	}
	if len(m.visible) != 1 || m.visible[0].AgentTag != "exa-mcp" {
		t.Fatalf("visible = %+v", m.visible)
	}

	m.Update(key("enter"))
	if m.filtering {
		t.Error("enter should leave filter mode")
	}
	if len(m.visible) != 1 {
		t.Error("filter should persist after enter")
	}

	m.Update(key("/"))
	m.Update(key("esc"))
	if len(m.visible) != 2 {
		t.Errorf("esc should clear the filter, visible = %d", len(m.visible))
	}
}

func TestPicker_FallbackStatus(t *testing.T) {
	fallback := orchestrator.FallbackSet(1, "", sampleSet().Timestamp)
	perr := pipeerr.New(pipeerr.StageProposal, errors.New("down"))
	m := NewPicker(context.Background(), &fakePipeline{})

	m.Update(GeneratedMsg{Outcome: orchestrator.GenerationOutcome{Set: fallback, Err: perr}})

	if !m.statusErr {
		t.Error("fallback should be reported as an error status")
	}
	if !strings.Contains(m.View(), "fallback") {
		t.Error("view should mark the fallback set")
	}
}

func TestPicker_StaleOutcomeKeepsSet(t *testing.T) {
	current := sampleSet()
	m := NewPicker(context.Background(), &fakePipeline{current: current})

	m.Update(GeneratedMsg{Outcome: orchestrator.GenerationOutcome{Set: &models.RecommendationSet{ID: "old"}, Stale: true}})

	if m.set != current {
		t.Error("stale outcome must not replace the shown set")
	}
}

func TestPicker_Quit(t *testing.T) {
	m := NewPicker(context.Background(), &fakePipeline{current: sampleSet()})
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return quit command")
	}
	if !m.quitting {
		t.Error("quitting should be true")
	}
	if m.View() != "Goodbye!\n" {
		t.Errorf("View() = %q", m.View())
	}
}

func TestRenderResult(t *testing.T) {
	out := RenderResult(models.ExecutionResult{
		ActionID:   "typo",
		ResolvedID: "rec_1_find_papers",
		Kind:       models.ResultError,
		Content:    "boom",
	})
	for _, want := range []string{"typo", "rec_1_find_papers", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderResult missing %q: %s", want, out)
		}
	}
}

func TestRenderSet_Empty(t *testing.T) {
	if got := RenderSet(nil); !strings.Contains(got, "No recommendations") {
		t.Errorf("RenderSet(nil) = %q", got)
	}
}
