package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/backpack455/hack-mit-sub000/internal/contextdoc"
	"github.com/backpack455/hack-mit-sub000/internal/execution"
	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/internal/registry"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	researchTask = models.Task{
		Title:    "Find Research Papers",
		Category: "research",
		Keywords: []string{"search", "papers"},
	}
	analysisTask = models.Task{
		Title:       "Analyze Quarterly Plan",
		Description: "Break down the plan into steps and reason about risks",
		Category:    "analysis",
		Keywords:    []string{"analyze", "plan"},
	}
)

type fakeProposer struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, ctx context.Context, text string) ([]models.Task, error)
}

func (f *fakeProposer) Propose(ctx context.Context, text string) ([]models.Task, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.fn(n, ctx, text)
}

func (f *fakeProposer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func staticTasks(tasks ...models.Task) *fakeProposer {
	return &fakeProposer{fn: func(int, context.Context, string) ([]models.Task, error) {
		return append([]models.Task(nil), tasks...), nil
	}}
}

type fakeRuntime struct {
	mu    sync.Mutex
	calls int
	last  execution.Request
	fn    func(call int, req execution.Request) (execution.Response, error)
}

func (f *fakeRuntime) Execute(_ context.Context, req execution.Request) (execution.Response, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.last = req
	f.mu.Unlock()
	return f.fn(n, req)
}

func (f *fakeRuntime) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRuntime) Last() execution.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func echoRuntime() *fakeRuntime {
	return &fakeRuntime{fn: func(_ int, req execution.Request) (execution.Response, error) {
		return execution.Response{Kind: models.ResultSuccess, Content: "done: " + req.Task.Title, Raw: req.AgentTag}, nil
	}}
}

var testSource = contextdoc.StaticSource{Name: "notes", Text: "Reading about transformer models and attention papers"}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 2}
}

func newTestOrchestrator(t *testing.T, p *fakeProposer, rt *fakeRuntime, opts ...Option) *Orchestrator {
	t.Helper()
	return newOrchestratorWith(t, RequiredConfig{
		Registry: registry.Default(),
		Source:   testSource,
		Proposer: p,
		Runtime:  rt,
	}, opts...)
}

func newOrchestratorWith(t *testing.T, req RequiredConfig, opts ...Option) *Orchestrator {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRetryPolicy(fastRetry()),
	}
	o, err := New(req, append(base, opts...)...)
	require.NoError(t, err)
	return o
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(RequiredConfig{Proposer: staticTasks(), Runtime: echoRuntime()})
	assert.Error(t, err)
	_, err = New(RequiredConfig{Source: testSource, Runtime: echoRuntime()})
	assert.Error(t, err)
	_, err = New(RequiredConfig{Source: testSource, Proposer: staticTasks()})
	assert.Error(t, err)
}

func TestGenerate_BuildsRankedRecommendations(t *testing.T) {
	o := newTestOrchestrator(t, staticTasks(researchTask, analysisTask), echoRuntime())

	out := o.Generate(context.Background())
	require.Nil(t, out.Err)
	assert.False(t, out.Stale)
	assert.False(t, out.Fallback())

	set := out.Set
	require.Len(t, set.Recommendations, 2)
	assert.Same(t, set, o.Current())
	assert.Equal(t, uint64(1), set.Generation)
	assert.Equal(t, "notes", set.ContextRef)
	assert.Equal(t, fixedNow, set.Timestamp)
	assert.NotEmpty(t, set.ID)

	rec := set.Recommendations[0]
	assert.Equal(t, "rec_1_find_research_papers", rec.ID)
	assert.Equal(t, "exa-mcp", rec.AgentTag)
	assert.Equal(t, "search", rec.Icon)
	assert.Greater(t, rec.MatchScore, 1.0, "match score is raw")
	assert.Greater(t, rec.Confidence, 0.0)
	assert.Less(t, rec.Confidence, 1.0)
	assert.LessOrEqual(t, len(rec.TopSimilarAgents), 5)
	assert.LessOrEqual(t, len(rec.Alternatives), 3)
	assert.NotContains(t, rec.Alternatives, "exa-mcp")
	assert.Equal(t, researchTask, rec.Task)

	assert.Equal(t, "rec_2_analyze_quarterly_plan", set.Recommendations[1].ID)
}

func TestGenerate_ProposerFailureFallsBack(t *testing.T) {
	p := &fakeProposer{fn: func(int, context.Context, string) ([]models.Task, error) {
		return nil, errors.New("service unreachable")
	}}
	o := newTestOrchestrator(t, p, echoRuntime())

	out := o.Generate(context.Background())
	require.NotNil(t, out.Err)
	assert.Equal(t, pipeerr.StageProposal, out.Err.Stage)
	assert.ErrorIs(t, out.Err, pipeerr.ErrTaskProposal)
	assert.Equal(t, 2, p.Calls(), "proposal is retried")

	set := out.Set
	assert.True(t, set.IsFallback)
	assert.Equal(t, []string{FallbackSearchID, FallbackAnalyzeID, FallbackDocumentationID}, set.IDs())
	assert.Equal(t, "exa-mcp", set.Recommendations[0].AgentTag)
	assert.Equal(t, "sequential-thinking", set.Recommendations[1].AgentTag)
	assert.Equal(t, "context7", set.Recommendations[2].AgentTag)
	assert.Same(t, set, o.Current(), "fallback set is installed")
}

func TestGenerate_ZeroTasksFallsBack(t *testing.T) {
	p := staticTasks()
	o := newTestOrchestrator(t, p, echoRuntime())

	out := o.Generate(context.Background())
	require.NotNil(t, out.Err)
	assert.ErrorIs(t, out.Err, pipeerr.ErrTaskProposal)
	assert.True(t, out.Fallback())
	assert.Equal(t, 1, p.Calls(), "empty proposals are not retried")
}

func TestGenerate_ContextUnavailableFallsBack(t *testing.T) {
	p := staticTasks(researchTask)
	o := newOrchestratorWith(t, RequiredConfig{
		Registry: registry.Default(),
		Source:   contextdoc.StaticSource{Name: "empty"},
		Proposer: p,
		Runtime:  echoRuntime(),
	})

	out := o.Generate(context.Background())
	require.NotNil(t, out.Err)
	assert.Equal(t, pipeerr.StageContext, out.Err.Stage)
	assert.ErrorIs(t, out.Err, pipeerr.ErrContextUnavailable)
	assert.True(t, out.Fallback())
	assert.Zero(t, p.Calls())
}

func TestGenerate_EmptyRegistryFallsBack(t *testing.T) {
	loadErr := &registry.LoadError{Path: "agents.yaml", Err: errors.New("no such file")}
	o := newOrchestratorWith(t, RequiredConfig{
		Source:   testSource,
		Proposer: staticTasks(researchTask),
		Runtime:  echoRuntime(),
	}, WithRegistryError(loadErr))

	out := o.Generate(context.Background())
	require.NotNil(t, out.Err)
	assert.Equal(t, pipeerr.StageRegistry, out.Err.Stage)
	assert.ErrorIs(t, out.Err, pipeerr.ErrRegistryLoad)
	assert.Contains(t, out.Err.Error(), "agents.yaml")
	assert.True(t, out.Fallback())
}

func TestGenerate_ProposerPanicFallsBack(t *testing.T) {
	p := &fakeProposer{fn: func(int, context.Context, string) ([]models.Task, error) {
		panic("boom")
	}}
	o := newTestOrchestrator(t, p, echoRuntime())

	var out GenerationOutcome
	require.NotPanics(t, func() { out = o.Generate(context.Background()) })
	require.NotNil(t, out.Err)
	assert.Equal(t, pipeerr.StageRecovered, out.Err.Stage)
	assert.True(t, out.Fallback())
}

func TestGenerate_LastStartedWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	p := &fakeProposer{fn: func(call int, _ context.Context, _ string) ([]models.Task, error) {
		if call == 1 {
			close(entered)
			<-release
		}
		return []models.Task{researchTask}, nil
	}}
	o := newTestOrchestrator(t, p, echoRuntime())

	done := make(chan GenerationOutcome, 1)
	go func() { done <- o.Generate(context.Background()) }()
	<-entered

	second := o.Generate(context.Background())
	close(release)
	first := <-done

	assert.False(t, second.Stale)
	assert.True(t, first.Stale, "older ticket must not replace newer set")
	assert.Same(t, second.Set, o.Current())
	assert.Equal(t, uint64(2), o.Current().Generation)
}

func TestRefresh_ReplacesSet(t *testing.T) {
	o := newTestOrchestrator(t, staticTasks(researchTask), echoRuntime())

	first := o.Generate(context.Background())
	second := o.Refresh(context.Background())

	assert.NotEqual(t, first.Set.ID, second.Set.ID)
	assert.Same(t, second.Set, o.Current())
}

func TestGenerate_EmitsEvents(t *testing.T) {
	events := NewEventEmitter(8, nil)
	o := newTestOrchestrator(t, staticTasks(researchTask), echoRuntime(), WithEvents(events))

	o.Generate(context.Background())

	ev := <-events.Events()
	assert.Equal(t, EventGenerationStarted, ev.Type)
	ev = <-events.Events()
	assert.Equal(t, EventGenerationCompleted, ev.Type)
	assert.Equal(t, uint64(1), ev.Generation)
	assert.Equal(t, fixedNow, ev.Timestamp)
}

func TestEventEmitter_DropsWhenFull(t *testing.T) {
	e := NewEventEmitter(1, nil)
	e.Emit(Event{Type: EventGenerationStarted})
	e.Emit(Event{Type: EventGenerationCompleted})

	assert.Equal(t, uint64(1), e.DroppedCount())
	e.Close()

	var got []EventType
	for ev := range e.Events() {
		got = append(got, ev.Type)
	}
	assert.Equal(t, []EventType{EventGenerationStarted}, got)
}

func TestFallbackSet(t *testing.T) {
	a := FallbackSet(3, "ref", fixedNow)
	b := FallbackSet(4, "ref", fixedNow)

	assert.Equal(t, 3, a.Len())
	assert.True(t, a.IsFallback)
	assert.Equal(t, uint64(3), a.Generation)
	assert.NotEqual(t, a.ID, b.ID)

	a.Recommendations[0].Task.Keywords[0] = "mutated"
	assert.Equal(t, "search", b.Recommendations[0].Task.Keywords[0], "sets do not share slices")
}

func TestSlugAndIDs(t *testing.T) {
	tests := []struct {
		index int
		title string
		want  string
	}{
		{0, "Find Research Papers", "rec_1_find_research_papers"},
		{2, "  What's new in Go 1.24?  ", "rec_3_what_s_new_in_go_1_24"},
		{1, "???", "rec_2"},
		{4, "Résumé tips", "rec_5_r_sum_tips"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, recommendationID(tt.index, tt.title))
		})
	}

	long := recommendationID(0, "a very long title that keeps going well past the forty character limit")
	assert.LessOrEqual(t, len(long), len("rec_1_")+40)
}
