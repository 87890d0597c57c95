package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"text-digest/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── Test Doubles ───────── */

// mockGenerator records every prompt and delegates to GenerateFunc.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, prompt)
}

func (m *mockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// countPrefix counts recorded prompts that start with prefix.
func (m *mockGenerator) countPrefix(prefix string) int {
	n := 0
	for _, p := range m.Prompts() {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

const (
	mapPrefix    = "Summarize: "
	reducePrefix = "Combine: "
)

func testConfig(tokenMax int) Config {
	return Config{
		MapTemplate:    MustPromptTemplate("map", mapPrefix+"{doc}"),
		ReduceTemplate: MustPromptTemplate("reduce", reducePrefix+"{doc}"),
		TokenMax:       tokenMax,
		MapParallelism: 1,
	}
}

func newTestService(t *testing.T, gen Generator, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(gen, cfg)
	require.NoError(t, err)
	return svc
}

func mustDocs(t *testing.T, contents ...string) []entity.Document {
	t.Helper()
	docs := make([]entity.Document, 0, len(contents))
	for _, c := range contents {
		d, err := entity.NewDocument(c, "")
		require.NoError(t, err)
		docs = append(docs, d)
	}
	return docs
}

// echoMap returns "S(<doc>)" for map prompts and "R#<n>" for reduce prompts.
func echoMap() func(context.Context, string) (string, error) {
	var reduces atomic.Int64
	return func(_ context.Context, prompt string) (string, error) {
		if doc, ok := strings.CutPrefix(prompt, mapPrefix); ok {
			return "S(" + doc + ")", nil
		}
		return fmt.Sprintf("R#%d", reduces.Add(1)), nil
	}
}

/* ───────── Constructor ───────── */

func TestNewService(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) { return "", nil })

	tests := []struct {
		name    string
		gen     Generator
		cfg     Config
		wantErr error
	}{
		{name: "defaults", gen: gen, cfg: DefaultConfig()},
		{name: "zero limits take defaults", gen: gen, cfg: Config{MapTemplate: DefaultMapTemplate, ReduceTemplate: DefaultReduceTemplate}},
		{name: "nil generator", gen: nil, cfg: DefaultConfig(), wantErr: ErrInvalidConfig},
		{name: "missing map template", gen: gen, cfg: Config{ReduceTemplate: DefaultReduceTemplate}, wantErr: ErrInvalidConfig},
		{name: "missing reduce template", gen: gen, cfg: Config{MapTemplate: DefaultMapTemplate}, wantErr: ErrInvalidConfig},
		{name: "negative token max", gen: gen, cfg: func() Config { c := DefaultConfig(); c.TokenMax = -1; return c }(), wantErr: ErrInvalidConfig},
		{name: "negative chunk size", gen: gen, cfg: func() Config { c := DefaultConfig(); c.ChunkSize = -5; return c }(), wantErr: ErrInvalidConfig},
		{name: "negative parallelism", gen: gen, cfg: func() Config { c := DefaultConfig(); c.MapParallelism = -2; return c }(), wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.gen, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			cfg := svc.Config()
			assert.Equal(t, DefaultTokenMax, cfg.TokenMax)
			assert.Equal(t, DefaultMaxCollapseIterations, cfg.MaxCollapseIterations)
			assert.Equal(t, DefaultMapParallelism, cfg.MapParallelism)
			assert.Zero(t, cfg.ChunkSize)
		})
	}
}

/* ───────── Map-Reduce Behaviour ───────── */

func TestSummarize_SingleDocumentUnderBudget(t *testing.T) {
	doc := strings.Repeat("a", 500)
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			return "partial summary", nil
		}
		return "final summary", nil
	}}
	svc := newTestService(t, gen, testConfig(3000))

	got, err := svc.Summarize(context.Background(), mustDocs(t, doc)[0])

	require.NoError(t, err)
	assert.Equal(t, "final summary", got)

	prompts := gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, mapPrefix+doc, prompts[0])
	assert.Equal(t, reducePrefix+"partial summary", prompts[1])
}

func TestSummarize_ReturnsFinalResponseVerbatim(t *testing.T) {
	final := "  Resumo final.\n\n- ponto 1\n"
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			return "p", nil
		}
		return final, nil
	}}
	svc := newTestService(t, gen, testConfig(3000))

	got, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "one", "two", "three"))

	require.NoError(t, err)
	assert.Equal(t, final, got)
	assert.Equal(t, 3, gen.countPrefix(mapPrefix))
	assert.Equal(t, 1, gen.countPrefix(reducePrefix))
	assert.Equal(t, reducePrefix+"p\n\np\n\np", gen.Prompts()[3])
}

func TestSummarize_CollapsesUntilUnderBudget(t *testing.T) {
	partial := strings.Repeat("x", 1000)
	var collapses atomic.Int64
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, mapPrefix):
			return partial, nil
		case strings.Contains(prompt, partial):
			return fmt.Sprintf("collapsed-%d", collapses.Add(1)), nil
		default:
			return "final", nil
		}
	}}
	svc := newTestService(t, gen, testConfig(2500))

	got, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "d1", "d2", "d3", "d4"))

	require.NoError(t, err)
	assert.Equal(t, "final", got)

	prompts := gen.Prompts()
	// 4 map calls, 2 collapse groups of 2 partials each, 1 final combine.
	require.Len(t, prompts, 7)
	assert.Equal(t, reducePrefix+partial+"\n\n"+partial, prompts[4])
	assert.Equal(t, reducePrefix+partial+"\n\n"+partial, prompts[5])
	assert.Equal(t, reducePrefix+"collapsed-1\n\ncollapsed-2", prompts[6])
}

func TestSummarize_CollapseRunsMultipleRounds(t *testing.T) {
	// Every output is 40 characters, so with a budget of 100 eight partials
	// need two rounds (8 -> 4 -> 2) before they fit.
	long := strings.Repeat("y", 40)
	gen := &mockGenerator{GenerateFunc: func(context.Context, string) (string, error) {
		return long, nil
	}}
	svc := newTestService(t, gen, testConfig(100))

	docs := mustDocs(t, "1", "2", "3", "4", "5", "6", "7", "8")
	_, err := svc.SummarizeDocuments(context.Background(), docs)

	require.NoError(t, err)
	// 8 map + 4 collapse (round 1) + 2 collapse (round 2) + 1 final.
	assert.Len(t, gen.Prompts(), 8+4+2+1)
}

func TestSummarize_MapFailureStopsRun(t *testing.T) {
	backendErr := errors.New("backend unavailable")
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "bad") {
			return "", backendErr
		}
		return "ok", nil
	}}
	svc := newTestService(t, gen, testConfig(3000))

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "good", "bad", "good"))

	require.Error(t, err)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, PhaseMap, genErr.Phase)
	assert.ErrorIs(t, err, backendErr)
	assert.Zero(t, gen.countPrefix(reducePrefix), "reduce must not run after a map failure")
}

func TestSummarize_CollapseFailure(t *testing.T) {
	backendErr := errors.New("rate limited")
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			return strings.Repeat("z", 60), nil
		}
		return "", backendErr
	}}
	svc := newTestService(t, gen, testConfig(100))

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "a", "b", "c"))

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, PhaseCollapse, genErr.Phase)
	assert.ErrorIs(t, err, backendErr)
	// Collapse groups run sequentially, so the failure stops at the first one.
	assert.Equal(t, 1, gen.countPrefix(reducePrefix))
}

func TestSummarize_ReduceFailure(t *testing.T) {
	backendErr := errors.New("server error")
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			return "partial", nil
		}
		return "", backendErr
	}}
	svc := newTestService(t, gen, testConfig(3000))

	got, err := svc.Summarize(context.Background(), mustDocs(t, "text")[0])

	assert.Empty(t, got)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, PhaseReduce, genErr.Phase)
	assert.ErrorIs(t, err, backendErr)
}

func TestSummarize_ReorderingKeepsCallCount(t *testing.T) {
	run := func(contents ...string) *mockGenerator {
		gen := &mockGenerator{GenerateFunc: echoMap()}
		svc := newTestService(t, gen, testConfig(3000))
		_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, contents...))
		require.NoError(t, err)
		return gen
	}

	forward := run("alpha", "beta", "gamma")
	backward := run("gamma", "beta", "alpha")

	assert.Equal(t, len(forward.Prompts()), len(backward.Prompts()))

	lastForward := forward.Prompts()[len(forward.Prompts())-1]
	lastBackward := backward.Prompts()[len(backward.Prompts())-1]
	assert.Equal(t, reducePrefix+"S(alpha)\n\nS(beta)\n\nS(gamma)", lastForward)
	assert.Equal(t, reducePrefix+"S(gamma)\n\nS(beta)\n\nS(alpha)", lastBackward)
}

func TestSummarize_ParallelMapPreservesOrder(t *testing.T) {
	// Earlier documents finish last.
	delays := map[string]time.Duration{"first": 30 * time.Millisecond, "second": 15 * time.Millisecond, "third": 0}
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if doc, ok := strings.CutPrefix(prompt, mapPrefix); ok {
			time.Sleep(delays[doc])
			return "S(" + doc + ")", nil
		}
		return "final", nil
	}}
	cfg := testConfig(3000)
	cfg.MapParallelism = 3
	svc := newTestService(t, gen, cfg)

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "first", "second", "third"))

	require.NoError(t, err)
	prompts := gen.Prompts()
	assert.Equal(t, reducePrefix+"S(first)\n\nS(second)\n\nS(third)", prompts[len(prompts)-1])
}

func TestSummarize_MapParallelismBound(t *testing.T) {
	var inFlight, peak atomic.Int64
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}
		return "s", nil
	}}
	cfg := testConfig(3000)
	cfg.MapParallelism = 2
	svc := newTestService(t, gen, cfg)

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "1", "2", "3", "4", "5", "6"))

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, 6, gen.countPrefix(mapPrefix))
}

func TestSummarize_ChunkingSplitsLongDocuments(t *testing.T) {
	gen := &mockGenerator{GenerateFunc: echoMap()}
	cfg := testConfig(3000)
	cfg.ChunkSize = 10
	svc := newTestService(t, gen, cfg)

	_, err := svc.Summarize(context.Background(), mustDocs(t, "aaaa\n\nbbbb\n\ncccc")[0])

	require.NoError(t, err)
	prompts := gen.Prompts()
	require.Len(t, prompts, 3)
	assert.Equal(t, reducePrefix+"S(aaaa\n\nbbbb)\n\nS(cccc)", prompts[2])
}

func TestService_SplitKeepsEveryChunk(t *testing.T) {
	cfg := testConfig(3000)
	cfg.ChunkSize = 10
	svc := newTestService(t, &mockGenerator{GenerateFunc: echoMap()}, cfg)

	doc, err := entity.NewDocument("aaaa\n\nbbbb\n\ncccc dddd eeee", "notes.txt")
	require.NoError(t, err)

	chunks, err := svc.split([]entity.Document{doc})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var words []string
	for _, c := range chunks {
		assert.Equal(t, "notes.txt", c.Source())
		words = append(words, strings.Fields(c.Content())...)
	}
	assert.Equal(t, strings.Fields(doc.Content()), words)
}

/* ───────── Budget Errors ───────── */

func TestSummarize_OversizedPartialInCollapse(t *testing.T) {
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "huge") {
			return strings.Repeat("h", 150), nil
		}
		return "small", nil
	}}
	svc := newTestService(t, gen, testConfig(100))

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "tiny", "huge"))

	assert.ErrorIs(t, err, ErrBudgetUnsatisfiable)
	assert.Zero(t, gen.countPrefix(reducePrefix))
}

func TestSummarize_LoneOversizedSummary(t *testing.T) {
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			return strings.Repeat("w", 500), nil
		}
		return "final", nil
	}}
	svc := newTestService(t, gen, testConfig(100))

	got, err := svc.Summarize(context.Background(), mustDocs(t, "only")[0])

	assert.ErrorIs(t, err, ErrBudgetUnsatisfiable)
	assert.Empty(t, got)
	assert.Len(t, gen.Prompts(), 1)
	assert.Zero(t, gen.countPrefix(reducePrefix))
}

func TestSummarize_CollapseLeavesOversizedSummary(t *testing.T) {
	// Collapsed outputs grow past the budget, so the next round cannot group them.
	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, mapPrefix) {
			return strings.Repeat("p", 40), nil
		}
		return strings.Repeat("c", 150), nil
	}}
	svc := newTestService(t, gen, testConfig(100))

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "a", "b", "c"))

	assert.ErrorIs(t, err, ErrBudgetUnsatisfiable)
	// 3 map calls and 2 collapse calls; the final combine is never sent.
	assert.Len(t, gen.Prompts(), 5)
}

func TestSummarize_CollapseIterationCap(t *testing.T) {
	// Outputs never shrink and no two fit together, so collapsing cannot converge.
	gen := &mockGenerator{GenerateFunc: func(context.Context, string) (string, error) {
		return "aaaaaa", nil
	}}
	cfg := testConfig(10)
	cfg.MaxCollapseIterations = 2
	svc := newTestService(t, gen, cfg)

	_, err := svc.SummarizeDocuments(context.Background(), mustDocs(t, "1", "2", "3"))

	assert.ErrorIs(t, err, ErrBudgetUnsatisfiable)
	// 3 map calls plus 2 rounds of 3 single-partial collapses.
	assert.Len(t, gen.Prompts(), 3+2*3)
}

/* ───────── Input Validation & Cancellation ───────── */

func TestSummarize_InvalidInput(t *testing.T) {
	gen := &mockGenerator{GenerateFunc: echoMap()}
	svc := newTestService(t, gen, testConfig(3000))

	t.Run("empty collection", func(t *testing.T) {
		_, err := svc.SummarizeDocuments(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
	})

	t.Run("zero document", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), entity.Document{})
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
	})

	assert.Empty(t, gen.Prompts())
}

func TestSummarize_CancelledContext(t *testing.T) {
	gen := &mockGenerator{GenerateFunc: echoMap()}
	svc := newTestService(t, gen, testConfig(3000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SummarizeDocuments(ctx, mustDocs(t, "a", "b"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.Prompts())
}

func TestSummarize_CancelledBetweenPhases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		cancel()
		return "partial", nil
	}}
	svc := newTestService(t, gen, testConfig(3000))

	_, err := svc.Summarize(ctx, mustDocs(t, "text")[0])

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, gen.Prompts(), 1, "reduce must not be attempted after cancellation")
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	gen := &mockGenerator{GenerateFunc: echoMap()}
	cfg := testConfig(3000)
	cfg.ChunkSize = 4
	svc := newTestService(t, gen, cfg)

	docs := mustDocs(t, "one two three", "four")
	before := append([]entity.Document(nil), docs...)

	_, err := svc.SummarizeDocuments(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, before, docs)
}

/* ───────── Grouping ───────── */

func TestGroupByBudget(t *testing.T) {
	tests := []struct {
		name     string
		partials []string
		budget   int
		want     [][]string
		wantErr  bool
	}{
		{
			name:     "all fit in one group",
			partials: []string{"aa", "bb"},
			budget:   6,
			want:     [][]string{{"aa", "bb"}},
		},
		{
			name:     "separator counted",
			partials: []string{"aa", "bb"},
			budget:   5,
			want:     [][]string{{"aa"}, {"bb"}},
		},
		{
			name:     "greedy consecutive packing",
			partials: []string{"aaa", "b", "cccc", "d"},
			budget:   7,
			want:     [][]string{{"aaa", "b"}, {"cccc", "d"}},
		},
		{
			name:     "oversized partial",
			partials: []string{"ok", "toolong"},
			budget:   5,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := groupByBudget(tt.partials, tt.budget)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBudgetUnsatisfiable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
