package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"text-digest/internal/domain/entity"
	"text-digest/internal/observability/logging"
	"text-digest/internal/observability/metrics"
	"text-digest/internal/observability/tracing"
	"text-digest/internal/utils/text"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTokenMax is the default character budget for combined partial summaries.
	DefaultTokenMax = 3000
	// DefaultMaxCollapseIterations bounds the number of collapse rounds.
	DefaultMaxCollapseIterations = 10
	// DefaultMapParallelism bounds concurrent map calls.
	DefaultMapParallelism = 4

	// separator joins partial summaries before length checks and reduce calls.
	separator = "\n\n"
)

// Config holds the settings of a Service. Zero numeric fields take defaults.
type Config struct {
	MapTemplate    PromptTemplate
	ReduceTemplate PromptTemplate

	// TokenMax is the budget, in characters, for joined partial summaries.
	TokenMax int
	// MaxCollapseIterations caps collapse rounds before giving up.
	MaxCollapseIterations int
	// ChunkSize splits documents into chunks of at most this many characters
	// before the map phase. Zero disables chunking.
	ChunkSize int
	// MapParallelism bounds the number of map calls in flight.
	MapParallelism int
}

// DefaultConfig returns the Portuguese templates with default limits.
func DefaultConfig() Config {
	return Config{
		MapTemplate:           DefaultMapTemplate,
		ReduceTemplate:        DefaultReduceTemplate,
		TokenMax:              DefaultTokenMax,
		MaxCollapseIterations: DefaultMaxCollapseIterations,
		MapParallelism:        DefaultMapParallelism,
	}
}

func (c Config) withDefaults() Config {
	if c.TokenMax == 0 {
		c.TokenMax = DefaultTokenMax
	}
	if c.MaxCollapseIterations == 0 {
		c.MaxCollapseIterations = DefaultMaxCollapseIterations
	}
	if c.MapParallelism == 0 {
		c.MapParallelism = DefaultMapParallelism
	}
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MapTemplate.IsZero() {
		return fmt.Errorf("%w: map template is required", ErrInvalidConfig)
	}
	if c.ReduceTemplate.IsZero() {
		return fmt.Errorf("%w: reduce template is required", ErrInvalidConfig)
	}
	if c.TokenMax <= 0 {
		return fmt.Errorf("%w: token max must be positive, got %d", ErrInvalidConfig, c.TokenMax)
	}
	if c.MaxCollapseIterations <= 0 {
		return fmt.Errorf("%w: max collapse iterations must be positive, got %d", ErrInvalidConfig, c.MaxCollapseIterations)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk size must not be negative, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.MapParallelism <= 0 {
		return fmt.Errorf("%w: map parallelism must be positive, got %d", ErrInvalidConfig, c.MapParallelism)
	}
	return nil
}

// Service runs map-reduce summarization against a Generator.
// A Service holds no per-call state and is safe for concurrent use.
type Service struct {
	gen Generator
	cfg Config
}

// NewService creates a Service. Zero numeric settings in cfg take defaults.
func NewService(gen Generator, cfg Config) (*Service, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator is required", ErrInvalidConfig)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{gen: gen, cfg: cfg}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Summarize produces a single summary of doc.
func (s *Service) Summarize(ctx context.Context, doc entity.Document) (string, error) {
	return s.SummarizeDocuments(ctx, []entity.Document{doc})
}

// SummarizeDocuments produces a single summary of an ordered collection.
// Partial summaries keep input order in every reduce prompt. The first
// generator failure aborts the run with a *GenerationError.
func (s *Service) SummarizeDocuments(ctx context.Context, docs []entity.Document) (summary string, err error) {
	if len(docs) == 0 {
		return "", ErrEmptyInput
	}
	for i, d := range docs {
		if err := d.Validate(); err != nil {
			return "", fmt.Errorf("document %d: %w", i, err)
		}
	}

	ctx, span := tracing.StartSpan(ctx, "summarize.documents", attribute.Int("summarize.documents", len(docs)))
	start := time.Now()
	r := &run{svc: s, logger: logging.FromContext(ctx)}
	defer func() {
		duration := time.Since(start)
		metrics.RecordSummarization(err == nil, duration)
		span.SetAttributes(attribute.Int64("summarize.generator_calls", r.calls.Load()))
		tracing.EndSpan(span, err)
		if err != nil {
			r.logger.Error("summarization failed",
				slog.Int64("generator_calls", r.calls.Load()),
				slog.Duration("duration", duration),
				slog.Any("error", err))
			return
		}
		r.logger.Info("summarization completed",
			slog.Int64("generator_calls", r.calls.Load()),
			slog.Int("summary_chars", text.CountRunes(summary)),
			slog.Duration("duration", duration))
	}()

	inputs, err := s.split(docs)
	if err != nil {
		return "", err
	}
	total := 0
	for _, d := range docs {
		total += d.Len()
	}
	metrics.RecordSummarizationInput(total, len(inputs))
	r.logger.Info("summarization started",
		slog.Int("documents", len(docs)),
		slog.Int("map_inputs", len(inputs)),
		slog.Int("input_chars", total),
		slog.Int("token_max", s.cfg.TokenMax))

	partials, err := r.mapPhase(ctx, inputs)
	if err != nil {
		return "", err
	}
	return r.reducePhase(ctx, partials)
}

// split chunks documents when ChunkSize is set. Chunks keep their source.
func (s *Service) split(docs []entity.Document) ([]entity.Document, error) {
	if s.cfg.ChunkSize <= 0 {
		return docs, nil
	}
	out := make([]entity.Document, 0, len(docs))
	for i, d := range docs {
		for j, c := range text.Chunk(d.Content(), s.cfg.ChunkSize) {
			chunk, err := entity.NewDocument(c, d.Source())
			if err != nil {
				return nil, fmt.Errorf("document %d chunk %d: %w", i, j, err)
			}
			out = append(out, chunk)
		}
	}
	return out, nil
}

// run carries the state of one SummarizeDocuments call.
type run struct {
	svc    *Service
	logger *slog.Logger
	calls  atomic.Int64
}

// mapPhase summarizes every input once. Results are stored by index so the
// output order matches the input order regardless of completion order.
func (r *run) mapPhase(ctx context.Context, inputs []entity.Document) ([]string, error) {
	start := time.Now()
	partials := make([]string, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.svc.cfg.MapParallelism)
	for i, doc := range inputs {
		g.Go(func() error {
			out, err := r.generate(gctx, PhaseMap, r.svc.cfg.MapTemplate.Render(doc.Content()))
			if err != nil {
				return err
			}
			partials[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("map phase completed",
		slog.Int("partials", len(partials)),
		slog.Int("combined_chars", joinedLength(partials)),
		slog.Duration("duration", time.Since(start)))
	return partials, nil
}

// reducePhase collapses partials until they fit TokenMax, then combines them
// with one final reduce call.
func (r *run) reducePhase(ctx context.Context, partials []string) (string, error) {
	cfg := r.svc.cfg
	rounds := 0

	for length := joinedLength(partials); length > cfg.TokenMax && len(partials) > 1; length = joinedLength(partials) {
		if rounds >= cfg.MaxCollapseIterations {
			return "", fmt.Errorf("%w: %d partial summaries still total %d characters after %d collapse rounds (budget %d)",
				ErrBudgetUnsatisfiable, len(partials), length, rounds, cfg.TokenMax)
		}

		groups, err := groupByBudget(partials, cfg.TokenMax)
		if err != nil {
			return "", err
		}

		collapsed := make([]string, 0, len(groups))
		for _, group := range groups {
			out, err := r.generate(ctx, PhaseCollapse, cfg.ReduceTemplate.Render(strings.Join(group, separator)))
			if err != nil {
				return "", err
			}
			collapsed = append(collapsed, out)
		}
		rounds++

		r.logger.Debug("collapse round completed",
			slog.Int("round", rounds),
			slog.Int("partials_in", len(partials)),
			slog.Int("partials_out", len(collapsed)),
			slog.Int("chars_in", length))
		partials = collapsed
	}
	metrics.RecordCollapseRounds(rounds)

	if length := joinedLength(partials); length > cfg.TokenMax {
		return "", fmt.Errorf("%w: single partial summary of %d characters exceeds budget %d",
			ErrBudgetUnsatisfiable, length, cfg.TokenMax)
	}

	return r.generate(ctx, PhaseReduce, cfg.ReduceTemplate.Render(strings.Join(partials, separator)))
}

// generate performs one traced, measured generator call. A cancelled context
// is reported before the generator is reached.
func (r *run) generate(ctx context.Context, phase Phase, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s phase: %w", phase, err)
	}

	ctx, span := tracing.StartSpan(ctx, "summarize.generate",
		attribute.String("summarize.phase", string(phase)),
		attribute.Int("summarize.prompt_chars", text.CountRunes(prompt)))

	r.calls.Add(1)
	start := time.Now()
	out, err := r.svc.gen.Generate(ctx, prompt)
	metrics.RecordPhaseCall(string(phase), err == nil, time.Since(start))
	if err != nil {
		gerr := &GenerationError{Phase: phase, Cause: err}
		tracing.EndSpan(span, gerr)
		return "", gerr
	}
	tracing.EndSpan(span, nil)
	return out, nil
}

// groupByBudget packs consecutive partials into groups whose joined length
// stays within budget. A partial that alone exceeds the budget cannot be
// placed in any group.
func groupByBudget(partials []string, budget int) ([][]string, error) {
	sepLen := text.CountRunes(separator)

	var (
		groups  [][]string
		current []string
		size    int
	)
	for i, p := range partials {
		n := text.CountRunes(p)
		if n > budget {
			return nil, fmt.Errorf("%w: partial summary %d has %d characters, budget is %d",
				ErrBudgetUnsatisfiable, i, n, budget)
		}
		if len(current) > 0 && size+sepLen+n > budget {
			groups = append(groups, current)
			current, size = nil, 0
		}
		if len(current) > 0 {
			size += sepLen
		}
		current = append(current, p)
		size += n
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}

// joinedLength is the character count of partials joined by separator.
func joinedLength(partials []string) int {
	return text.CountRunes(strings.Join(partials, separator))
}
