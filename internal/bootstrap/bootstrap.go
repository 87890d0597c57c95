// Package bootstrap assembles the summarization stack from configuration.
// It is shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"text-digest/internal/config"
	"text-digest/internal/infra/extract"
	"text-digest/internal/infra/generator"
	"text-digest/internal/usecase/pipeline"
	"text-digest/internal/usecase/summarize"
	"text-digest/internal/utils/text"
)

// Components holds the wired use cases and the resources they own.
type Components struct {
	Pipeline  *pipeline.Pipeline
	Service   *summarize.Service
	Generator *generator.Client
}

// Build creates the generator client, the summarization service and the
// pipeline in front of it. A nil or disabled fetchCfg leaves url input off.
// Callers must Close the returned Components.
func Build(ctx context.Context, genCfg *config.GeneratorConfig, sumCfg *config.SummarizerConfig, fetchCfg *config.FetchConfig) (*Components, error) {
	svcCfg, err := ServiceConfig(sumCfg)
	if err != nil {
		return nil, err
	}

	gen, err := generator.New(ctx, genCfg)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	svc, err := summarize.NewService(gen, svcCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create summarizer: %w", err), gen.Close())
	}

	extractor, err := extract.NewHTMLExtractor("")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create html extractor: %w", err), gen.Close())
	}

	slog.Info("summarizer configured",
		slog.String("provider", gen.Provider()),
		slog.Int("token_max", svcCfg.TokenMax),
		slog.Int("max_collapse_iterations", svcCfg.MaxCollapseIterations),
		slog.Int("chunk_size", svcCfg.ChunkSize),
		slog.Int("map_parallelism", svcCfg.MapParallelism),
		slog.String("map_template", svcCfg.MapTemplate.Name()))

	var opts []pipeline.Option
	if fetchCfg != nil && fetchCfg.Enabled {
		opts = append(opts, pipeline.WithFetcher(extract.NewURLFetcher(*fetchCfg)))
		slog.Info("url input enabled",
			slog.Duration("timeout", fetchCfg.Timeout),
			slog.Int64("max_body_size", fetchCfg.MaxBodySize),
			slog.Bool("deny_private_ips", fetchCfg.DenyPrivateIPs))
	}

	return &Components{
		Pipeline:  pipeline.New(svc, text.Normalizer{}, extractor, opts...),
		Service:   svc,
		Generator: gen,
	}, nil
}

// ServiceConfig converts summarizer settings into a summarize.Config,
// loading templates from the prompts file when one is configured.
func ServiceConfig(sumCfg *config.SummarizerConfig) (summarize.Config, error) {
	cfg := summarize.DefaultConfig()
	cfg.TokenMax = sumCfg.TokenMax
	cfg.MaxCollapseIterations = sumCfg.MaxCollapseIterations
	cfg.ChunkSize = sumCfg.ChunkSize
	cfg.MapParallelism = sumCfg.MapParallelism

	if sumCfg.PromptsFile == "" {
		return cfg, nil
	}

	prompts, err := config.LoadPrompts(sumCfg.PromptsFile)
	if err != nil {
		return summarize.Config{}, err
	}
	if cfg.MapTemplate, err = summarize.NewPromptTemplate("map", prompts.Map); err != nil {
		return summarize.Config{}, fmt.Errorf("prompts file %s: %w", sumCfg.PromptsFile, err)
	}
	if cfg.ReduceTemplate, err = summarize.NewPromptTemplate("reduce", prompts.Reduce); err != nil {
		return summarize.Config{}, fmt.Errorf("prompts file %s: %w", sumCfg.PromptsFile, err)
	}
	return cfg, nil
}

// Close releases the generator.
func (c *Components) Close() error {
	return c.Generator.Close()
}
