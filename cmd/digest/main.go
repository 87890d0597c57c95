// Command digest summarizes or normalizes a text file or standard input.
//
// Usage:
//
//	digest [flags] [file]
//	digest -normalize notes.txt
//	curl -s https://example.com | digest -format html
//	digest -url https://example.com/article
//	digest token -sub ci -ttl 24h
//
// The result is written to stdout; logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"text-digest/internal/bootstrap"
	"text-digest/internal/config"
	"text-digest/internal/handler/http/auth"
	"text-digest/internal/handler/http/requestid"
	"text-digest/internal/observability/logging"
	"text-digest/internal/usecase/pipeline"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(runToken(os.Args[2:], os.Stdout, os.Stderr))
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options holds parsed command line flags.
type options struct {
	normalize   bool
	cleanFirst  bool
	format      string
	source      string
	promptsFile string
	tokenMax    int
	chunkSize   int
	url         string
	path        string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.BoolVar(&opts.normalize, "normalize", false, "only normalize the input and print it")
	fs.BoolVar(&opts.cleanFirst, "clean", false, "normalize the input before summarizing")
	fs.StringVar(&opts.format, "format", pipeline.FormatText, "input format: text or html")
	fs.StringVar(&opts.url, "url", "", "fetch and summarize this web page instead of reading input")
	fs.StringVar(&opts.source, "source", "", "source label for the document (default \"local\" or the file name)")
	fs.StringVar(&opts.promptsFile, "prompts", "", "YAML file with map and reduce templates (overrides SUMMARIZER_PROMPTS_FILE)")
	fs.IntVar(&opts.tokenMax, "token-max", 0, "character budget for partial summaries (overrides SUMMARIZER_TOKEN_MAX)")
	fs.IntVar(&opts.chunkSize, "chunk-size", -1, "split input into chunks of this many characters, 0 disables (overrides SUMMARIZER_CHUNK_SIZE)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: digest [flags] [file]")
		fmt.Fprintln(stderr, "       digest token -sub NAME [-ttl DURATION]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return nil, errors.New("at most one input file is accepted")
	}
	opts.path = fs.Arg(0)
	if opts.url != "" {
		if opts.path != "" {
			fs.Usage()
			return nil, errors.New("-url cannot be combined with an input file")
		}
		opts.format = pipeline.FormatURL
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := logging.New(stderr, logging.FormatText, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(logger)

	input := opts.url
	if input == "" {
		input, err = readInput(opts.path, stdin)
		if err != nil {
			logger.Error("failed to read input", slog.Any("error", err))
			return 1
		}
	}
	if opts.source == "" && opts.path != "" {
		opts.source = opts.path
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, reqID := requestid.Ensure(ctx)
	ctx = logging.WithLogger(ctx, logger)

	out, err := execute(ctx, opts, input)
	if err != nil {
		logging.FromContext(ctx).Error("digest failed", slog.Any("error", err))
		return 1
	}

	logger.Debug("digest completed", slog.String("request_id", reqID))
	fmt.Fprintln(stdout, out)
	return 0
}

func execute(ctx context.Context, opts *options, input string) (string, error) {
	genCfg, err := config.LoadGeneratorConfig()
	if err != nil && !opts.normalize {
		return "", err
	}
	sumCfg, err := config.LoadSummarizerConfig()
	if err != nil {
		return "", err
	}
	applyOverrides(sumCfg, opts)

	if opts.normalize {
		// Normalization needs no generator.
		genCfg = &config.GeneratorConfig{
			Provider: config.ProviderEcho, Model: "echo", MaxTokens: 1,
			Timeout: time.Second, RequestsPerSecond: 1, Burst: 1, MaxAttempts: 1,
		}
	}

	fetchCfg, err := config.LoadFetchConfig()
	if err != nil {
		return "", err
	}

	components, err := bootstrap.Build(ctx, genCfg, sumCfg, fetchCfg)
	if err != nil {
		return "", err
	}
	defer func() { _ = components.Close() }()

	if opts.normalize {
		return components.Pipeline.Clean(ctx, input)
	}

	ctx, cancel := context.WithTimeout(ctx, sumCfg.Timeout)
	defer cancel()
	return components.Pipeline.Summarize(ctx, pipeline.Request{
		InputValue: input,
		Source:     opts.source,
		Format:     opts.format,
		Normalize:  opts.cleanFirst,
	})
}

func applyOverrides(cfg *config.SummarizerConfig, opts *options) {
	if opts.promptsFile != "" {
		cfg.PromptsFile = opts.promptsFile
	}
	if opts.tokenMax > 0 {
		cfg.TokenMax = opts.tokenMax
	}
	if opts.chunkSize >= 0 {
		cfg.ChunkSize = opts.chunkSize
	}
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	// #nosec G304 -- the path is supplied by the user running the command
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// runToken issues a bearer token for the API server signed with JWT_SECRET.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("digest token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("sub", "", "token subject (required)")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !serverCfg.AuthEnabled() {
		fmt.Fprintln(stderr, "Error: JWT_SECRET is not set")
		return 1
	}
	if *subject == "" || *ttl <= 0 {
		fmt.Fprintln(stderr, "Error: -sub is required and -ttl must be positive")
		return 2
	}

	token, err := auth.NewToken([]byte(serverCfg.JWTSecret), *subject, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}
