package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"text-digest/internal/domain/entity"
	"text-digest/internal/utils/text"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSummarizer struct {
	SummarizeFunc func(ctx context.Context, doc entity.Document) (string, error)
	docs          []entity.Document
}

func (m *mockSummarizer) Summarize(ctx context.Context, doc entity.Document) (string, error) {
	m.docs = append(m.docs, doc)
	return m.SummarizeFunc(ctx, doc)
}

func okSummarizer() *mockSummarizer {
	return &mockSummarizer{SummarizeFunc: func(_ context.Context, doc entity.Document) (string, error) {
		return "summary of " + doc.Content(), nil
	}}
}

type mockFetcher struct {
	FetchFunc func(ctx context.Context, rawURL string) (string, error)
	urls      []string
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	m.urls = append(m.urls, rawURL)
	return m.FetchFunc(ctx, rawURL)
}

func pageFetcher(page string) *mockFetcher {
	return &mockFetcher{FetchFunc: func(context.Context, string) (string, error) {
		return page, nil
	}}
}

// stripTags is a crude extractor for tests.
var stripTags = TextTransformFunc(func(s string) string {
	s = strings.ReplaceAll(s, "<p>", "")
	return strings.ReplaceAll(s, "</p>", "")
})

func TestPipeline_Clean(t *testing.T) {
	p := New(okSummarizer(), text.Normalizer{}, nil)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "normalizes", input: `Café "ótimo"!`, want: "cafe  o timo "},
		{name: "plain ascii", input: "Hello World", want: "hello world"},
		{name: "empty", input: "", wantErr: ErrInputRequired},
		{name: "whitespace", input: " \t\n", wantErr: ErrInputRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Clean(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, entity.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipeline_Prepare(t *testing.T) {
	tests := []struct {
		name      string
		extractor TextTransform
		req       Request
		want      string
		wantErr   error
	}{
		{
			name: "text passes through unchanged",
			req:  Request{InputValue: "  Raw Text!  "},
			want: "  Raw Text!  ",
		},
		{
			name: "normalize flag",
			req:  Request{InputValue: "Raw Text!", Normalize: true},
			want: "raw text ",
		},
		{
			name:      "html extracted",
			extractor: stripTags,
			req:       Request{InputValue: "<p>Olá</p>", Format: "HTML"},
			want:      "Olá",
		},
		{
			name:      "html extracted then normalized",
			extractor: stripTags,
			req:       Request{InputValue: "<p>Olá</p>", Format: FormatHTML, Normalize: true},
			want:      "ola ",
		},
		{
			name:    "html without extractor",
			req:     Request{InputValue: "<p>x</p>", Format: FormatHTML},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "unknown format",
			req:     Request{InputValue: "x", Format: "pdf"},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "missing input",
			req:     Request{Format: FormatText},
			wantErr: ErrInputRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(okSummarizer(), text.Normalizer{}, tt.extractor)
			got, err := p.Prepare(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipeline_Summarize(t *testing.T) {
	t.Run("builds document with source", func(t *testing.T) {
		sum := okSummarizer()
		p := New(sum, text.Normalizer{}, nil)

		got, err := p.Summarize(context.Background(), Request{InputValue: "long text", Source: "upload"})

		require.NoError(t, err)
		assert.Equal(t, "summary of long text", got)
		require.Len(t, sum.docs, 1)
		assert.Equal(t, "upload", sum.docs[0].Source())
	})

	t.Run("default source", func(t *testing.T) {
		sum := okSummarizer()
		p := New(sum, text.Normalizer{}, nil)

		_, err := p.Summarize(context.Background(), Request{InputValue: "text"})

		require.NoError(t, err)
		assert.Equal(t, entity.DefaultSource, sum.docs[0].Source())
	})

	t.Run("normalization leaving nothing is invalid", func(t *testing.T) {
		sum := okSummarizer()
		p := New(sum, text.Normalizer{}, nil)

		_, err := p.Summarize(context.Background(), Request{InputValue: "123 !!!", Normalize: true})

		assert.ErrorIs(t, err, entity.ErrInvalidInput)
		assert.Empty(t, sum.docs)
	})

	t.Run("summarizer error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		sum := &mockSummarizer{SummarizeFunc: func(context.Context, entity.Document) (string, error) {
			return "", boom
		}}
		p := New(sum, text.Normalizer{}, nil)

		_, err := p.Summarize(context.Background(), Request{InputValue: "text"})

		assert.ErrorIs(t, err, boom)
	})
}

func TestPipeline_URLInput(t *testing.T) {
	t.Run("fetches and summarizes the page", func(t *testing.T) {
		sum := okSummarizer()
		f := pageFetcher("Página Baixada")
		p := New(sum, text.Normalizer{}, nil, WithFetcher(f))

		got, err := p.Summarize(context.Background(), Request{InputValue: " https://example.com/a ", Format: FormatURL})

		require.NoError(t, err)
		assert.Equal(t, "summary of Página Baixada", got)
		assert.Equal(t, []string{"https://example.com/a"}, f.urls)
		require.Len(t, sum.docs, 1)
		assert.Equal(t, "https://example.com/a", sum.docs[0].Source())
	})

	t.Run("explicit source wins", func(t *testing.T) {
		sum := okSummarizer()
		p := New(sum, text.Normalizer{}, nil, WithFetcher(pageFetcher("page")))

		_, err := p.Summarize(context.Background(), Request{InputValue: "https://example.com", Format: "URL", Source: "feed"})

		require.NoError(t, err)
		assert.Equal(t, "feed", sum.docs[0].Source())
	})

	t.Run("fetched page is normalized", func(t *testing.T) {
		p := New(okSummarizer(), text.Normalizer{}, nil, WithFetcher(pageFetcher("Página!")))

		got, err := p.Prepare(context.Background(), Request{InputValue: "https://example.com", Format: FormatURL, Normalize: true})

		require.NoError(t, err)
		assert.Equal(t, "pa gina ", got)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		boom := errors.New("unreachable")
		sum := okSummarizer()
		f := &mockFetcher{FetchFunc: func(context.Context, string) (string, error) { return "", boom }}
		p := New(sum, text.Normalizer{}, nil, WithFetcher(f))

		_, err := p.Summarize(context.Background(), Request{InputValue: "https://example.com", Format: FormatURL})

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, sum.docs)
	})

	t.Run("no fetcher configured", func(t *testing.T) {
		p := New(okSummarizer(), text.Normalizer{}, nil)

		_, err := p.Prepare(context.Background(), Request{InputValue: "https://example.com", Format: FormatURL})

		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}
