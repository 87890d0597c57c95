package extract

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"text-digest/internal/config"
	"text-digest/internal/domain/entity"
	"text-digest/internal/observability/logging"
	"text-digest/internal/resilience/circuitbreaker"
	"text-digest/internal/usecase/pipeline"
)

// userAgent identifies the fetcher to remote sites.
const userAgent = "TextDigestBot/1.0"

var (
	// ErrInvalidURL indicates a malformed URL or a scheme other than http(s).
	ErrInvalidURL = fmt.Errorf("%w: invalid url", entity.ErrInvalidInput)

	// ErrPrivateIP indicates a host that resolves to a non-public address.
	ErrPrivateIP = fmt.Errorf("%w: url resolves to a private address", entity.ErrInvalidInput)

	// ErrFetchFailed indicates that the remote page could not be retrieved.
	ErrFetchFailed = pipeline.ErrFetchFailed

	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = fmt.Errorf("%w: too many redirects", pipeline.ErrFetchFailed)

	// ErrBodyTooLarge indicates the page exceeded the configured size.
	ErrBodyTooLarge = fmt.Errorf("%w: response body too large", pipeline.ErrFetchFailed)
)

// URLFetcher downloads a web page and returns its readable text.
// Targets and redirect hops are checked against private address ranges when
// DenyPrivateIPs is set.
//
// Thread safety: URLFetcher is safe for concurrent use.
type URLFetcher struct {
	client   *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	cfg      config.FetchConfig
	resolver *net.Resolver
}

// NewURLFetcher creates a fetcher from cfg.
func NewURLFetcher(cfg config.FetchConfig) *URLFetcher {
	cbCfg := circuitbreaker.DefaultConfig("content-fetch")
	cbCfg.MaxRequests = 5
	cbCfg.IsSuccessful = func(err error) bool {
		return circuitbreaker.DefaultIsSuccessful(err) || errors.Is(err, entity.ErrInvalidInput)
	}

	f := &URLFetcher{
		breaker:  circuitbreaker.New(cbCfg),
		cfg:      cfg,
		resolver: net.DefaultResolver,
	}
	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
		Control:   f.dialControl,
	}
	f.client = &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := f.validate(req.Context(), req.URL.String()); err != nil {
				return fmt.Errorf("redirect target: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch downloads rawURL and returns the readable text of the page.
func (f *URLFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.validate(ctx, rawURL); err != nil {
		return "", err
	}

	start := time.Now()
	text, err := circuitbreaker.Do(f.breaker, func() (string, error) {
		return f.fetch(ctx, rawURL)
	})
	logger := logging.FromContext(ctx)
	if err != nil {
		if circuitbreaker.Rejected(err) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		logger.Warn("url fetch failed",
			slog.String("url", rawURL),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return "", err
	}

	logger.Info("url fetched",
		slog.String("url", rawURL),
		slog.Int("text_bytes", len(text)),
		slog.Duration("duration", time.Since(start)))
	return text, nil
}

func (f *URLFetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request exceeded %v", ErrFetchFailed, f.cfg.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			err = urlErr.Err
		}
		if errors.Is(err, entity.ErrInvalidInput) {
			return "", err
		}
		if errors.Is(err, ErrFetchFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.cfg.MaxBodySize)
	}

	return readableText(string(body), resp.Request.URL)
}

// validate checks the scheme and, when configured, the resolved addresses.
func (f *URLFetcher) validate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !f.cfg.DenyPrivateIPs {
		return nil
	}

	addrs, err := f.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: lookup %s: %v", ErrInvalidURL, host, err)
	}
	for _, addr := range addrs {
		if isPrivateIP(addr.IP) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, host, addr.IP)
		}
	}
	return nil
}

// dialControl re-checks the connected address so a DNS answer that changes
// between validation and dial cannot reach a private host.
func (f *URLFetcher) dialControl(_, address string, _ syscall.RawConn) error {
	if !f.cfg.DenyPrivateIPs {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("%w: dial %s", ErrPrivateIP, ip)
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
