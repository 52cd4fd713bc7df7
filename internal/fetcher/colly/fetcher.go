// Package collyfetcher fetches agency pages with a gocolly collector, retrying
// transport failures with exponential backoff and pausing politely after each
// successful request.
package collyfetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/metrics"
)

// Default header values sent with every request.
const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/123.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.9"
)

// ErrFetchFailed is returned when no attempt was made at all.
var ErrFetchFailed = errors.New("fetch failed")

// HTTPStatusError reports a response with status >= 400. It is never retried.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Config controls collector behavior.
type Config struct {
	UserAgent       string
	Accept          string
	AcceptLanguage  string
	Timeout         time.Duration
	MaxRetries      int
	Backoff         float64
	PolitenessDelay time.Duration
	// Transport overrides the HTTP transport; nil uses a pooled default.
	Transport http.RoundTripper
}

// Result is the raw outcome of a successful request.
type Result struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Fetcher issues GET requests through a Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	pauser        Pauser
	logger        *zap.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithPauser replaces the timer used for backoff and politeness waits.
func WithPauser(p Pauser) Option {
	return func(f *Fetcher) {
		if p != nil {
			f.pauser = p
		}
	}
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Accept == "" {
		cfg.Accept = DefaultAccept
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = DefaultAcceptLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.UserAgent = cfg.UserAgent
	// Status codes are surfaced to the caller instead of being turned into errors.
	c.ParseHTTPErrorResponse = true
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(cfg.Timeout)
	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	c.WithTransport(transport)

	f := &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		pauser:        timerPauser{},
		logger:        logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET, retrying transport failures up to MaxRetries times.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		res, err := f.visit(ctx, rawURL)
		if err == nil {
			metrics.ObserveFetch(rawURL, outcomeFor(res.StatusCode), len(res.Body))
			f.logger.Debug("fetched page",
				zap.String("url", rawURL),
				zap.Int("status_code", res.StatusCode),
				zap.Int("bytes", len(res.Body)),
				zap.Int("attempt", attempt),
			)
			if err := f.pauser.Pause(ctx, f.cfg.PolitenessDelay); err != nil {
				return Result{}, fmt.Errorf("politeness delay for %s: %w", rawURL, err)
			}
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", rawURL, ctxErr)
		}

		lastErr = err
		metrics.ObserveFetch(rawURL, metrics.OutcomeTransportError, 0)
		f.logger.Warn("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", f.cfg.MaxRetries),
			zap.Error(err),
		)
		if attempt == f.cfg.MaxRetries {
			break
		}
		metrics.ObserveRetry(rawURL)
		if err := f.pauser.Pause(ctx, f.backoff(attempt)); err != nil {
			return Result{}, fmt.Errorf("backoff for %s: %w", rawURL, err)
		}
	}
	if lastErr != nil {
		return Result{}, fmt.Errorf("fetch %s after %d attempts: %w", rawURL, f.cfg.MaxRetries, lastErr)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrFetchFailed, rawURL)
}

// Document fetches rawURL and parses it. Responses with status >= 400 yield
// an *HTTPStatusError.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	res, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: res.StatusCode}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if u, perr := url.Parse(res.FinalURL); perr == nil {
		doc.Url = u
	}
	return doc, nil
}

// backoff returns Backoff^attempt seconds.
func (f *Fetcher) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(f.cfg.Backoff, float64(attempt)) * float64(time.Second))
}

func (f *Fetcher) visit(ctx context.Context, rawURL string) (Result, error) {
	var (
		result   Result
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	// Bind the request to ctx so cancellation also stops the in-flight Visit.
	collector.Context = ctx
	collector.ParseHTTPErrorResponse = true
	collector.AllowURLRevisit = true
	f.configureCollectorHooks(collector, rawURL, &result, &fetchErr)
	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, rawURL string, result *Result, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.cfg.UserAgent)
		r.Headers.Set("Accept", f.cfg.Accept)
		r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
	})

	hooks.OnResponse(func(r *colly.Response) {
		finalURL := rawURL
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		*result = Result{
			URL:        rawURL,
			FinalURL:   finalURL,
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func outcomeFor(status int) string {
	if status >= http.StatusBadRequest {
		return metrics.OutcomeHTTPError
	}
	return metrics.OutcomeOK
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
