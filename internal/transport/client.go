package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "osm-live-updates"

// Client interface for testability
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
	GetMany(ctx context.Context, urls []string) ([][]byte, error)
	Download(ctx context.Context, url string, dest io.Writer) (int64, error)
}

type Options struct {
	Timeout          time.Duration
	RatePerSecond    int
	BatchConcurrency int
	UserAgent        string
	Accept           string
}

type HTTPClient struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	concurrency int
	userAgent   string
	accept      string
	logger      *zap.Logger
}

// Compile-time interface verification
var _ Client = (*HTTPClient)(nil)

func NewClient(opts Options, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    16,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	// A zero rate disables pacing entirely.
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RatePerSecond*2)
	}

	concurrency := opts.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		limiter:     limiter,
		concurrency: concurrency,
		userAgent:   userAgent,
		accept:      opts.Accept,
		logger:      logger,
	}
}

// Get performs a single request and returns the whole body. Failures are
// not retried here.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}

	return body, nil
}

// GetMany fetches all urls concurrently and returns the bodies in input
// order. If any request fails the remaining ones are cancelled and no bodies
// are returned.
func (c *HTTPClient) GetMany(ctx context.Context, urls []string) ([][]byte, error) {
	bodies := make([][]byte, len(urls))
	if len(urls) == 0 {
		return bodies, nil
	}

	var (
		mu      sync.Mutex
		errs    = make([]error, len(urls))
		aborted = make([]bool, len(urls))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			body, err := c.Get(gctx, url)
			if err != nil {
				mu.Lock()
				errs[i] = err
				aborted[i] = abortedBySibling(gctx, err)
				mu.Unlock()
				return err
			}
			bodies[i] = body
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		batchErr := &BatchError{Total: len(urls)}
		var cancelled []*TransportError
		for i, e := range errs {
			if e == nil {
				continue
			}
			var te *TransportError
			if !errors.As(e, &te) {
				te = &TransportError{URL: urls[i], Err: e}
			}
			if ctx.Err() == nil && aborted[i] {
				cancelled = append(cancelled, te)
				continue
			}
			batchErr.Failed = append(batchErr.Failed, te)
		}
		if len(batchErr.Failed) == 0 {
			batchErr.Failed = cancelled
		}
		c.logger.Warn("batch request failed",
			zap.Int("total", len(urls)),
			zap.Strings("failed", batchErr.URLs()),
		)
		return nil, batchErr
	}

	c.logger.Debug("batch request complete", zap.Int("count", len(urls)))
	return bodies, nil
}

// abortedBySibling reports whether err only came from the batch context
// being cancelled after another request failed. net/http reports such
// aborts with the cancellation cause, which is the sibling's error.
func abortedBySibling(gctx context.Context, err error) bool {
	if gctx.Err() == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode != 0 {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.Cause(gctx))
}

// Download streams the response body of url into dest.
func (c *HTTPClient) Download(ctx context.Context, url string, dest io.Writer) (int64, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(dest, resp.Body)
	if err != nil {
		return n, &TransportError{URL: url, Err: fmt.Errorf("streaming body: %w", err)}
	}
	return n, nil
}

// do returns a response with a 2xx status; the caller closes the body.
func (c *HTTPClient) do(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, &TransportError{URL: url, Err: ErrEmptyURL}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	c.logger.Debug("requesting", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.accept != "" {
		req.Header.Set("Accept", c.accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain response body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}
