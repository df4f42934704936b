package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/replication"
)

// Notifier is the interface for sending sync run notifications.
type Notifier interface {
	SendSuccess(ctx context.Context, result *replication.RunResult) error
	SendFailure(ctx context.Context, result *replication.RunResult, err error) error
}

const notifyTimeout = 30 * time.Second

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: notifyTimeout,
		},
		config: cfg,
		logger: logger,
	}
}

// SendSuccess sends a success notification.
func (c *Client) SendSuccess(ctx context.Context, result *replication.RunResult) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("OSM Sync Complete: %d", result.Upstream.SequenceNumber)
	message := FormatSuccessMessage(result)
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

// SendFailure sends a failure notification.
func (c *Client) SendFailure(ctx context.Context, result *replication.RunResult, err error) error {
	if !c.config.Enabled {
		return nil
	}

	title := "OSM Sync Failed"
	if result.Applied > 0 {
		title = fmt.Sprintf("OSM Sync Failed after %d", result.From+result.Applied-1)
	}
	message := FormatFailureMessage(result, err)
	tags := c.config.Tags + ",x"
	priority := "high" // Override to high priority for failures

	return c.send(ctx, title, message, tags, priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendSuccess is a no-op.
func (n *NoopNotifier) SendSuccess(_ context.Context, _ *replication.RunResult) error {
	return nil
}

// SendFailure is a no-op.
func (n *NoopNotifier) SendFailure(_ context.Context, _ *replication.RunResult, _ error) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}

// Report sends the notification matching a run outcome. Runs that found
// nothing to apply are not reported.
func Report(ctx context.Context, n Notifier, result *replication.RunResult, runErr error) error {
	if result == nil {
		result = &replication.RunResult{}
	}
	if runErr != nil {
		return n.SendFailure(ctx, result, runErr)
	}
	if result.UpToDate() {
		return nil
	}
	return n.SendSuccess(ctx, result)
}
