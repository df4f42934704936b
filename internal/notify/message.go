package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/osm-live-updates/internal/replication"
	"github.com/dgnsrekt/osm-live-updates/internal/transport"
)

// maxListedURLs caps how many failed URLs a failure message lists.
const maxListedURLs = 3

// FormatSuccessMessage creates a success notification body.
func FormatSuccessMessage(result *replication.RunResult) string {
	var sb strings.Builder

	if result.UpToDate() {
		sb.WriteString("Already up to date\n")
	} else {
		sb.WriteString(fmt.Sprintf("Sequences: %d..%d\n", result.From, result.To))
	}
	sb.WriteString(fmt.Sprintf("Applied: %d diffs\n", result.Applied))
	sb.WriteString(fmt.Sprintf("Upstream: %d (%s)\n", result.Upstream.SequenceNumber, result.Upstream.Timestamp))
	sb.WriteString(fmt.Sprintf("Duration: %s", result.Duration.Round(time.Second)))

	return sb.String()
}

// FormatFailureMessage creates a failure notification body.
func FormatFailureMessage(result *replication.RunResult, err error) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run: %s\n", result.RunID))
	if result.To >= result.From && result.To > 0 {
		sb.WriteString(fmt.Sprintf("Sequences: %d..%d\n", result.From, result.To))
	}
	sb.WriteString(fmt.Sprintf("Applied: %d diffs\n", result.Applied))
	sb.WriteString(fmt.Sprintf("Duration: %s", result.Duration.Round(time.Second)))

	if err != nil {
		sb.WriteString(fmt.Sprintf("\n\nError: %v", err))
	}

	var batchErr *transport.BatchError
	if errors.As(err, &batchErr) {
		urls := batchErr.URLs()
		sb.WriteString("\n\nFailed URLs:\n")
		limit := min(len(urls), maxListedURLs)
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s\n", urls[i]))
		}
		if len(urls) > maxListedURLs {
			sb.WriteString(fmt.Sprintf("... and %d more", len(urls)-maxListedURLs))
		}
	}

	return sb.String()
}
