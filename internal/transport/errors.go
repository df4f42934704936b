package transport

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyURL = errors.New("empty url")

// TransportError is returned for connection failures and non-2xx responses.
// StatusCode is zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BatchError lists every request of a GetMany call that failed.
type BatchError struct {
	Total  int
	Failed []*TransportError
}

func (e *BatchError) Error() string {
	urls := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		urls = append(urls, f.URL)
	}
	return fmt.Sprintf("batch failed: %d of %d requests failed (%s)", len(e.Failed), e.Total, strings.Join(urls, ", "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// URLs returns the failed request URLs in input order.
func (e *BatchError) URLs() []string {
	urls := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		urls[i] = f.URL
	}
	return urls
}
