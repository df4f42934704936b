package config

import (
	"fmt"
	"net/url"
	"strings"
)

// InvalidField is a single rejected configuration value.
type InvalidField struct {
	Key    string
	Value  string
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []InvalidField
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationErrors) add(key, value, reason string) {
	e.Fields = append(e.Fields, InvalidField{Key: key, Value: value, Reason: reason})
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s=%q: %s\n", f.Key, f.Value, f.Reason))
	}
	return sb.String()
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	validateURL(errs, "osm.database_url", c.OSM.DatabaseURL)
	validateURL(errs, "osm.node_url", c.OSM.NodeURL)
	validateURL(errs, "sparql.endpoint_url", c.SPARQL.EndpointURL)

	if c.HTTP.TimeoutSec < 1 {
		errs.add("http.timeout_sec", fmt.Sprint(c.HTTP.TimeoutSec), "must be >= 1")
	}
	if c.HTTP.RatePerSecond < 0 {
		errs.add("http.rate_per_second", fmt.Sprint(c.HTTP.RatePerSecond), "must be >= 0 (0 disables pacing)")
	}
	if c.HTTP.BatchConcurrency < 1 {
		errs.add("http.batch_concurrency", fmt.Sprint(c.HTTP.BatchConcurrency), "must be >= 1")
	}
	if c.Cache.Directory == "" {
		errs.add("cache.directory", "", "is required")
	}
	if c.Sync.HistoryPath == "" {
		errs.add("sync.history_path", "", "is required")
	}
	if c.Sync.MaxDiffs < 0 {
		errs.add("sync.max_diffs", fmt.Sprint(c.Sync.MaxDiffs), "must be >= 0 (0 means unlimited)")
	}
	if c.Logging.Level != "" && !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs.add("logging.level", c.Logging.Level, "must be one of debug, info, warn, error")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateURL(errs *ValidationErrors, key, value string) {
	if value == "" {
		errs.add(key, value, "is required")
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.add(key, value, "must be an absolute http(s) url")
	}
}
