package sparql

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/transport"
	"github.com/dgnsrekt/osm-live-updates/internal/xmltree"
)

// Client runs read queries against a SPARQL endpoint over HTTP GET.
type Client struct {
	endpoint string
	http     transport.Client
	logger   *zap.Logger
}

func NewClient(endpoint string, httpClient transport.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		logger:   logger,
	}
}

// QueryURL builds the GET url for a query with its prefix block.
func (c *Client) QueryURL(prefixes, query string) string {
	params := url.Values{}
	params.Set("query", strings.TrimSpace(prefixes+"\n"+query))

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep + params.Encode()
}

// Query executes query and returns the raw SPARQL XML result document.
func (c *Client) Query(ctx context.Context, prefixes, query string) (string, error) {
	body, err := c.http.Get(ctx, c.QueryURL(prefixes, query))
	if err != nil {
		return "", fmt.Errorf("running sparql query: %w", err)
	}
	return string(body), nil
}

// LookupPoint returns the WKT location stored for an OSM node. A response
// without a location yields a *xmltree.PathNotFoundError.
func (c *Client) LookupPoint(ctx context.Context, nodeID string) (string, error) {
	if !validNodeID(nodeID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNodeID, nodeID)
	}

	c.logger.Debug("looking up node location", zap.String("node", nodeID))

	response, err := c.Query(ctx, NodeLocationPrefixes(), NodeLocationQuery(nodeID))
	if err != nil {
		return "", err
	}

	point, err := xmltree.ParseAttributeValue(response, LocationResultPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(point), nil
}
