package sparql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/transport"
	"github.com/dgnsrekt/osm-live-updates/internal/xmltree"
)

const locationResponse = `<?xml version="1.0"?>
<sparql xmlns="http://www.w3.org/2005/sparql-results#">
  <head><variable name="location"/></head>
  <results>
    <result>
      <binding name="location"><literal>POINT(13.3777 52.5163)</literal></binding>
    </result>
  </results>
</sparql>`

const emptyResponse = `<?xml version="1.0"?>
<sparql xmlns="http://www.w3.org/2005/sparql-results#">
  <head><variable name="location"/></head>
  <results></results>
</sparql>`

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	hc := transport.NewClient(transport.Options{Timeout: 5 * time.Second, Accept: AcceptResultsXML}, zap.NewNop())
	return NewClient(endpoint, hc, zap.NewNop())
}

func TestNodeLocationQuery(t *testing.T) {
	q := NodeLocationQuery("240109189")
	assert.Contains(t, q, "osmnode:240109189 geo:hasGeometry ?geometry")
	assert.Contains(t, q, "geo:asWKT ?location")

	prefixes := NodeLocationPrefixes()
	assert.Contains(t, prefixes, "PREFIX osmnode: <https://www.openstreetmap.org/node/>")
	assert.Contains(t, prefixes, "PREFIX geo: <http://www.opengis.net/ont/geosparql#>")
}

func TestQueryURL(t *testing.T) {
	c := NewClient("https://example.org/api/osm", nil, nil)
	u := c.QueryURL("PREFIX a: <x>", "SELECT * WHERE {}")
	assert.True(t, strings.HasPrefix(u, "https://example.org/api/osm?query="))

	c = NewClient("https://example.org/api?format=xml", nil, nil)
	u = c.QueryURL("", "SELECT * WHERE {}")
	assert.True(t, strings.HasPrefix(u, "https://example.org/api?format=xml&query="))
}

func TestLookupPoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if accept := r.Header.Get("Accept"); accept != AcceptResultsXML {
			t.Errorf("unexpected Accept header %q", accept)
		}
		query := r.URL.Query().Get("query")
		if !strings.Contains(query, "osmnode:42 ") {
			t.Errorf("query does not reference node 42: %s", query)
		}
		if !strings.Contains(query, "PREFIX geo:") {
			t.Errorf("query misses prefixes: %s", query)
		}
		_, _ = w.Write([]byte(locationResponse))
	}))
	defer server.Close()

	point, err := newTestClient(t, server.URL).LookupPoint(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "POINT(13.3777 52.5163)", point)
}

func TestLookupPoint_NoLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptyResponse))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).LookupPoint(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, xmltree.IsPathNotFound(err))
}

func TestLookupPoint_EndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).LookupPoint(context.Background(), "9")
	require.Error(t, err)
	assert.False(t, xmltree.IsPathNotFound(err))
}

func TestLookupPoint_RejectsNonNumericID(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(locationResponse))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	for _, id := range []string{"", "1 } UNION { ?s ?p ?o", "12a", "-5"} {
		_, err := c.LookupPoint(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidNodeID, id)
	}
	assert.Zero(t, requests)
}
