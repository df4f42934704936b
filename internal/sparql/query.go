package sparql

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNodeID is returned for ids that are not positive decimal integers.
var ErrInvalidNodeID = errors.New("invalid node id")

// LocationResultPath is where a node location query puts its WKT literal.
const LocationResultPath = "sparql/results/result/binding/literal"

var nodeLocationPrefixes = []string{
	"PREFIX osmnode: <https://www.openstreetmap.org/node/>",
	"PREFIX geo: <http://www.opengis.net/ont/geosparql#>",
}

// NodeLocationPrefixes returns the prefix block required by NodeLocationQuery.
func NodeLocationPrefixes() string {
	return strings.Join(nodeLocationPrefixes, "\n")
}

// NodeLocationQuery selects the WKT point of a single OSM node.
func NodeLocationQuery(nodeID string) string {
	return fmt.Sprintf("SELECT ?location WHERE { osmnode:%s geo:hasGeometry ?geometry . ?geometry geo:asWKT ?location . }", nodeID)
}

// AcceptResultsXML is the media type the location lookups expect.
const AcceptResultsXML = "application/sparql-results+xml"

// validNodeID reports whether id is safe to place in a query as a prefixed name.
func validNodeID(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
