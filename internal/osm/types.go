package osm

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/beevik/etree"
)

// TimestampLayout is the upstream state timestamp format.
const TimestampLayout = "2006-01-02T15:04:05Z"

// SyncState is the upstream replication position read from state.txt.
type SyncState struct {
	SequenceNumber int    `json:"sequence_number"`
	Timestamp      string `json:"timestamp"`
}

// Time parses Timestamp as UTC.
func (s SyncState) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, s.Timestamp)
}

func (s SyncState) String() string {
	return fmt.Sprintf("%d@%s", s.SequenceNumber, s.Timestamp)
}

// DiffHandle is a decompressed diff ready for application.
type DiffHandle struct {
	SequenceNumber int
	Path           string
	Content        string
}

// CoordinateLookup resolves an OSM node id to its WKT point.
type CoordinateLookup interface {
	LookupPoint(ctx context.Context, nodeID string) (string, error)
}

// ResolvedNode is a minimal node stub carrying only the geometry of a node
// that a diff references but does not contain.
type ResolvedNode struct {
	ID  string `json:"id"`
	Lon string `json:"lon"`
	Lat string `json:"lat"`
}

// WKT returns the node location as "POINT(lon lat)".
func (n ResolvedNode) WKT() string {
	return fmt.Sprintf("POINT(%s %s)", n.Lon, n.Lat)
}

// XML renders the stub as an OSM node element.
func (n ResolvedNode) XML() string {
	doc := etree.NewDocument()
	el := doc.CreateElement("node")
	el.CreateAttr("id", n.ID)
	el.CreateAttr("lat", n.Lat)
	el.CreateAttr("lon", n.Lon)
	s, _ := doc.WriteToString()
	return s
}

var pointPattern = regexp.MustCompile(`(?i)^\s*POINT\s*\(\s*(\S+)\s+(\S+)\s*\)\s*$`)

// NewResolvedNode builds a stub from a WKT point. Coordinates are kept
// exactly as serialized by the endpoint.
func NewResolvedNode(id, pointWKT string) (ResolvedNode, error) {
	m := pointPattern.FindStringSubmatch(pointWKT)
	if m == nil {
		return ResolvedNode{}, fmt.Errorf("%w: %q", ErrInvalidPoint, pointWKT)
	}
	return ResolvedNode{ID: id, Lon: m[1], Lat: m[2]}, nil
}
