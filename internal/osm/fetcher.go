package osm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/cache"
	"github.com/dgnsrekt/osm-live-updates/internal/decompress"
	"github.com/dgnsrekt/osm-live-updates/internal/transport"
	"github.com/dgnsrekt/osm-live-updates/internal/xmltree"
)

const (
	nodeReferenceTag       = "nd"
	nodeReferenceAttribute = "ref"
)

var (
	sequenceNumberPattern = regexp.MustCompile(`(?m)^sequenceNumber=(\d+)[ \t\r]*$`)
	timestampPattern      = regexp.MustCompile(`(?m)^timestamp=([0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}Z)[ \t\r]*$`)
)

type FetcherConfig struct {
	DatabaseURL string // replication directory holding state.txt and the diffs
	NodeURL     string // node endpoint, e.g. https://www.openstreetmap.org/api/0.6/node
}

// Fetcher reads the replication feed and resolves node dependencies.
type Fetcher struct {
	config   FetcherConfig
	http     transport.Client
	cache    *cache.Store
	resolver *Resolver
	logger   *zap.Logger
}

func NewFetcher(cfg FetcherConfig, httpClient transport.Client, store *cache.Store, lookup CoordinateLookup, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		config:   cfg,
		http:     httpClient,
		cache:    store,
		resolver: NewResolver(lookup, logger),
		logger:   logger,
	}
}

func (f *Fetcher) StateURL() string {
	return BuildURL(f.config.DatabaseURL, StateFile)
}

func (f *Fetcher) DiffURL(sequenceNumber int) (string, error) {
	formatted, err := FormatSequenceNumber(sequenceNumber)
	if err != nil {
		return "", err
	}
	return BuildURL(f.config.DatabaseURL, formatted+cache.DiffExtension), nil
}

// SequenceStateURL is the state file published next to each diff.
func (f *Fetcher) SequenceStateURL(sequenceNumber int) (string, error) {
	formatted, err := FormatSequenceNumber(sequenceNumber)
	if err != nil {
		return "", err
	}
	return BuildURL(f.config.DatabaseURL, formatted+"."+StateFile), nil
}

func (f *Fetcher) NodeURL(id string) string {
	return BuildURL(f.config.NodeURL, id)
}

// FetchCurrentState reads the latest upstream sequence number and timestamp.
func (f *Fetcher) FetchCurrentState(ctx context.Context) (SyncState, error) {
	body, err := f.http.Get(ctx, f.StateURL())
	if err != nil {
		return SyncState{}, fmt.Errorf("fetching state file: %w", err)
	}

	state, err := ParseState(string(body))
	if err != nil {
		return SyncState{}, err
	}

	f.logger.Debug("fetched upstream state",
		zap.Int("sequenceNumber", state.SequenceNumber),
		zap.String("timestamp", state.Timestamp),
	)
	return state, nil
}

// FetchStateForSequence reads the state file of a single diff, which
// carries the timestamp that diff brings the database up to.
func (f *Fetcher) FetchStateForSequence(ctx context.Context, sequenceNumber int) (SyncState, error) {
	url, err := f.SequenceStateURL(sequenceNumber)
	if err != nil {
		return SyncState{}, err
	}

	body, err := f.http.Get(ctx, url)
	if err != nil {
		return SyncState{}, fmt.Errorf("fetching state for sequence %d: %w", sequenceNumber, err)
	}
	return ParseState(string(body))
}

// ParseState extracts sequenceNumber and timestamp from state.txt content.
// Both fields are required.
func ParseState(text string) (SyncState, error) {
	// state.txt is a Java properties file, which escapes colons as "\:"
	text = strings.ReplaceAll(text, `\:`, ":")

	m := sequenceNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return SyncState{}, ErrSequenceNumberNotFound
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return SyncState{}, fmt.Errorf("%w: %v", ErrInvalidSequenceNumber, err)
	}

	ts := timestampPattern.FindStringSubmatch(text)
	if ts == nil {
		return SyncState{}, ErrTimestampNotFound
	}

	return SyncState{SequenceNumber: seq, Timestamp: ts[1]}, nil
}

// FetchDiff downloads the diff for sequenceNumber into the cache and
// returns its path. The file stays compressed.
func (f *Fetcher) FetchDiff(ctx context.Context, sequenceNumber int) (string, error) {
	url, err := f.DiffURL(sequenceNumber)
	if err != nil {
		return "", err
	}

	path := f.cache.DiffPath(sequenceNumber)
	if f.cache.Exists(sequenceNumber) {
		f.logger.Debug("replacing cached diff", zap.String("path", path))
	}
	size, err := f.cache.Download(ctx, f.http, url, path)
	if err != nil {
		return "", fmt.Errorf("fetching diff %d: %w", sequenceNumber, err)
	}

	f.logger.Info("fetched diff",
		zap.Int("sequenceNumber", sequenceNumber),
		zap.String("path", path),
		zap.Int64("bytes", size),
	)
	return path, nil
}

// LoadDiff fetches and decompresses the diff for sequenceNumber.
func (f *Fetcher) LoadDiff(ctx context.Context, sequenceNumber int) (*DiffHandle, error) {
	path, err := f.FetchDiff(ctx, sequenceNumber)
	if err != nil {
		return nil, err
	}

	content, err := decompress.File(path)
	if err != nil {
		return nil, err
	}

	return &DiffHandle{
		SequenceNumber: sequenceNumber,
		Path:           path,
		Content:        content,
	}, nil
}

// FetchNode returns the upstream representation of a node, narrowed to the
// node element when extractElement is set.
func (f *Fetcher) FetchNode(ctx context.Context, id string, extractElement bool) (string, error) {
	body, err := f.http.Get(ctx, f.NodeURL(id))
	if err != nil {
		return "", fmt.Errorf("fetching node %s: %w", id, err)
	}

	if !extractElement {
		return string(body), nil
	}

	node, err := xmltree.ReadNodeElement(string(body))
	if err != nil {
		return "", fmt.Errorf("reading node %s: %w", id, err)
	}
	return node, nil
}

// FetchNodes fetches all nodes concurrently. The i-th result is the node
// element for ids[i].
func (f *Fetcher) FetchNodes(ctx context.Context, ids []string) ([]string, error) {
	urls := make([]string, len(ids))
	for i, id := range ids {
		urls[i] = f.NodeURL(id)
	}

	bodies, err := f.http.GetMany(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("fetching %d nodes: %w", len(ids), err)
	}

	nodes := make([]string, len(bodies))
	for i, body := range bodies {
		node, err := xmltree.ReadNodeElement(string(body))
		if err != nil {
			return nil, fmt.Errorf("reading node %s: %w", ids[i], err)
		}
		nodes[i] = node
	}
	return nodes, nil
}

// FetchNodeReferencesForWay resolves the location of every node the way
// references. Way elements in a diff carry node ids only, so the locations
// come from the coordinate lookup rather than the replication server.
func (f *Fetcher) FetchNodeReferencesForWay(ctx context.Context, way *etree.Element) ([]ResolvedNode, error) {
	ids, err := NodeReferences(way)
	if err != nil {
		return nil, err
	}
	return f.resolver.Resolve(ctx, ids)
}

// FetchNodeReferencesForWayXML parses text and resolves the first way in it.
func (f *Fetcher) FetchNodeReferencesForWayXML(ctx context.Context, text string) ([]ResolvedNode, error) {
	doc, err := xmltree.Parse(text)
	if err != nil {
		return nil, err
	}

	way := doc.Root()
	if way.Tag != "way" {
		way = doc.FindElement("//way")
	}
	if way == nil {
		return nil, ErrNoWayElement
	}
	return f.FetchNodeReferencesForWay(ctx, way)
}

// NodeReferences collects the unique node ids referenced by a way's nd children.
func NodeReferences(way *etree.Element) ([]string, error) {
	if way == nil {
		return nil, ErrNoWayElement
	}

	var ids []string
	for _, child := range way.ChildElements() {
		if child.Tag != nodeReferenceTag {
			continue
		}
		id, err := xmltree.ReadAttribute(nodeReferenceAttribute, child)
		if err != nil {
			return nil, fmt.Errorf("reading node reference of way %s: %w", way.SelectAttrValue("id", "?"), err)
		}
		ids = append(ids, id)
	}
	return UniqueIDs(ids), nil
}
