package osm

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Resolver fills in geometry for nodes that a diff only references by id.
type Resolver struct {
	lookup CoordinateLookup
	logger *zap.Logger
}

func NewResolver(lookup CoordinateLookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve looks up every unique id once and returns one stub per id. Either
// all ids resolve or a *DependencyResolutionError is returned with no stubs.
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]ResolvedNode, error) {
	unique := UniqueIDs(ids)
	nodes := make([]ResolvedNode, 0, len(unique))

	for _, id := range unique {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		point, err := r.lookup.LookupPoint(ctx, id)
		if err != nil {
			r.logger.Error("could not get location for node", zap.String("node", id), zap.Error(err))
			return nil, &DependencyResolutionError{NodeID: id, Err: err}
		}

		node, err := NewResolvedNode(id, point)
		if err != nil {
			r.logger.Error("invalid location for node", zap.String("node", id), zap.String("point", point))
			return nil, &DependencyResolutionError{NodeID: id, Err: err}
		}
		nodes = append(nodes, node)
	}

	r.logger.Debug("resolved node locations", zap.Int("requested", len(ids)), zap.Int("resolved", len(nodes)))
	return nodes, nil
}

// UniqueIDs drops duplicates and returns the ids in sorted order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
