package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/history"
	"github.com/dgnsrekt/osm-live-updates/internal/osm"
	"github.com/dgnsrekt/osm-live-updates/internal/xmltree"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// StateSource reads the upstream replication position.
type StateSource interface {
	FetchCurrentState(ctx context.Context) (osm.SyncState, error)
}

// HistoryReader lists applied sequence numbers.
type HistoryReader interface {
	Latest(ctx context.Context) (*history.Entry, error)
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// NodeResolver resolves node geometry.
type NodeResolver interface {
	Resolve(ctx context.Context, ids []string) ([]osm.ResolvedNode, error)
}

type Server struct {
	state    StateSource
	history  HistoryReader
	resolver NodeResolver
	logger   *zap.Logger
}

func NewServer(state StateSource, hist HistoryReader, resolver NodeResolver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		state:    state,
		history:  hist,
		resolver: resolver,
		logger:   logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type locationResponse struct {
	osm.ResolvedNode
	WKT string `json:"wkt"`
}

func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.state.FetchCurrentState(r.Context())
	if err != nil {
		s.logger.Warn("reading upstream state failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) GetLatestHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.history.Latest(r.Context())
	if errors.Is(err, history.ErrNoHistory) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) GetNodeLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "node id must be numeric"})
		return
	}

	nodes, err := s.resolver.Resolve(r.Context(), []string{id})
	if err != nil {
		if xmltree.IsPathNotFound(err) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.logger.Warn("node lookup failed", zap.String("nodeID", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if len(nodes) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "node not found"})
		return
	}

	writeJSON(w, http.StatusOK, locationResponse{ResolvedNode: nodes[0], WKT: nodes[0].WKT()})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
