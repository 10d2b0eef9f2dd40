package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/lineagekit/lineagekit/internal/export"
	"github.com/lineagekit/lineagekit/internal/graph"
)

func (s *Server) setupRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/tables", s.handleTables)
		r.Get("/groups", s.handleGroups)
		r.Get("/stats", s.handleStats)
		r.Get("/table/{id}", s.handleTableDetails)
		r.Get("/table/{id}/lineage", s.handleTableLineage)
		r.Post("/reload", s.handleReload)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"project": s.project.Dir(),
	})
}

// handleGraph serves the full grouped export, or the lineage subgraph of the
// seed table when ?seed=group.table is given.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.currentGraph(w)
	if !ok {
		return
	}

	if seed := r.URL.Query().Get("seed"); seed != "" {
		out, err := export.Lineage(g, seed)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	writeJSON(w, http.StatusOK, export.Graph(g))
}

type tableEntry struct {
	FullName    string `json:"full_name"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	ColumnCount int    `json:"column_count"`
	Description string `json:"description"`
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	g, ok := s.currentGraph(w)
	if !ok {
		return
	}

	tables := []tableEntry{}
	for _, t := range g.Tables() {
		tables = append(tables, tableEntry{
			FullName:    t.ID(),
			Name:        t.Name,
			Group:       t.Group,
			ColumnCount: len(t.VisibleColumns()),
			Description: t.Description,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_tables": len(tables),
		"tables":       tables,
	})
}

type groupEntry struct {
	Group      string   `json:"group"`
	TableCount int      `json:"table_count"`
	Tables     []string `json:"tables"`
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	g, ok := s.currentGraph(w)
	if !ok {
		return
	}

	groups := []groupEntry{}
	for _, grp := range g.Groups() {
		names := make([]string, 0, len(grp.Tables))
		for _, t := range grp.Tables {
			names = append(names, t.Name)
		}
		sort.Strings(names)
		groups = append(groups, groupEntry{
			Group:      grp.Name,
			TableCount: len(names),
			Tables:     names,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_groups": len(groups),
		"groups":       groups,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.project.Stats())
}

func (s *Server) handleTableDetails(w http.ResponseWriter, r *http.Request) {
	g, ok := s.currentGraph(w)
	if !ok {
		return
	}

	out, err := export.TableDetails(g, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTableLineage(w http.ResponseWriter, r *http.Request) {
	g, ok := s.currentGraph(w)
	if !ok {
		return
	}

	out, err := export.TableLineage(g, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleReload rebuilds the graph from disk. On failure the previous graph
// stays published and the error is reported.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.project.Load(); err != nil {
		s.logger.Error("reload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"stats":  s.project.Stats(),
	})
}

// currentGraph fetches the published graph, reporting 503 when no graph has
// been loaded yet.
func (s *Server) currentGraph(w http.ResponseWriter) (*graph.Graph, bool) {
	g := s.project.Graph()
	if g == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "graph not loaded",
		})
		return nil, false
	}
	return g, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps graph.NotFoundError to 404 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	var notFound *graph.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
