// Package api provides the HTTP API for observing a completed run.
// All endpoints are read-only GETs; the run state they serve is
// immutable once the admission loop finishes.
// See design doc Section 7.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hansalabs/wardsim/internal/engine"
	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
	"github.com/hansalabs/wardsim/internal/persistence"
)

// Server serves a finished run over HTTP.
type Server struct {
	Sim      *engine.Simulation
	DB       *persistence.DB // nil when the admissions log is disabled
	Facility string
	Addr     string
}

// Handler builds the route table. Split out of Start so tests can mount
// it on httptest servers.
func (s *Server) Handler() http.Handler {
	resolveLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/patients", s.handlePatients)
	mux.HandleFunc("/api/v1/patients/", s.handlePatientDetail)
	mux.HandleFunc("/api/v1/roster", s.handleRoster)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/careteams", s.handleCareTeams)
	mux.HandleFunc("/api/v1/facts", s.handleFacts)
	mux.HandleFunc("/api/v1/resolve", RateLimitMiddleware(resolveLimiter, s.handleResolve))
	mux.HandleFunc("/api/v1/runs", s.handleRuns)

	return corsMiddleware(methodGuard(mux))
}

// methodGuard rejects anything but GET; the observe surface has no
// write endpoints. CORS preflight is answered upstream.
func methodGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET, OPTIONS")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	handler := s.Handler()
	slog.Info("HTTP API starting", "addr", s.Addr, "run_id", s.Sim.RunID)

	go func() {
		if err := http.ListenAndServe(s.Addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set WARDSIM_CORS_ORIGINS to a comma-separated list of allowed
// origins. Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("WARDSIM_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"facility":      s.Facility,
		"run_id":        s.Sim.RunID,
		"seed":          s.Sim.Seed,
		"steps":         s.Sim.Steps,
		"admitted":      s.Sim.Stats.Admitted,
		"resolved_full": s.Sim.Stats.ResolvedFull,
		"roster_size":   s.Sim.Roster.Size(),
		"fact_source":   s.Sim.KB.Source(),
		"fact_count":    s.Sim.KB.FactCount(),
		"started_at":    s.Sim.StartedAt,
		"finished_at":   s.Sim.FinishedAt,
		"elapsed":       s.Sim.Elapsed().String(),
	}
	writeJSON(w, status)
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	type patientSummary struct {
		ID        hospital.AgentID `json:"id"`
		MRN       string           `json:"mrn"`
		Disease   string           `json:"disease"`
		Treatment string           `json:"treatment"`
		Doctor    string           `json:"doctor"`
		Nurse     string           `json:"nurse"`
		Ward      string           `json:"ward"`
		Step      int              `json:"step"`
		Resolved  bool             `json:"resolved"`
	}

	result := make([]patientSummary, 0, len(s.Sim.Patients))
	for _, p := range s.Sim.Patients {
		result = append(result, patientSummary{
			ID:        p.ID,
			MRN:       p.MRN,
			Disease:   p.Disease,
			Treatment: p.Treatment.Object,
			Doctor:    p.Doctor.Object,
			Nurse:     p.Nurse.Object,
			Ward:      p.Ward.Object,
			Step:      p.AdmittedStep,
			Resolved:  p.FullyResolved(),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handlePatientDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing patient id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}

	p, ok := s.Sim.PatientIndex[hospital.AgentID(id)]
	if !ok {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}

	writeJSON(w, p)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"size":    s.Sim.Roster.Size(),
		"doctors": s.Sim.Roster.Doctors,
		"nurses":  s.Sim.Roster.Nurses,
		"wards":   s.Sim.Roster.Wards,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.Events

	// Optional category filter ("admission", "oncall", "unresolved").
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}

	writeJSON(w, events[start:])
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats)
}

func (s *Server) handleCareTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.KB.CareTeams())
}

// handleFacts lists the base fact pairs per relation.
func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	facts := make(map[string][]ontology.FactPair, len(ontology.Relations))
	for _, rel := range ontology.Relations {
		facts[rel.Predicate()] = s.Sim.KB.Facts(rel)
	}
	writeJSON(w, facts)
}

// handleResolve answers a single chain lookup. Lookup misses are a
// normal outcome, not an error status.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	rel, ok := ontology.ParseRelation(r.URL.Query().Get("relation"))
	if !ok {
		http.Error(w, "unknown relation (want treatment, doctor, nurse, or ward)", http.StatusBadRequest)
		return
	}
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "missing subject", http.StatusBadRequest)
		return
	}

	res := s.Sim.KB.Resolve(rel, subject)
	writeJSON(w, map[string]any{
		"relation": rel.String(),
		"subject":  res.Subject,
		"object":   res.Object,
		"found":    res.Found,
		"text":     res.String(),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "admissions log disabled", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := s.DB.RecentRuns(limit)
	if err != nil {
		http.Error(w, "query runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
