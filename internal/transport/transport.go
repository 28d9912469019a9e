// Package transport binds internal/service.Service to the network. The
// spec's wire protocol is an out-of-scope remote-procedure interface (§1);
// without a protoc toolchain available, this package substitutes a thin
// HTTP+JSON binding that exposes the same operations over net/http — one
// route (path plus method) per spec §4.5 operation, each reading/writing
// JSON. Grounded on
// the teacher's habit of keeping transport code a thin adapter over an
// application-layer service (cmd/streamy's use-case calls), generalized
// from an in-process CLI call to a networked handler.
package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/forgerun/runnerd/internal/domain/plan"
	"github.com/forgerun/runnerd/internal/logging"
	"github.com/forgerun/runnerd/internal/service"
)

// Server exposes a Service over HTTP.
type Server struct {
	svc    *service.Service
	logger logging.Logger
	mux    *http.ServeMux
}

// NewServer builds an http.Handler wrapping svc's operations.
func NewServer(svc *service.Service, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/v1/plan-sets", s.handleListPlanSets)
	s.mux.HandleFunc("/v1/plan-sets/", s.handlePlanSetScoped)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunScoped)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// handleListPlanSets serves GET /v1/plan-sets (listPlanSets).
func (s *Server) handleListPlanSets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sets, err := s.svc.ListPlanSets(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

// handlePlanSetScoped serves:
//
//	GET  /v1/plan-sets/{set}          (listPlans)
//	GET  /v1/plan-sets/{set}/{plan}   (listPlan)
func (s *Server) handlePlanSetScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/plan-sets/"), "/"), "/")
	switch len(parts) {
	case 1:
		plans, err := s.svc.ListPlans(r.Context(), parts[0])
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, plans)
	case 2:
		records, err := s.svc.ListPlan(r.Context(), parts[0], parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	default:
		http.NotFound(w, r)
	}
}

// handleRuns serves:
//
//	GET  /v1/runs        (showPlans)
//	POST /v1/runs        (execute)
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		keys, err := s.svc.ShowPlans(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, keys)
	case http.MethodPost:
		var req struct {
			Set  string `json:"set"`
			Plan string `json:"plan"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		key, err := s.svc.Execute(r.Context(), req.Set, req.Plan)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, struct {
				Error string      `json:"error"`
				RunID plan.RunKey `json:"run"`
			}{Error: err.Error(), RunID: key})
			return
		}
		writeJSON(w, http.StatusAccepted, key)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRunScoped serves:
//
//	GET    /v1/runs/{id}           (showStatus)
//	DELETE /v1/runs/{id}           (dumpHist)
//	DELETE /v1/runs/all            (dumpHistAll)
func (s *Server) handleRunScoped(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/v1/runs/")

	if idStr == "all" && r.Method == http.MethodDelete {
		archived, failures, err := s.svc.DumpHistAll(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Archived []plan.RunKey `json:"archived"`
			Failed   int           `json:"failed"`
		}{Archived: archived, Failed: len(failures)})
		return
	}

	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		lines, err := s.svc.ShowStatus(r.Context(), uint32(id))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, lines)
	case http.MethodDelete:
		if err := s.svc.DumpHist(r.Context(), uint32(id)); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, struct{ OK bool }{OK: true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
