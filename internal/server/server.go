// Package server provides the HTTP API for mcpgen.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raopodili/mcpgen/internal/models"
	"github.com/raopodili/mcpgen/internal/orchestrator"
)

// Server exposes the orchestrator over HTTP.
type Server struct {
	service *orchestrator.Service
	addr    string
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *orchestrator.Service, addr string) *Server {
	return &Server{
		service: service,
		addr:    addr,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Sync generation waits for the backend, so the write timeout
		// must cover a full generation round trip.
		WriteTimeout: 10 * time.Minute,
	}

	log.Printf("Starting mcpgen API on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHealth reports backend availability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := s.service.CheckHealth(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !health.Available {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

type generateRequest struct {
	Prompt       string   `json:"prompt"`
	ServiceName  string   `json:"service_name"`
	ContextFiles []string `json:"context_files"`
}

type statusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func taskResponse(task models.Task) statusResponse {
	return statusResponse{
		TaskID: task.ID,
		Status: string(task.State),
		Result: task.Result,
		Reason: task.Reason,
	}
}

// handleGenerate accepts a generation request. With ?sync=true the
// pipeline runs on the request goroutine and the terminal state is
// returned; otherwise the task runs in the background.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt required", http.StatusBadRequest)
		return
	}
	if req.ServiceName == "" {
		http.Error(w, "service_name required", http.StatusBadRequest)
		return
	}

	genReq := models.GenerationRequest{
		Prompt:       req.Prompt,
		ServiceName:  req.ServiceName,
		ContextFiles: req.ContextFiles,
	}

	w.Header().Set("Content-Type", "application/json")

	if r.URL.Query().Get("sync") == "true" {
		task := s.service.SubmitSync(genReq)
		json.NewEncoder(w).Encode(taskResponse(task))
		return
	}

	id := s.service.Submit(genReq)
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Generation task started in background.",
		"task_id": id,
	})
}

// handleStatus handles GET /status/{id}. Unknown identities report the
// unknown state with a 200; status polling is total.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/status/")
	if id == "" {
		http.Error(w, "task id required", http.StatusBadRequest)
		return
	}

	task := s.service.Status(id)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(taskResponse(task))
}

// handleTasks returns a snapshot of all tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tasks := s.service.List()
	if tasks == nil {
		tasks = []models.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

// handleHistory returns recent generation records.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.service.History(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.GenerationRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
