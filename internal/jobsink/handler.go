// Package jobsink is a local stand-in for the cluster job service. It accepts
// and records job descriptions and never runs them.
package jobsink

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/psantana5/clusterlambda/internal/logging"
	"github.com/psantana5/clusterlambda/pkg/models"
)

const maxBodyBytes = 1 << 20

// Handler serves the job API
type Handler struct {
	store    *MemoryStore
	logger   *logging.Logger
	received *prometheus.CounterVec
	now      func() time.Time
}

// NewHandler creates a handler and registers its metrics with reg
func NewHandler(store *MemoryStore, logger *logging.Logger, reg prometheus.Registerer) (*Handler, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clambda_jobsink_jobs_received_total",
		Help: "Job descriptions received by result",
	}, []string{"result"})
	if err := reg.Register(received); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}

	return &Handler{
		store:    store,
		logger:   logger.WithComponent("jobsink"),
		received: received,
		now:      time.Now,
	}, nil
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	r.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

// ValidateDescription checks what the service needs to stage a job: an entry
// point and at least one artifact, every path absolute and listed once.
func ValidateDescription(desc *models.JobDescription) error {
	if desc.EntryPoint == "" {
		return errors.New("entry_point is required")
	}
	if len(desc.ArtifactPaths) == 0 {
		return errors.New("artifact_paths must not be empty")
	}
	seen := make(map[string]bool, len(desc.ArtifactPaths))
	for i, p := range desc.ArtifactPaths {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("artifact_paths[%d] is not absolute: %q", i, p)
		}
		if seen[p] {
			return fmt.Errorf("artifact_paths[%d] is listed twice: %q", i, p)
		}
		seen[p] = true
	}
	return nil
}

// CreateJob records a job description and returns its receipt
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var desc models.JobDescription
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&desc); err != nil {
		h.received.WithLabelValues(string(models.JobStatusRejected)).Inc()
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := ValidateDescription(&desc); err != nil {
		h.received.WithLabelValues(string(models.JobStatusRejected)).Inc()
		h.logger.Warn("Rejected job description", logging.Fields{"error": err.Error()})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &models.SubmittedJob{
		ID:          uuid.New().String(),
		Description: desc,
		Status:      models.JobStatusAccepted,
		SubmittedBy: CallerName(r),
		CreatedAt:   h.now().UTC(),
	}
	if err := h.store.CreateJob(job); err != nil {
		h.logger.Error("Failed to record job", logging.Fields{"error": err.Error()})
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}
	h.received.WithLabelValues(string(models.JobStatusAccepted)).Inc()

	h.logger.Info("Job received", logging.Fields{
		"job_id":       job.ID,
		"entry_point":  desc.EntryPoint,
		"artifacts":    len(desc.ArtifactPaths),
		"continuation": desc.ContinuationPath(),
		"caller":       job.SubmittedBy,
	})

	writeJSON(w, http.StatusCreated, models.JobReceipt{
		ID:         job.ID,
		Status:     job.Status,
		EntryPoint: desc.EntryPoint,
		Artifacts:  len(desc.ArtifactPaths),
		CreatedAt:  job.CreatedAt,
	})
}

// ListJobs returns all recorded jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.store.GetAllJobs()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob returns one recorded job
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetJob(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Health reports that the service is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
