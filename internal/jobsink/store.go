package jobsink

import (
	"errors"
	"sync"

	"github.com/psantana5/clusterlambda/pkg/models"
)

var ErrJobNotFound = errors.New("job not found")

// MemoryStore keeps received jobs in arrival order. Jobs are never run and
// are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*models.SubmittedJob
	order []string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*models.SubmittedJob),
	}
}

// CreateJob records a job
func (s *MemoryStore) CreateJob(job *models.SubmittedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return errors.New("job already exists: " + job.ID)
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return nil
}

// GetJob retrieves a job by ID
func (s *MemoryStore) GetJob(id string) (*models.SubmittedJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// GetAllJobs returns every job, oldest first
func (s *MemoryStore) GetAllJobs() []*models.SubmittedJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*models.SubmittedJob, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, s.jobs[id])
	}
	return jobs
}
