package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/psantana5/clusterlambda/pkg/models"
)

// Submitter hands job descriptions to the job execution service
type Submitter interface {
	Submit(ctx context.Context, job *models.JobDescription) (*models.JobReceipt, error)
}

// SubmissionFailedError wraps any failure to get a job accepted.
// Submissions are never retried.
type SubmissionFailedError struct {
	Cause error
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("job submission failed: %v", e.Cause)
}

func (e *SubmissionFailedError) Unwrap() error {
	return e.Cause
}

// APIError is a non-success response from the service
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Config configures the HTTP submitter
type Config struct {
	ServiceURL string
	APIKey     string
	Timeout    time.Duration

	// Optional TLS material; see LoadClientTLSConfig
	CACertFile     string
	ClientCertFile string
	ClientKeyFile  string
}

// Client submits jobs to the service's POST /jobs endpoint
type Client struct {
	serviceURL string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a submitter from cfg
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServiceURL) == "" {
		return nil, fmt.Errorf("service URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.CACertFile != "" || cfg.ClientCertFile != "" {
		tlsConfig, err := LoadClientTLSConfig(cfg.ClientCertFile, cfg.ClientKeyFile, cfg.CACertFile)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return NewClientWithHTTP(cfg.ServiceURL, cfg.APIKey, httpClient), nil
}

// NewClientWithHTTP creates a submitter using an existing HTTP client
func NewClientWithHTTP(serviceURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Submit posts the job and returns the service's receipt
func (c *Client) Submit(ctx context.Context, job *models.JobDescription) (*models.JobReceipt, error) {
	receipt, err := c.submit(ctx, job)
	if err != nil {
		return nil, &SubmissionFailedError{Cause: err}
	}
	return receipt, nil
}

func (c *Client) submit(ctx context.Context, job *models.JobDescription) (*models.JobReceipt, error) {
	if job == nil {
		return nil, fmt.Errorf("job description is nil")
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+"/jobs", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to job service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var receipt models.JobReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &receipt, nil
}
