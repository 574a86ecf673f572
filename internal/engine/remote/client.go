// Package remote drives the document-parse service's asynchronous job
// protocol: create, upload, start, poll, download.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/saigopal/ocrbench/internal/corpus"
	"github.com/saigopal/ocrbench/internal/engine"
)

// Name is the engine identifier reported in results.
const Name = "remote"

// Config holds the remote client configuration. Credentials are injected
// here explicitly; the client never reads process-wide state.
type Config struct {
	BaseURL      string
	APIKey       string
	Profile      string
	OutputFormat string

	PollInterval time.Duration // fixed poll cadence
	JobTimeout   time.Duration // per-job polling deadline
	MaxRetries   int           // attempts per protocol request on transport errors
	RetryDelay   time.Duration // base delay for exponential backoff
	RateLimit    float64       // protocol requests per second
	HTTPTimeout  time.Duration

	Logger *slog.Logger
}

// Client implements engine.Engine against the remote job protocol. It is
// safe for concurrent use; each Run owns its Job exclusively.
type Client struct {
	baseURL      string
	apiKey       string
	profile      string
	outputFormat string

	pollInterval time.Duration
	jobTimeout   time.Duration
	maxRetries   int
	retryDelay   time.Duration

	client  *http.Client
	limiter *rateLimiter
	logger  *slog.Logger
}

// NewClient creates a remote engine client.
func NewClient(cfg Config) *Client {
	if cfg.Profile == "" {
		cfg.Profile = "ocr-default"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "md"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		profile:      cfg.Profile,
		outputFormat: cfg.OutputFormat,
		pollInterval: cfg.PollInterval,
		jobTimeout:   cfg.JobTimeout,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		client:       &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:      newRateLimiter(cfg.RateLimit),
		logger:       logger.With("engine", Name),
	}
}

// Name returns the engine identifier.
func (c *Client) Name() string { return Name }

// Run drives one document through the job protocol to a terminal outcome.
// It never returns an error to the caller; failures come back as
// error-tagged results.
func (c *Client) Run(ctx context.Context, doc corpus.Document) engine.Result {
	start := time.Now()
	text, err := c.submit(ctx, doc)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("remote job failed", "doc", doc.ID, "error", err)
		return engine.Failure(Name, elapsed, err)
	}
	return engine.Success(Name, text, elapsed)
}

func (c *Client) submit(ctx context.Context, doc corpus.Document) (string, error) {
	payload, err := doc.Payload()
	if err != nil {
		return "", err
	}
	name, body, err := preparePayload(doc, payload)
	if err != nil {
		return "", err
	}

	jobID, err := c.createJob(ctx)
	if err != nil {
		return "", err
	}
	job := newJob(jobID, name, c.jobTimeout)
	c.logger.Debug("job created", "doc", doc.ID, "job", job.ID, "payload", name)

	if err := c.upload(ctx, job.ID, name, body); err != nil {
		return "", err
	}
	if err := job.advance(StateUploaded); err != nil {
		return "", err
	}

	if err := c.start(ctx, job.ID); err != nil {
		return "", err
	}
	if err := job.advance(StateStarted); err != nil {
		return "", err
	}
	if err := job.advance(StatePolling); err != nil {
		return "", err
	}

	if err := c.awaitCompletion(ctx, job); err != nil {
		return "", err
	}

	archive, err := c.download(ctx, job.ID)
	if err != nil {
		return "", err
	}
	text, err := extractText(archive)
	if err != nil {
		return "", &engine.MalformedResultError{JobID: job.ID, Reason: err.Error()}
	}
	return text, nil
}

// awaitCompletion polls at a fixed interval until the job reaches a
// terminal state or the job deadline passes. A timed-out job is cancelled
// best-effort without blocking.
func (c *Client) awaitCompletion(ctx context.Context, job *Job) error {
	deadline := time.NewTimer(time.Until(job.Deadline))
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = job.advance(StateTimedOut)
			c.cancelAsync(job.ID)
			return ctx.Err()

		case <-deadline.C:
			_ = job.advance(StateTimedOut)
			c.cancelAsync(job.ID)
			return &engine.JobTimeoutError{JobID: job.ID, Deadline: c.jobTimeout}

		case <-ticker.C:
			status, err := c.poll(ctx, job.ID)
			if err != nil {
				_ = job.advance(StateFailed)
				return err
			}
			switch status.State {
			case serverStateCompleted:
				return job.advance(StateCompleted)
			case serverStateFailed:
				_ = job.advance(StateFailed)
				return &engine.JobFailedError{JobID: job.ID, Message: status.Message}
			case serverStateCreated, serverStateRunning:
				// keep polling
			default:
				_ = job.advance(StateFailed)
				return fmt.Errorf("job %s reported unknown state %q", job.ID, status.State)
			}
		}
	}
}

// Server-side job states as reported by the poll endpoint.
const (
	serverStateCreated   = "created"
	serverStateRunning   = "running"
	serverStateCompleted = "completed"
	serverStateFailed    = "failed"
)

type createJobRequest struct {
	Profile      string `json:"profile"`
	OutputFormat string `json:"output_format"`
	RequestID    string `json:"request_id"`
}

type createJobResponse struct {
	JobID string `json:"job_id"`
}

type jobStatusResponse struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

func (c *Client) createJob(ctx context.Context) (string, error) {
	body, err := json.Marshal(createJobRequest{
		Profile:      c.profile,
		OutputFormat: c.outputFormat,
		RequestID:    uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, "create", http.MethodPost, "/jobs", "application/json", body)
	if err != nil {
		return "", err
	}
	var resp createJobResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &engine.TransportError{Op: "create", Err: fmt.Errorf("undecodable response: %w", err)}
	}
	if resp.JobID == "" {
		return "", &engine.TransportError{Op: "create", Err: fmt.Errorf("response carried no job id")}
	}
	return resp.JobID, nil
}

func (c *Client) upload(ctx context.Context, jobID, name string, payload []byte) error {
	path := fmt.Sprintf("/jobs/%s/input?filename=%s", jobID, url.QueryEscape(name))
	_, err := c.do(ctx, "upload", http.MethodPut, path, "application/octet-stream", payload)
	return err
}

func (c *Client) start(ctx context.Context, jobID string) error {
	_, err := c.do(ctx, "start", http.MethodPost, "/jobs/"+jobID+"/start", "", nil)
	return err
}

func (c *Client) poll(ctx context.Context, jobID string) (*jobStatusResponse, error) {
	data, err := c.do(ctx, "poll", http.MethodGet, "/jobs/"+jobID, "", nil)
	if err != nil {
		return nil, err
	}
	var status jobStatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, &engine.TransportError{Op: "poll", Err: fmt.Errorf("undecodable response: %w", err)}
	}
	return &status, nil
}

func (c *Client) download(ctx context.Context, jobID string) ([]byte, error) {
	return c.do(ctx, "download", http.MethodGet, "/jobs/"+jobID+"/output", "", nil)
}

// cancelAsync fires a best-effort cancellation without blocking the
// caller. Errors are logged and dropped; the job is already abandoned.
func (c *Client) cancelAsync(jobID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs/"+jobID+"/cancel", nil)
		if err != nil {
			return
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		resp, err := c.client.Do(req)
		if err != nil {
			c.logger.Debug("job cancel failed", "job", jobID, "error", err)
			return
		}
		_ = resp.Body.Close()
	}()
}

// do performs one protocol request, retrying transient transport failures
// with exponential backoff. Exhausted retries surface as a TransportError
// tagged with the protocol step.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body []byte) ([]byte, error) {
	var out []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
			case resp.StatusCode >= 400:
				return retry.Unrecoverable(fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode))
			}
			out = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, &engine.TransportError{Op: op, Err: err}
	}
	return out, nil
}

// preparePayload decides how the document travels. Native PDFs upload
// as-is; anything else is a raster image and gets wrapped in a
// single-entry archive, since the protocol accepts only PDFs or archives.
func preparePayload(doc corpus.Document, payload []byte) (string, []byte, error) {
	if isPDF(payload) {
		return doc.ID + ".pdf", payload, nil
	}
	entry := filepath.Base(doc.PayloadPath)
	wrapped, err := packPayload(entry, payload)
	if err != nil {
		return "", nil, err
	}
	return doc.ID + ".zip", wrapped, nil
}

func isPDF(payload []byte) bool {
	if !bytes.HasPrefix(payload, []byte("%PDF-")) {
		return false
	}
	pages, err := pdfapi.PageCount(bytes.NewReader(payload), nil)
	return err == nil && pages > 0
}
