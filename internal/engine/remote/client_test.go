package remote

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saigopal/ocrbench/internal/corpus"
	"github.com/saigopal/ocrbench/internal/engine"
)

func writePayload(t *testing.T, name string, data []byte) corpus.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	return corpus.Document{
		ID:          strings.TrimSuffix(name, filepath.Ext(name)),
		Script:      "Latin",
		PayloadPath: path,
		GroundTruth: []string{"hello"},
	}
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		PollInterval: 2 * time.Millisecond,
		JobTimeout:   time.Second,
		MaxRetries:   3,
		RetryDelay:   time.Millisecond,
		RateLimit:    10000,
	}
}

// fakeService implements the job protocol for tests. pollStates is
// consumed one state per poll; the last state repeats.
type fakeService struct {
	t          *testing.T
	pollStates []string
	archive    []byte

	polls    atomic.Int32
	uploads  atomic.Int32
	cancels  atomic.Int32
	uploaded []byte
}

func (s *fakeService) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/jobs":
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				s.t.Errorf("unexpected authorization: %s", auth)
			}
			var req createJobRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				s.t.Errorf("undecodable create request: %v", err)
			}
			if req.RequestID == "" {
				s.t.Error("create request carried no request id")
			}
			json.NewEncoder(w).Encode(createJobResponse{JobID: "job-1"})

		case r.Method == "PUT" && r.URL.Path == "/jobs/job-1/input":
			s.uploads.Add(1)
			var buf bytes.Buffer
			buf.ReadFrom(r.Body)
			s.uploaded = buf.Bytes()
			w.WriteHeader(http.StatusNoContent)

		case r.Method == "POST" && r.URL.Path == "/jobs/job-1/start":
			w.WriteHeader(http.StatusAccepted)

		case r.Method == "GET" && r.URL.Path == "/jobs/job-1":
			n := int(s.polls.Add(1)) - 1
			if n >= len(s.pollStates) {
				n = len(s.pollStates) - 1
			}
			json.NewEncoder(w).Encode(jobStatusResponse{State: s.pollStates[n]})

		case r.Method == "GET" && r.URL.Path == "/jobs/job-1/output":
			w.Write(s.archive)

		case r.Method == "POST" && r.URL.Path == "/jobs/job-1/cancel":
			s.cancels.Add(1)
			w.WriteHeader(http.StatusAccepted)

		default:
			s.t.Errorf("unexpected request: %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func resultArchive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var names []string
	for name := range entries {
		names = append(names, name)
	}
	// Single deterministic entry per test keeps ordering out of the picture.
	if len(names) > 1 {
		t.Fatal("resultArchive supports one entry")
	}
	data, err := packPayload(names[0], entries[names[0]])
	if err != nil {
		t.Fatalf("failed to build archive: %v", err)
	}
	return data
}

func TestClientRun(t *testing.T) {
	t.Run("completed job yields extracted text", func(t *testing.T) {
		svc := &fakeService{
			t:          t,
			pollStates: []string{"created", "running", "completed"},
			archive:    resultArchive(t, map[string][]byte{"out.md": []byte("hello world")}),
		}
		server := httptest.NewServer(svc.handler())
		defer server.Close()

		doc := writePayload(t, "doc-1.png", []byte("not-a-pdf"))
		res := NewClient(testConfig(server.URL)).Run(context.Background(), doc)

		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Text != "hello world" {
			t.Errorf("text = %q, want %q", res.Text, "hello world")
		}
		if res.Elapsed <= 0 {
			t.Error("elapsed not recorded")
		}
		if got := svc.polls.Load(); got != 3 {
			t.Errorf("polls = %d, want 3", got)
		}
	})

	t.Run("raster payload is wrapped in an archive", func(t *testing.T) {
		svc := &fakeService{
			t:          t,
			pollStates: []string{"completed"},
			archive:    resultArchive(t, map[string][]byte{"out.md": []byte("x")}),
		}
		server := httptest.NewServer(svc.handler())
		defer server.Close()

		doc := writePayload(t, "doc-1.png", []byte("\x89PNG fake image"))
		if res := NewClient(testConfig(server.URL)).Run(context.Background(), doc); res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}

		if !bytes.HasPrefix(svc.uploaded, []byte("PK")) {
			t.Error("uploaded payload is not a zip archive")
		}
		zr, err := zip.NewReader(bytes.NewReader(svc.uploaded), int64(len(svc.uploaded)))
		if err != nil {
			t.Fatalf("uploaded archive unreadable: %v", err)
		}
		if len(zr.File) != 1 || zr.File[0].Name != "doc-1.png" {
			t.Fatalf("unexpected archive contents: %v", zr.File)
		}
		rc, err := zr.File[0].Open()
		if err != nil {
			t.Fatalf("failed to open archive entry: %v", err)
		}
		defer rc.Close()
		entry, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("failed to read archive entry: %v", err)
		}
		if string(entry) != "\x89PNG fake image" {
			t.Error("archive entry does not round-trip the payload")
		}
	})

	t.Run("server failure is terminal and not retried", func(t *testing.T) {
		svc := &fakeService{t: t, pollStates: []string{"failed"}}
		server := httptest.NewServer(svc.handler())
		defer server.Close()

		doc := writePayload(t, "doc-1.png", []byte("img"))
		res := NewClient(testConfig(server.URL)).Run(context.Background(), doc)

		var jfe *engine.JobFailedError
		if !errors.As(res.Err, &jfe) {
			t.Fatalf("expected JobFailedError, got %v", res.Err)
		}
		if res.Text != "" {
			t.Errorf("failed result carries text %q", res.Text)
		}
		if got := svc.polls.Load(); got != 1 {
			t.Errorf("polls = %d, want 1", got)
		}
	})

	t.Run("polling deadline yields JobTimeoutError", func(t *testing.T) {
		svc := &fakeService{t: t, pollStates: []string{"running"}}
		server := httptest.NewServer(svc.handler())
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.PollInterval = 5 * time.Millisecond
		cfg.JobTimeout = 25 * time.Millisecond

		doc := writePayload(t, "doc-1.png", []byte("img"))
		start := time.Now()
		res := NewClient(cfg).Run(context.Background(), doc)

		var jte *engine.JobTimeoutError
		if !errors.As(res.Err, &jte) {
			t.Fatalf("expected JobTimeoutError, got %v", res.Err)
		}
		if elapsed := time.Since(start); elapsed < cfg.JobTimeout {
			t.Errorf("returned after %s, before the %s deadline", elapsed, cfg.JobTimeout)
		}

		// Cancellation is fire-and-forget; give it a moment.
		deadline := time.Now().Add(time.Second)
		for svc.cancels.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if svc.cancels.Load() == 0 {
			t.Error("no best-effort cancel request observed")
		}
	})

	t.Run("malformed result archive", func(t *testing.T) {
		svc := &fakeService{
			t:          t,
			pollStates: []string{"completed"},
			archive:    resultArchive(t, map[string][]byte{"preview.png": []byte{0x89, 0x50}}),
		}
		server := httptest.NewServer(svc.handler())
		defer server.Close()

		doc := writePayload(t, "doc-1.png", []byte("img"))
		res := NewClient(testConfig(server.URL)).Run(context.Background(), doc)

		var mre *engine.MalformedResultError
		if !errors.As(res.Err, &mre) {
			t.Fatalf("expected MalformedResultError, got %v", res.Err)
		}
	})

	t.Run("transient transport errors are retried", func(t *testing.T) {
		var creates atomic.Int32
		svc := &fakeService{
			t:          t,
			pollStates: []string{"completed"},
			archive:    resultArchive(t, map[string][]byte{"out.md": []byte("ok")}),
		}
		inner := svc.handler()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "POST" && r.URL.Path == "/jobs" && creates.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			inner(w, r)
		}))
		defer server.Close()

		doc := writePayload(t, "doc-1.png", []byte("img"))
		res := NewClient(testConfig(server.URL)).Run(context.Background(), doc)

		if res.Err != nil {
			t.Fatalf("unexpected error after retries: %v", res.Err)
		}
		if got := creates.Load(); got != 3 {
			t.Errorf("create attempts = %d, want 3", got)
		}
	})

	t.Run("exhausted retries classify as TransportError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		doc := writePayload(t, "doc-1.png", []byte("img"))
		res := NewClient(testConfig(server.URL)).Run(context.Background(), doc)

		var te *engine.TransportError
		if !errors.As(res.Err, &te) {
			t.Fatalf("expected TransportError, got %v", res.Err)
		}
		if te.Op != "create" {
			t.Errorf("op = %q, want create", te.Op)
		}
	})

	t.Run("unreadable payload fails the pair, not the run", func(t *testing.T) {
		doc := corpus.Document{ID: "ghost", PayloadPath: "/nonexistent/ghost.png"}
		res := NewClient(testConfig("http://127.0.0.1:0")).Run(context.Background(), doc)
		if res.Err == nil {
			t.Fatal("expected error for missing payload")
		}
	})
}
