// Package engine defines the contract both OCR backends implement and the
// error taxonomy their failures map to.
package engine

import (
	"context"
	"time"

	"github.com/saigopal/ocrbench/internal/corpus"
)

// Engine runs one document through an OCR backend. Implementations never
// return an error from Run: every failure is folded into the Result so the
// orchestrator can apply its isolate-and-continue policy uniformly.
type Engine interface {
	// Name returns the engine identifier (e.g. "remote", "tesseract").
	Name() string

	// Run extracts text from the document's payload.
	Run(ctx context.Context, doc corpus.Document) Result
}

// Result is the uniform outcome of one (document, engine) invocation.
//
// Err and a populated Text are mutually exclusive. Empty Text with a nil
// Err is valid: the engine ran and found nothing, which scores zero recall
// but is not a failure.
type Result struct {
	Engine  string
	Text    string
	Elapsed time.Duration

	// Err classifies a failure; see errors.go for the taxonomy.
	Err error

	// Fallback is set when the local engine substituted the default
	// language profile for an unavailable one. FallbackFrom names the
	// profile that was requested.
	Fallback     bool
	FallbackFrom string
}

// Success builds a successful Result.
func Success(name, text string, elapsed time.Duration) Result {
	return Result{Engine: name, Text: text, Elapsed: elapsed}
}

// Failure builds an error-tagged Result with no text.
func Failure(name string, elapsed time.Duration, err error) Result {
	return Result{Engine: name, Elapsed: elapsed, Err: err}
}
