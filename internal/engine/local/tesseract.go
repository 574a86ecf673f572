// Package local wraps the in-process Tesseract engine behind the uniform
// engine contract.
package local

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/saigopal/ocrbench/internal/corpus"
	"github.com/saigopal/ocrbench/internal/engine"
)

// Name is the engine identifier reported in results.
const Name = "tesseract"

// recognizer is the slice of the gosseract client the adapter needs.
// Indirection keeps cgo out of the tests.
type recognizer interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	Text() (string, error)
	Close() error
}

// Config holds the local engine configuration.
type Config struct {
	DefaultProfile string // language profile used when a script is unmapped or unavailable
	TessdataDir    string // optional tessdata override
	Logger         *slog.Logger
}

// Engine implements engine.Engine over Tesseract. A fresh gosseract client
// is created per invocation; concurrent Runs do not share client state.
type Engine struct {
	defaultProfile string
	tessdataDir    string
	logger         *slog.Logger

	newClient func() recognizer
	listLangs func() ([]string, error)

	langsOnce sync.Once
	available map[string]bool
	langsErr  error
}

// New creates a Tesseract-backed engine.
func New(cfg Config) *Engine {
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = "eng"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		defaultProfile: cfg.DefaultProfile,
		tessdataDir:    cfg.TessdataDir,
		logger:         logger.With("engine", Name),
	}
	e.newClient = func() recognizer { return e.gosseractClient() }
	e.listLangs = gosseract.GetAvailableLanguages
	return e
}

func (e *Engine) gosseractClient() recognizer {
	c := gosseract.NewClient()
	if e.tessdataDir != "" {
		_ = c.SetTessdataPrefix(e.tessdataDir)
	}
	return c
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return Name }

// Run extracts text from the document's image payload. A requested
// language profile whose traineddata is missing falls back to the default
// profile and flags the result instead of failing the pair.
func (e *Engine) Run(ctx context.Context, doc corpus.Document) engine.Result {
	if err := ctx.Err(); err != nil {
		return engine.Failure(Name, 0, err)
	}

	payload, err := doc.Payload()
	if err != nil {
		return engine.Failure(Name, 0, err)
	}

	profile := ProfileFor(doc.Script, e.defaultProfile)
	requested := profile
	fellBack := false
	if !e.profileAvailable(profile) {
		e.logger.Warn("language profile unavailable, using default",
			"doc", doc.ID, "requested", profile, "default", e.defaultProfile)
		profile = e.defaultProfile
		fellBack = true
	}

	client := e.newClient()
	defer client.Close()

	if err := client.SetLanguage(splitProfile(profile)...); err != nil {
		return engine.Failure(Name, 0, err)
	}
	if err := client.SetImageFromBytes(payload); err != nil {
		return engine.Failure(Name, 0, err)
	}

	start := time.Now()
	text, err := client.Text()
	elapsed := time.Since(start)
	if err != nil {
		return engine.Failure(Name, elapsed, err)
	}

	res := engine.Success(Name, text, elapsed)
	if fellBack {
		res.Fallback = true
		res.FallbackFrom = requested
	}
	return res
}

// profileAvailable checks every component of a combined profile against
// the installed traineddata. If the language list itself cannot be read we
// proceed optimistically and let recognition report the real error.
func (e *Engine) profileAvailable(profile string) bool {
	e.langsOnce.Do(func() {
		langs, err := e.listLangs()
		if err != nil {
			e.langsErr = err
			return
		}
		e.available = make(map[string]bool, len(langs))
		for _, l := range langs {
			e.available[l] = true
		}
	})
	if e.langsErr != nil {
		return true
	}
	for _, part := range splitProfile(profile) {
		if !e.available[part] {
			return false
		}
	}
	return true
}
