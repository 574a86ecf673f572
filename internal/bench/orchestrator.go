package bench

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saigopal/ocrbench/internal/corpus"
	"github.com/saigopal/ocrbench/internal/engine"
)

// docState tracks one document's progress through the benchmark.
type docState string

const (
	docPending          docState = "pending"
	docRemoteDispatched docState = "remote_dispatched"
	docLocalDispatched  docState = "local_dispatched"
	docScored           docState = "scored"
	docRecorded         docState = "recorded"
)

// dispatchStates follow the engine order the orchestrator was built with:
// remote first, local second.
var dispatchStates = []docState{docRemoteDispatched, docLocalDispatched}

// Config configures an Orchestrator.
type Config struct {
	// Engines are invoked per document in slice order. The benchmark runs
	// the remote engine first, then the local one.
	Engines []engine.Engine

	// MaxConcurrency bounds the number of documents in flight at once.
	MaxConcurrency int

	Logger *slog.Logger
}

// Orchestrator runs every document through every engine with pair-level
// failure isolation. A failing engine call becomes a zero-score,
// error-tagged entry; it never aborts the remaining documents.
type Orchestrator struct {
	engines        []engine.Engine
	maxConcurrency int
	logger         *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engines:        cfg.Engines,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Run benchmarks every document and returns one Result per document in
// input order. Workers write into pre-reserved slots of the shared result
// slice; ordering never depends on completion order.
func (o *Orchestrator) Run(ctx context.Context, docs []corpus.Document) []Result {
	results := make([]Result, len(docs))

	workers := o.maxConcurrency
	if workers > len(docs) {
		workers = len(docs)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = o.benchmark(ctx, docs[i])
			}
		}()
	}
	for i := range docs {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return results
}

// benchmark runs one document through every engine sequentially, scoring
// each outcome against the document's ground truth.
func (o *Orchestrator) benchmark(ctx context.Context, doc corpus.Document) Result {
	logger := o.logger.With("doc", doc.ID, "script", doc.Script)

	state := docPending
	advance := func(to docState) {
		logger.Debug("document state change", "from", state, "to", to)
		state = to
	}

	scores := make([]EngineScore, len(o.engines))
	for i, eng := range o.engines {
		if i < len(dispatchStates) {
			advance(dispatchStates[i])
		}
		res := safeRun(ctx, eng, doc)
		scores[i] = scoreResult(res, doc.GroundTruth)
		if scores[i].ErrorTag != "" {
			logger.Warn("engine failed for document",
				"engine", eng.Name(), "error_tag", scores[i].ErrorTag, "error", res.Err)
		}
	}
	advance(docScored)

	result := Result{DocID: doc.ID, Script: doc.Script, Scores: scores}
	advance(docRecorded)
	logger.Info("document benchmarked", "scores", summarize(scores))
	return result
}

// safeRun shields the orchestrator from a panicking engine; the panic is
// folded into an error-tagged result like any other pair-level failure.
func safeRun(ctx context.Context, eng engine.Engine, doc corpus.Document) (res engine.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = engine.Failure(eng.Name(), 0, fmt.Errorf("engine panic: %v", r))
		}
	}()
	return eng.Run(ctx, doc)
}

func summarize(scores []EngineScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		if s.ErrorTag != "" {
			out[i] = fmt.Sprintf("%s=%s", s.Engine, s.ErrorTag)
			continue
		}
		out[i] = fmt.Sprintf("%s=%.3f", s.Engine, s.Accuracy)
	}
	return out
}
