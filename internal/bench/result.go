// Package bench runs the document×engine matrix and aggregates scores.
package bench

import (
	"time"

	"github.com/saigopal/ocrbench/internal/engine"
	"github.com/saigopal/ocrbench/internal/score"
)

// EngineScore is one engine's outcome for one document.
type EngineScore struct {
	Engine   string        `json:"engine"`
	Accuracy float64       `json:"accuracy"`
	Elapsed  time.Duration `json:"elapsed"`
	ErrorTag string        `json:"error_tag,omitempty"`
	Fallback bool          `json:"fallback,omitempty"`
}

// Result is the benchmark outcome for one document. Exactly one Result is
// produced per input document, in input order, and it is immutable once
// the run returns.
type Result struct {
	DocID  string        `json:"doc_id"`
	Script string        `json:"script"`
	Scores []EngineScore `json:"scores"`
}

// scoreResult converts an engine result into a score entry. Failures keep
// a zero accuracy and carry the classified error tag.
func scoreResult(res engine.Result, groundTruth []string) EngineScore {
	s := EngineScore{
		Engine:   res.Engine,
		Elapsed:  res.Elapsed,
		Fallback: res.Fallback,
	}
	if res.Err != nil {
		s.ErrorTag = engine.Tag(res.Err)
		return s
	}
	s.Accuracy = score.Accuracy(res.Text, groundTruth)
	return s
}
