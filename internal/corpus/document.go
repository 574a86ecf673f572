// Package corpus loads the benchmark document set produced by the
// external test-document generator.
package corpus

// Document is one benchmark input: an image or PDF payload with the words
// known to appear in it. Documents are immutable for the duration of a
// run; the orchestrator and engines only ever read them.
type Document struct {
	ID          string   `json:"id"`
	Script      string   `json:"script"`
	PayloadPath string   `json:"payload_path"`
	GroundTruth []string `json:"ground_truth"`
}
