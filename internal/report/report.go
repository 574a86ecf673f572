// Package report renders benchmark results for the outside world: an XLSX
// workbook for tabular inspection and a YAML summary for the terminal.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/saigopal/ocrbench/internal/bench"
)

// EngineSummary aggregates one engine's scores across the whole corpus.
type EngineSummary struct {
	Engine       string  `yaml:"engine"`
	Documents    int     `yaml:"documents"`
	MeanAccuracy float64 `yaml:"mean_accuracy"`
	MeanLatency  string  `yaml:"mean_latency"`
	Failures     int     `yaml:"failures"`
	Fallbacks    int     `yaml:"fallbacks"`
}

// Summarize computes per-engine aggregates in engine order. Failed pairs
// count as zero accuracy, keeping the mean comparable across engines.
func Summarize(results []bench.Result) []EngineSummary {
	if len(results) == 0 {
		return nil
	}

	engines := len(results[0].Scores)
	summaries := make([]EngineSummary, engines)
	totalLatency := make([]time.Duration, engines)

	for _, r := range results {
		for i, s := range r.Scores {
			summaries[i].Engine = s.Engine
			summaries[i].Documents++
			summaries[i].MeanAccuracy += s.Accuracy
			totalLatency[i] += s.Elapsed
			if s.ErrorTag != "" {
				summaries[i].Failures++
			}
			if s.Fallback {
				summaries[i].Fallbacks++
			}
		}
	}
	for i := range summaries {
		n := summaries[i].Documents
		if n > 0 {
			summaries[i].MeanAccuracy /= float64(n)
			summaries[i].MeanLatency = (totalLatency[i] / time.Duration(n)).Round(time.Millisecond).String()
		}
	}
	return summaries
}

// RenderYAML renders the per-engine summary for the terminal.
func RenderYAML(results []bench.Result) (string, error) {
	out, err := yaml.Marshal(Summarize(results))
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return string(out), nil
}

const (
	resultsSheet = "Results"
	scriptSheet  = "Scripts"
)

// WriteWorkbook writes one row per document with per-engine accuracy,
// latency, error tag and fallback flag.
func WriteWorkbook(results []bench.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(resultsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if idx, _ := f.GetSheetIndex(resultsSheet); idx != -1 {
		f.SetActiveSheet(idx)
	}
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Document", "Script"}
	if len(results) > 0 {
		for _, s := range results[0].Scores {
			headers = append(headers,
				s.Engine+" accuracy",
				s.Engine+" latency (ms)",
				s.Engine+" error",
				s.Engine+" fallback",
			)
		}
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, r := range results {
		values := []any{r.DocID, r.Script}
		for _, s := range r.Scores {
			values = append(values,
				s.Accuracy,
				s.Elapsed.Milliseconds(),
				s.ErrorTag,
				s.Fallback,
			)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	if err := writeScriptSheet(f, results); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeScriptSheet adds per-script mean accuracy, one row per script in
// first-seen order, one column per engine.
func writeScriptSheet(f *excelize.File, results []bench.Result) error {
	if len(results) == 0 {
		return nil
	}
	if _, err := f.NewSheet(scriptSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	engines := len(results[0].Scores)
	var scripts []string
	sums := make(map[string][]float64)
	counts := make(map[string]int)
	for _, r := range results {
		if _, seen := sums[r.Script]; !seen {
			scripts = append(scripts, r.Script)
			sums[r.Script] = make([]float64, engines)
		}
		counts[r.Script]++
		for i, s := range r.Scores {
			sums[r.Script][i] += s.Accuracy
		}
	}

	headers := []string{"Script", "Documents"}
	for _, s := range results[0].Scores {
		headers = append(headers, s.Engine+" mean accuracy")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(scriptSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, script := range scripts {
		values := []any{script, counts[script]}
		for i := 0; i < engines; i++ {
			values = append(values, sums[script][i]/float64(counts[script]))
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(scriptSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}
	return nil
}
