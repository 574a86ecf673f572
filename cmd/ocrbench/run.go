package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saigopal/ocrbench/internal/bench"
	"github.com/saigopal/ocrbench/internal/config"
	"github.com/saigopal/ocrbench/internal/corpus"
	"github.com/saigopal/ocrbench/internal/engine"
	"github.com/saigopal/ocrbench/internal/engine/local"
	"github.com/saigopal/ocrbench/internal/engine/remote"
	"github.com/saigopal/ocrbench/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <manifest.json>",
	Short: "Run the benchmark over a document manifest",
	Long: `Run every document in the manifest through the remote and local
engines, score each output against the document's ground truth, and write
the results workbook.

The manifest is produced by the document generator:

  {"documents": [
    {"id": "hindi-01", "script": "Devanagari",
     "payload_path": "hindi-01.png", "ground_truth": ["...", "..."]}
  ]}

Examples:
  ocrbench run corpus/manifest.json
  ocrbench run corpus/manifest.json --config bench.yaml --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		docs, err := corpus.LoadManifest(args[0])
		if err != nil {
			return err
		}
		logger.Info("corpus loaded", "documents", len(docs))

		remoteEngine := remote.NewClient(remote.Config{
			BaseURL:      cfg.Remote.BaseURL,
			APIKey:       config.ResolveEnvVars(cfg.Remote.APIKey),
			Profile:      cfg.Remote.Profile,
			OutputFormat: cfg.Remote.OutputFormat,
			PollInterval: cfg.Remote.PollInterval,
			JobTimeout:   cfg.Remote.JobTimeout,
			MaxRetries:   cfg.Remote.MaxRetries,
			RateLimit:    cfg.Remote.RateLimit,
			Logger:       logger,
		})
		localEngine := local.New(local.Config{
			DefaultProfile: cfg.Local.DefaultProfile,
			TessdataDir:    cfg.Local.TessdataDir,
			Logger:         logger,
		})

		orchestrator := bench.New(bench.Config{
			Engines:        []engine.Engine{remoteEngine, localEngine},
			MaxConcurrency: cfg.Bench.MaxConcurrency,
			Logger:         logger,
		})
		results := orchestrator.Run(ctx, docs)

		if err := report.WriteWorkbook(results, cfg.Report.Output); err != nil {
			return err
		}
		logger.Info("workbook written", "path", cfg.Report.Output)

		summary, err := report.RenderYAML(results)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), summary)
		return nil
	},
}
