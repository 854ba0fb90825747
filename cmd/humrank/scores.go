package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-humeval/infrastructure/aggregate"
	"github.com/ahrav/go-humeval/infrastructure/report"
	"github.com/ahrav/go-humeval/internal/application"
	"github.com/ahrav/go-humeval/internal/domain"
)

const defaultScoresDir = "human-scores"

func newScoresCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Export flat human scores per language pair and protocol",
		Long: `Write <lp>.<protocol>.sys.score (system, score) and <lp>.<protocol>.domain.score
(domain, system, score) files with the flat mean of every system, for use as
gold scores in metric evaluation. Volume thresholds do not apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if outDir == "" {
				outDir = a.resolve(defaultScoresDir)
			}

			pipeline, err := application.NewPipeline(a.cfg, a.baseDir, application.WithPipelineLogger(a.logger))
			if err != nil {
				return err
			}
			judgments, _, err := pipeline.Judgments(ctx)
			if err != nil {
				return err
			}

			opts := report.Options{Dir: outDir, Stdout: cmd.OutOrStdout(), Logger: a.logger}
			for protocol, js := range application.SplitByProtocol(judgments) {
				datasets, err := domain.BuildDatasets(js)
				if err != nil {
					return err
				}
				if err := report.ExportScores(ctx, opts, string(protocol), datasets, aggregate.NewMicroMean()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default human-scores next to the config)")
	return cmd
}
