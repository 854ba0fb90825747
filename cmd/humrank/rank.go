package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-humeval/infrastructure/middleware"
	"github.com/ahrav/go-humeval/infrastructure/report"
	"github.com/ahrav/go-humeval/internal/application"
)

type rankOptions struct {
	micro       bool
	formats     []string
	outDir      string
	traceFile   string
	metricsFile string
}

func newRankCmd(a *app) *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank systems and write reports",
		Long: `Load every configured annotation wave, rank the systems of each language
pair and write the configured reports. Language pairs below the annotation
threshold are reported as excluded; their AutoRank rows still appear in the
extended tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("micro") {
				a.cfg.Ranking.Micro = opts.micro
			}
			if cmd.Flags().Changed("format") {
				a.cfg.Output.Formats = opts.formats
			}
			if cmd.Flags().Changed("out") {
				a.cfg.Output.Dir = opts.outDir
			}
			return runRank(cmd, a, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.micro, "micro", false, "flat averaging and pooled testing instead of per-domain")
	cmd.Flags().StringSliceVar(&opts.formats, "format", nil, "report formats: table, latex, json, scores")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory for file reports")
	cmd.Flags().StringVar(&opts.traceFile, "trace-file", "", "write OpenTelemetry spans as JSON to this file")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	return cmd
}

func runRank(cmd *cobra.Command, a *app, opts *rankOptions) (err error) {
	ctx := cmd.Context()

	if opts.traceFile != "" {
		f, ferr := os.Create(opts.traceFile)
		if ferr != nil {
			return fmt.Errorf("create trace file: %w", ferr)
		}
		defer f.Close()
		shutdown, terr := middleware.InitTracing(f)
		if terr != nil {
			return terr
		}
		defer func() {
			if serr := shutdown(context.WithoutCancel(ctx)); serr != nil && err == nil {
				err = serr
			}
		}()
	}

	reg := prometheus.NewRegistry()
	metrics := middleware.NewPrometheusMetrics(reg)

	pipeline, err := application.NewPipeline(a.cfg, a.baseDir,
		application.WithPipelineLogger(a.logger),
		application.WithPipelineMetrics(metrics),
		application.WithTesterDecorators(middleware.WithTracing(metrics)),
	)
	if err != nil {
		return err
	}

	rep, err := pipeline.Rank(ctx)
	if err != nil {
		return err
	}

	writers, err := report.NewWriters(a.cfg.Output.Formats, report.Options{
		Dir:    a.resolve(a.cfg.Output.Dir),
		Stdout: cmd.OutOrStdout(),
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	if err := report.WriteAll(ctx, writers, rep); err != nil {
		return err
	}

	a.logger.Info("ranking complete",
		"run_id", rep.RunID,
		"language_pairs", len(rep.Tables),
		"excluded", len(rep.Exclusions),
		"clusters", rep.TotalClusters(),
	)

	if opts.metricsFile != "" {
		return middleware.WriteMetricsFile(opts.metricsFile, reg)
	}
	return nil
}
