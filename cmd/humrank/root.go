package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-humeval/internal/application"
)

// app carries the state shared by all subcommands once the configuration
// has been loaded.
type app struct {
	cfgFile string
	verbose bool
	cfg     *application.Config
	baseDir string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}

	root := &cobra.Command{
		Use:   "humrank",
		Short: "Rank MT systems from human evaluation campaigns",
		Long: `humrank ranks machine translation systems per language pair from human
judgments. Pairwise Wilcoxon signed-rank tests are combined across domains with
Stouffer's method; significant wins and losses give each system a rank range
and systems are grouped into clusters of statistically indistinguishable quality.

Example usage:
  humrank rank --config humrank.yaml             # Print ranking tables
  humrank rank --format latex --out paper        # Write LaTeX tables
  humrank scores --out human-scores              # Export human scores
  humrank domains                                # Show domain distribution`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "humrank.yaml", "configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newRankCmd(a), newScoresCmd(a), newDomainsCmd(a), newVersionCmd())
	return root
}

// init loads the configuration and sets up logging. Relative paths in the
// configuration resolve against the configuration file's directory.
func (a *app) init(cmd *cobra.Command) error {
	a.logger = newLogger(slog.LevelInfo)
	if a.verbose {
		a.logger = newLogger(slog.LevelDebug)
	}

	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.LoadFromFile(cmd.Context(), a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	clone := *cfg
	a.cfg = &clone
	a.baseDir = filepath.Dir(a.cfgFile)

	if !a.verbose {
		var level slog.Level
		if err := level.UnmarshalText([]byte(a.cfg.Logging.Level)); err == nil {
			a.logger = newLogger(level)
		}
	}
	slog.SetDefault(a.logger)

	a.logger.Debug("configuration loaded",
		"config", a.cfgFile,
		"alpha", a.cfg.Ranking.Alpha,
		"micro", a.cfg.Ranking.Micro,
		"esa_waves", len(a.cfg.Inputs.ESAWaves),
		"mqm_waves", len(a.cfg.Inputs.MQMWaves),
	)
	return nil
}

// resolve makes a configured path relative to the configuration file.
func (a *app) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.baseDir, path)
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
