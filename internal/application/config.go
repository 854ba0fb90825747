package application

import (
	"github.com/ahrav/go-humeval/internal/domain"
)

// Default configuration values.
const (
	// DefaultMinAnnotationsPerSystem is the volume below which a language
	// pair is excluded from the headline ranking.
	DefaultMinAnnotationsPerSystem = 100.0

	// DefaultWorkers bounds how many language pairs are ranked at once.
	DefaultWorkers = 4

	// DefaultMQMSegmentOffset shifts MQM segment ids past the canary line.
	DefaultMQMSegmentOffset = -1
)

// Config is the complete description of a ranking run and serves as the
// primary configuration entry point for the system. Values come from
// DefaultConfig, are overlaid by a YAML file, and finally by the HUMRANK_*
// environment variables described by EnvOverrides.
type Config struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Ranking holds the statistical parameters of the ranking engine.
	Ranking RankingConfig `yaml:"ranking"`
	// Stouffer configures the per-domain p-value combination.
	Stouffer StoufferConfig `yaml:"stouffer"`
	// Inputs lists the annotation waves and resources to read.
	Inputs InputsConfig `yaml:"inputs"`
	// AutoRank locates the optional auxiliary AutoRank workbook.
	AutoRank AutoRankConfig `yaml:"autorank"`
	// Output controls where and how reports are written.
	Output OutputConfig `yaml:"output"`
	// Logging controls log verbosity.
	Logging LoggingConfig `yaml:"logging"`
}

// RankingConfig holds the parameters of significance testing, ranking and
// clustering.
type RankingConfig struct {
	// Alpha is the significance threshold; p < Alpha is significant.
	Alpha float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	// Micro selects flat averaging and pooled testing instead of the
	// domain-stratified default.
	Micro bool `yaml:"micro"`
	// Alternative is the signed-rank alternative, "greater" or "two-sided".
	Alternative string `yaml:"alternative" validate:"required,oneof=greater two-sided"`
	// MinAnnotationsPerSystem is the minimum mean judgment count per system
	// for a language pair to be ranked.
	MinAnnotationsPerSystem float64 `yaml:"min_annotations_per_system" validate:"gte=0"`
	// Workers bounds the number of language pairs ranked concurrently.
	Workers int `yaml:"workers" validate:"min=1,max=256"`
}

// StoufferConfig configures Stouffer's p-value combination.
type StoufferConfig struct {
	// Weights maps domain names to positive weights. Unlisted domains
	// get weight 1.
	Weights map[string]float64 `yaml:"weights" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
}

// InputsConfig lists the judgment sources and per-segment resources.
type InputsConfig struct {
	// ESAWaves are paths of direct-scoring wave exports.
	ESAWaves []string `yaml:"esa_waves" validate:"dive,required"`
	// MQMWaves are error-annotation wave files, one per language pair.
	MQMWaves []MQMWaveConfig `yaml:"mqm_waves" validate:"dive"`
	// DocumentsDir holds the per-language-pair document catalogs.
	DocumentsDir string `yaml:"documents_dir" validate:"required"`
	// SegmentOffset maps raw segment ids to zero-based segment indices.
	SegmentOffset SegmentOffsetConfig `yaml:"segment_offset"`
	// Languages extends the built-in three-letter to two-letter language
	// code table.
	Languages map[string]string `yaml:"languages" validate:"omitempty,dive,keys,len=3,endkeys,len=2"`
}

// MQMWaveConfig locates one MQM annotation file.
type MQMWaveConfig struct {
	// Path of the tab-separated annotation file.
	Path string `yaml:"path" validate:"required"`
	// LanguagePair annotated in the file, e.g. "en-de".
	LanguagePair string `yaml:"language_pair" validate:"required,langpair"`
	// Wave names the campaign; defaults to the file name.
	Wave string `yaml:"wave"`
}

// SegmentOffsetConfig holds the per-protocol offset added to a raw segment
// id to obtain its zero-based segment index. The document catalog adds
// its canary line on top of that index.
type SegmentOffsetConfig struct {
	ESA int `yaml:"esa" validate:"min=-10,max=10"`
	MQM int `yaml:"mqm" validate:"min=-10,max=10"`
}

// AutoRankConfig locates the auxiliary AutoRank workbook.
type AutoRankConfig struct {
	// Path of the .xlsx workbook; empty disables the AutoRank merge.
	Path string `yaml:"path"`
}

// OutputConfig controls report writing.
type OutputConfig struct {
	// Dir receives file outputs. Empty writes tables to stdout only.
	Dir string `yaml:"dir"`
	// Formats lists the report writers to run.
	Formats []string `yaml:"formats" validate:"min=1,unique,dive,oneof=table latex json scores"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns a configuration with production defaults: one-sided
// macro testing at alpha 0.05, the 100 annotation volume threshold, and a
// terminal table report.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Ranking: RankingConfig{
			Alpha:                   domain.DefaultAlpha,
			Alternative:             "greater",
			MinAnnotationsPerSystem: DefaultMinAnnotationsPerSystem,
			Workers:                 DefaultWorkers,
		},
		Inputs: InputsConfig{
			DocumentsDir:  "documents",
			SegmentOffset: SegmentOffsetConfig{ESA: 0, MQM: DefaultMQMSegmentOffset},
		},
		Output: OutputConfig{
			Formats: []string{"table"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// AggregatorName returns the score aggregator selected by the Micro flag.
func (c *Config) AggregatorName() string {
	if c.Ranking.Micro {
		return "micro"
	}
	return "macro"
}

// EnvOverrides lists the settings that can be overridden from the
// environment. Each field maps to HUMRANK_<FIELD>, e.g. HUMRANK_ALPHA or
// HUMRANK_MIN_ANNOTATIONS. Unset variables leave the field nil.
type EnvOverrides struct {
	Alpha          *float64
	Micro          *bool
	Alternative    *string
	MinAnnotations *float64 `split_words:"true"`
	Workers        *int
	DocumentsDir   *string  `split_words:"true"`
	AutorankPath   *string  `split_words:"true"`
	OutputDir      *string  `split_words:"true"`
	OutputFormats  []string `split_words:"true"`
	LogLevel       *string  `split_words:"true"`
}

// Apply copies every set override onto the configuration.
func (o EnvOverrides) Apply(c *Config) {
	if o.Alpha != nil {
		c.Ranking.Alpha = *o.Alpha
	}
	if o.Micro != nil {
		c.Ranking.Micro = *o.Micro
	}
	if o.Alternative != nil {
		c.Ranking.Alternative = *o.Alternative
	}
	if o.MinAnnotations != nil {
		c.Ranking.MinAnnotationsPerSystem = *o.MinAnnotations
	}
	if o.Workers != nil {
		c.Ranking.Workers = *o.Workers
	}
	if o.DocumentsDir != nil {
		c.Inputs.DocumentsDir = *o.DocumentsDir
	}
	if o.AutorankPath != nil {
		c.AutoRank.Path = *o.AutorankPath
	}
	if o.OutputDir != nil {
		c.Output.Dir = *o.OutputDir
	}
	if o.OutputFormats != nil {
		c.Output.Formats = o.OutputFormats
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
}
