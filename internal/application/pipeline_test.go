package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// writeCampaign lays out a minimal en-de campaign in dir: a catalog of
// segments in one news document and an ESA wave where system A beats
// system B on every segment by a distinct margin.
func writeCampaign(t *testing.T, dir string, segments int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "documents"), 0o700))

	var docs strings.Builder
	docs.WriteString("canary\tcanary\n")
	for range segments {
		docs.WriteString("news\td1\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "documents", "en-de.docs"), []byte(docs.String()), 0o600))

	var wave strings.Builder
	for i := range segments {
		fmt.Fprintf(&wave, "u1,A,%d,TGT,eng,deu,90,d1,x,[],1,2\n", i)
		fmt.Fprintf(&wave, "u1,B,%d,TGT,eng,deu,%.1f,d1,x,[],1,2\n", i, 50+0.5*float64(i))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave0.csv"), []byte(wave.String()), 0o600))
}

func writeAutoRank(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("en-de")
	require.NoError(t, err)
	rows := [][]any{
		{"", "AutoRank", "type", "lp_supported"},
		{"A", 1.0, "closed-system", "yes"},
		{"Extra", 4.2, "open-source", "yes"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("en-de", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func pipelineConfig() *Config {
	cfg := DefaultConfig()
	cfg.Inputs.ESAWaves = []string{"wave0.csv"}
	cfg.Ranking.MinAnnotationsPerSystem = 10
	return cfg
}

func TestPipeline_Rank(t *testing.T) {
	dir := t.TempDir()
	writeCampaign(t, dir, 20)
	writeAutoRank(t, filepath.Join(dir, "AutoRank.xlsx"))

	cfg := pipelineConfig()
	cfg.AutoRank.Path = "AutoRank.xlsx"

	p, err := NewPipeline(cfg, dir, WithPipelineLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	report, err := p.Rank(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Tables, 1)

	table := report.Tables[0]
	assert.Equal(t, domain.LanguagePair("en-de"), table.LanguagePair)
	assert.Equal(t, "English-German", table.DisplayName)
	assert.Equal(t, 2, table.Clusters)
	require.Len(t, table.Standings, 2)
	assert.Equal(t, "A", table.Standings[0].SystemID)
	assert.Equal(t, domain.RankInterval{Best: 1, Worst: 1}, table.Standings[0].Rank)
	assert.Equal(t, 1.0, *table.Standings[0].AutoRank)
	assert.Equal(t, "B", table.Standings[1].SystemID)
	assert.Nil(t, table.Standings[1].AutoRank)

	extended := report.Extended[0]
	require.Len(t, extended.Standings, 3)
	assert.Equal(t, "Extra", extended.Standings[2].SystemID)
	assert.False(t, extended.Standings[2].HumanRanked)
	assert.Equal(t, 3, extended.Standings[2].Cluster)
}

func TestPipeline_LowVolumeExcluded(t *testing.T) {
	dir := t.TempDir()
	writeCampaign(t, dir, 5)

	p, err := NewPipeline(pipelineConfig(), dir, WithPipelineLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	report, err := p.Rank(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Tables)
	require.Len(t, report.Exclusions, 1)
	assert.ErrorIs(t, report.Exclusions[0], domain.ErrInsufficientVolume)
}

func TestPipeline_AutoRankDisabled(t *testing.T) {
	p, err := NewPipeline(pipelineConfig(), t.TempDir())
	require.NoError(t, err)

	book, err := p.AutoRank(context.Background())
	require.NoError(t, err)
	assert.Empty(t, book)
}

func TestPipeline_MissingWave(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPipeline(pipelineConfig(), dir, WithPipelineLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	_, err = p.Rank(context.Background())
	assert.ErrorIs(t, err, ports.ErrSourceUnavailable)
}

func TestNewPipeline_NilConfig(t *testing.T) {
	_, err := NewPipeline(nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
