package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

type staticSource struct {
	name      string
	judgments []domain.Judgment
	err       error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Load(ctx context.Context) ([]domain.Judgment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.judgments, s.err
}

func TestCollectJudgments(t *testing.T) {
	sources := []ports.JudgmentSource{
		staticSource{name: "w0", judgments: []domain.Judgment{{SystemID: "a"}, {SystemID: "b"}}},
		staticSource{name: "w1"},
		staticSource{name: "w2", judgments: []domain.Judgment{{SystemID: "c", Protocol: domain.ProtocolMQM}}},
	}

	got, err := CollectJudgments(context.Background(), sources, 3)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, j := range got {
		ids = append(ids, j.SystemID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids, "source order is preserved")

	split := SplitByProtocol(got)
	assert.Len(t, split[domain.ProtocolMQM], 1)
	assert.Len(t, split[""], 2)
}

func TestCollectJudgments_Error(t *testing.T) {
	boom := errors.New("boom")
	sources := []ports.JudgmentSource{
		staticSource{name: "ok"},
		staticSource{name: "broken", err: boom},
	}
	_, err := CollectJudgments(context.Background(), sources, 0)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "wave broken")
}

func TestBuildSources_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "documents"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "documents", "en-de.docs"),
		[]byte("canary\tcanary\nnews\td1\nsocial\td2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave0.csv"),
		[]byte("u1,A,0,TGT,eng,deu,80,d1,x,[],1,2\nu1,B,0,TGT,eng,deu,60,d1,x,[],1,2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mqm.tsv"),
		[]byte("system\tdoc\tglobalSegId\trater\tcategory\tseverity\nA\td2\t2\tr1\tStyle/Awkward\tminor\n"), 0o600))

	cfg := DefaultConfig()
	cfg.Inputs.ESAWaves = []string{"wave0.csv"}
	cfg.Inputs.MQMWaves = []MQMWaveConfig{{Path: "mqm.tsv", LanguagePair: "en-de", Wave: "mqm24"}}

	sources, catalog := BuildSources(cfg, dir, slog.New(slog.DiscardHandler))
	require.Len(t, sources, 2)
	assert.Equal(t, "wave0.csv", sources[0].Name())
	assert.Equal(t, "mqm24", sources[1].Name())

	judgments, err := CollectJudgments(context.Background(), sources, 2)
	require.NoError(t, err)
	require.Len(t, judgments, 3)
	assert.Equal(t, "news", judgments[0].Domain)
	assert.Equal(t, "social", judgments[2].Domain)
	assert.Equal(t, -1.0, judgments[2].Score)

	c, err := catalog.Catalog("en-de")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}
