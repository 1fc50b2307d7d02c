package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupCorpus writes a small collection and a config pointing at it, stored
// in a sqlite file so separate commands share state.
func setupCorpus(t *testing.T, extra string) string {
	t.Helper()
	root := t.TempDir()
	write(t, filepath.Join(root, "corpus", "D1.html"), `<html><body><h2>chat noir</h2><p>un chat dort</p></body></html>`)
	write(t, filepath.Join(root, "corpus", "D2.html"), `<html><body><p>chien blanc</p></body></html>`)
	write(t, filepath.Join(root, "corpus", "D3.html"), `<html><body><p>souris grise</p></body></html>`)
	write(t, filepath.Join(root, "requetes.html"), `<html><body>
<h2>Q1</h2><dl><dt>mots clés</dt><dd>chat #, félin</dd></dl>
</body></html>`)
	write(t, filepath.Join(root, "qrels", "qrelQ1.txt"), "D1.html\t1\nD2.html\t0\n")

	cfg := fmt.Sprintf(`corpus:
  documentsDir: %s
  queriesFile: %s
  qrelsDir: %s
storage:
  driver: sqlite
  path: %s
evaluation:
  cutoffs: [1, 5]
logging:
  level: error
%s`,
		filepath.Join(root, "corpus"),
		filepath.Join(root, "requetes.html"),
		filepath.Join(root, "qrels"),
		filepath.Join(root, "releval.db"),
		extra,
	)
	path := filepath.Join(root, "releval.yaml")
	write(t, path, cfg)
	return path
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStagesShareTheStore(t *testing.T) {
	cfg := setupCorpus(t, "")
	for _, stage := range []string{"index", "queries", "qrels"} {
		_, err := execute(stage, "--config", cfg)
		require.NoError(t, err, stage)
	}

	out, err := execute("evaluate", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var report evaluation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 1)
	q1 := report.Results[0]
	assert.Equal(t, "Q1", q1.ID)
	assert.Equal(t, 1.0, q1.Precision[1])
	assert.Equal(t, 1.0, q1.Recall[5])
	assert.NotEmpty(t, report.RunID)
}

func TestRunPrintsTextReport(t *testing.T) {
	cfg := setupCorpus(t, "")
	out, err := execute("run", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "P@1")
	assert.Contains(t, out, "Q1")
}

func TestExitCodes(t *testing.T) {
	cfg := setupCorpus(t, "weighting:\n  tfMode: cubic\n")
	_, err := execute("run", "--config", cfg)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))

	_, err = execute("run", "--config", setupCorpus(t, ""), "--format", "xml")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	empty := setupCorpus(t, "")
	docs := filepath.Join(filepath.Dir(empty), "corpus")
	require.NoError(t, os.RemoveAll(docs))
	require.NoError(t, os.MkdirAll(docs, 0o755))
	_, err = execute("index", "--config", empty)
	assert.Equal(t, apperrors.ExitEmptyCollection, apperrors.ExitCode(err))
}
