package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/scene"
)

const (
	tableJSON   = "../../testdata/table.json"
	chairJSON   = "../../testdata/chair.json"
	tableRules  = "../../testdata/table.rules"
	tableDecomp = "../../testdata/table.decomposition.json"
)

// execute runs the CLI with a throwaway config so tests never touch the
// working directory's cache.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "trestle.toml")
	cfg := "[cache]\ndir = " + `"` + filepath.ToSlash(filepath.Join(dir, "cache")) + `"` + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestValidateReport(t *testing.T) {
	out, _, err := execute(t, "validate", tableJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "table.json")
	assert.Contains(t, out, "support")
	assert.Contains(t, out, "0 errors")
}

func TestValidateJSONAndOut(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "fixed.json")
	stdout, _, err := execute(t, "validate", "--json", "-o", outPath, chairJSON)
	require.NoError(t, err)

	var res struct {
		Components []json.RawMessage `json:"components"`
		Report     struct {
			RunID       string            `json:"run_id"`
			Adjustments []json.RawMessage `json:"adjustments"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Len(t, res.Components, 6)
	assert.NotEmpty(t, res.Report.RunID)
	assert.NotEmpty(t, res.Report.Adjustments)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	comps, err := scene.Decode(f)
	require.NoError(t, err)
	assert.Len(t, comps, 6)
}

func TestValidateWithRules(t *testing.T) {
	out, _, err := execute(t, "validate", "--rules", tableRules, "--strict", tableJSON)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 errors")
}

func TestValidateStrictRejects(t *testing.T) {
	rules := writeTemp(t, "radial.rules", `(radial (names-matching "Table_Leg"))`)
	out, _, err := execute(t, "validate", "--rules", rules, "--strict", tableJSON)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRejected), "err = %v", err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out, "pattern")
}

func TestValidateConnectionsFile(t *testing.T) {
	conns := writeTemp(t, "conns.yaml", "Chair_Backrest: [Chair_Seat]\n")
	out, _, err := execute(t, "validate", "--connections", conns, chairJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "Chair_Backrest")
}

func TestValidateStdin(t *testing.T) {
	data, err := os.ReadFile(tableJSON)
	require.NoError(t, err)

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetIn(bytes.NewReader(data))
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "--json", "-"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, stdout.String(), `"Table_Top"`)
}

func TestValidateMissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", "nope.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
	assert.Equal(t, 1, exitCode(err))
}

func TestGraphDOT(t *testing.T) {
	out, _, err := execute(t, "graph", "--roles", tableJSON)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph G {"))
	assert.Contains(t, out, `"Table_Leg_1" -- "Table_Top";`)
	assert.Contains(t, out, `ground`)

	raw, _, err := execute(t, "graph", "--raw", tableJSON)
	require.NoError(t, err)
	assert.NotContains(t, raw, `"Table_Leg_1" -- "Table_Top";`, "legs start short of the top")
}

func TestGraphSVGFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chair.svg")
	_, _, err := execute(t, "graph", "-f", "svg", "-o", path, chairJSON)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestGraphBadFormat(t *testing.T) {
	_, _, err := execute(t, "graph", "-f", "png", tableJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "err = %v", err)
}

func TestRulesCommand(t *testing.T) {
	out, _, err := execute(t, "rules", tableRules, tableJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "connections 4")
	assert.Contains(t, out, "patterns 1")
	assert.Contains(t, out, "mirror(x)")
	assert.Contains(t, out, "rerun true")
}

func TestRulesCommandBadFile(t *testing.T) {
	bad := writeTemp(t, "bad.rules", `(connect "Table_Top")`)
	_, _, err := execute(t, "rules", bad, tableJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRules), "err = %v", err)
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scene")
	out, _, err := execute(t, "export", "--dir", dir, "--cells", "16", tableJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "scene.json")
	assert.FileExists(t, filepath.Join(dir, "scene.json"))
	assert.FileExists(t, filepath.Join(dir, "Table_Top.stl"))
	assert.FileExists(t, filepath.Join(dir, "Table_Leg_4.stl"))
}

func TestRunPipeline(t *testing.T) {
	out, _, err := execute(t, "run", "--fixture", tableJSON, "--decomposition", tableDecomp, "a", "dining", "table")
	require.NoError(t, err)

	var outcome struct {
		Classification struct {
			Accepted bool `json:"accepted"`
		} `json:"classification"`
		Components []json.RawMessage `json:"components"`
		Report     struct {
			Violations []json.RawMessage `json:"violations"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.True(t, outcome.Classification.Accepted)
	assert.Len(t, outcome.Components, 5)
}

func TestRunRequiresFixture(t *testing.T) {
	_, _, err := execute(t, "run", "a table")
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	cfg := writeTemp(t, "trestle.toml", "[validator]\nnot_a_key = 1\n")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfg, "validate", tableJSON})
	err := root.ExecuteContext(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "err = %v", err)
}

func TestLoggerFromContext(t *testing.T) {
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	l := log.New(&bytes.Buffer{})
	assert.Same(t, l, loggerFromContext(withLogger(context.Background(), l)))
}

func TestSetVersion(t *testing.T) {
	old := version
	defer func() { version = old }()
	SetVersion("1.2.3", "abc123", "2026-01-01")
	assert.Equal(t, "1.2.3", version)
	assert.Equal(t, "abc123", commit)
}
