package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/leapstack-labs/songplays/internal/testutil"

	_ "github.com/leapstack-labs/songplays/pkg/adapters/sqlite"
)

// project writes a songplays.yaml with a sqlite target next to the fixtures
// and makes it the working directory.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	songs := testutil.WriteFixtures(t, testutil.SongFixtures)
	logs := testutil.WriteFixtures(t, testutil.LogFixtures)

	cfg := "song_data: " + songs + "\n" +
		"log_data: " + logs + "\n" +
		"workers: 2\n" +
		"target:\n  type: sqlite\n  database: sparkify.db\n" +
		"environments:\n  scratch:\n    target:\n      type: sqlite\n      database: scratch.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "songplays.yaml"), []byte(cfg), 0o600))

	t.Chdir(dir)
	config.ResetConfig()
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "init", "history", "config", "doctor", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "target", "song-data", "log-data", "extension", "workers", "cache-size", "state", "database", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_InitThenRun(t *testing.T) {
	dir := project(t)

	_, _, err := run(t, "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "sparkify.db"))

	out, logs, err := run(t, "run", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, logs, "run completed")

	var res struct {
		Events   int `json:"events"`
		Resolved int `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Events)
	assert.Equal(t, 2, res.Resolved)

	// Run history lands in the default state path under the project.
	assert.FileExists(t, filepath.Join(dir, config.DefaultStateFile))
}

func TestRootCmd_TargetSelectsEnvironment(t *testing.T) {
	dir := project(t)

	out, _, err := run(t, "config", "-t", "scratch")
	require.NoError(t, err)
	assert.Contains(t, out, "# target: scratch")
	assert.Contains(t, out, filepath.Join(dir, "scratch.db"))
}

func TestRootCmd_FlagsOverrideFile(t *testing.T) {
	project(t)

	out, _, err := run(t, "config", "--workers", "7", "--extension", ".ndjson")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 7")
	assert.Contains(t, out, "extension: .ndjson")
}

func TestRootCmd_UnknownTarget(t *testing.T) {
	project(t)

	_, _, err := run(t, "run", "-t", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "missing"`)
}

func TestRootCmd_Version(t *testing.T) {
	project(t)

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "songplays v"+Version)

	out, _, err = run(t, "version", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"git_commit": "`+GitCommit+`"`)
}
