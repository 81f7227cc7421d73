package commands

import (
	"runtime"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBuild = BuildInfo{Version: "1.2.3", GitCommit: "abc1234", BuildDate: "2026-10-01"}

func TestVersionCommand_Text(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = "text"

	out, err := execute(t, NewVersionCommand(testBuild), cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "songplays v1.2.3\n")
	assert.Contains(t, out, "commit:  abc1234")
	assert.Contains(t, out, "built:   2026-10-01")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, "sqlite")
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, NewVersionCommand(testBuild), testConfig(t))
	require.NoError(t, err)

	var got VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, testBuild, got.BuildInfo)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, got.Platform)
	assert.Contains(t, got.Targets, "sqlite")

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Equal(t, "abc1234", raw["git_commit"])
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, NewVersionCommand(testBuild), testConfig(t), "extra")
	require.Error(t, err)
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "test"})

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
