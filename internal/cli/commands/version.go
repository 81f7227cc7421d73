package commands

import (
	"runtime"
	"strings"

	"github.com/leapstack-labs/songplays/internal/cli/output"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/spf13/cobra"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// VersionOutput is the JSON output for the version command.
type VersionOutput struct {
	BuildInfo
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Targets   []string `json:"targets"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the songplays version, how it was built and which target
database types this binary can load into.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutTarget(cmd)
			return renderVersion(cc.Renderer, newVersionOutput(info))
		},
	}
}

func newVersionOutput(info BuildInfo) *VersionOutput {
	return &VersionOutput{
		BuildInfo: info,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Targets:   adapter.ListAdapters(),
	}
}

func renderVersion(r *output.Renderer, out *VersionOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Printf("songplays v%s\n", out.Version)
	r.Printf("  commit:  %s\n", out.GitCommit)
	r.Printf("  built:   %s\n", out.BuildDate)
	r.Printf("  go:      %s %s\n", out.GoVersion, out.Platform)
	targets := "none"
	if len(out.Targets) > 0 {
		targets = strings.Join(out.Targets, ", ")
	}
	r.Printf("  targets: %s\n", targets)
	return nil
}
