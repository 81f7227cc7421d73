package commands

import (
	"fmt"

	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, songplays.yaml, SONGPLAYS_
environment variables and flags have been merged. Passwords are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutTarget(cmd)

			if used := config.GetConfigFileUsed(); used != "" {
				cc.Renderer.Printf("# config file: %s\n", used)
			}
			if cc.Cfg.TargetName != "" {
				cc.Renderer.Printf("# target: %s\n", cc.Cfg.TargetName)
			}

			enc := yaml.NewEncoder(cc.Renderer.Out())
			enc.SetIndent(2)
			if err := enc.Encode(cc.Cfg.Redacted()); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
