package commands

import (
	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the target tables",
		Long: `Create the songs, artists, time, users and songplays tables in the
configured target. Existing tables are left alone unless --drop is given,
which drops and recreates all of them.`,
		Example: `  # Create missing tables
  songplays init

  # Start from empty tables
  songplays init --drop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := schema.EnsureSchema(cmd.Context(), cc.Target, drop); err != nil {
				return err
			}

			for _, t := range schema.All {
				cc.Renderer.Printf("  %s\n", t.Name)
			}
			cc.Renderer.Printf("%d tables ready in %s target\n", len(schema.All), cc.Cfg.Target.Type)
			return nil
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "Drop existing tables before creating them")

	return cmd
}
