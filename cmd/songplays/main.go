// Package main provides the songplays CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/songplays/internal/cli"

	// Register adapters
	_ "github.com/leapstack-labs/songplays/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/songplays/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/songplays/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
