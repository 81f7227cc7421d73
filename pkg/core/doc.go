// Package core defines the shared types of the songplays pipeline.
//
// This package contains:
//   - Adapter configuration and dialect settings (AdapterConfig, DialectConfig)
//   - Target configuration loaded from songplays.yaml (TargetConfig)
//   - Run history entities (Run, TableResult)
//   - Values that cross pipeline stages (SongRef)
//
// pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
