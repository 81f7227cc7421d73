// Package transform holds the pure batch transformations of the pipeline:
// projection and dedup, field renaming, filtering, time decomposition and
// fact assembly. None of them mutate their input.
package transform
