// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the catalog hot paths:
//   - metadata parsing and schema validation (JSON, CUE, TOML)
//   - module directory discovery
//   - repository views, cached snapshots and requirement graphs
//
// Run them with:
//
//	go test -run=^$ -bench=. ./internal/benchmark/
package benchmark
