// Package cmd implements the command-line interface of dObj. It opens a model
// stored in a local data file, applies one operation and writes the result back.
//
// The package is organized into several subpackages:
//
//   - model: Commands operating on the model (init, put, get, remove, list-add,
//     text-insert, participants, dump, export, migrate)
//   - perf: Benchmarks of the offset list and the model operations
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All commands share the persistent flags --data-file, --serializer, --domain,
// --wave, --participant, --session and --log-level. Every flag can also be set
// through an environment variable with the DOBJ_ prefix (e.g. DOBJ_DATA_FILE),
// optionally loaded from a .env or .env.local file.
//
// See dobj -help for a list of all commands.
package cmd
