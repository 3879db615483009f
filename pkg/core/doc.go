// Package core defines the shared language of the songlake pipeline.
//
// This package contains:
//   - Raw input records (CatalogRecord, ActivityRecord)
//   - Star-schema rows (Song, Artist, User, TimeDimension, Songplay)
//   - Output table specifications (TableSpec) and pipeline options
//   - The error taxonomy (SchemaError, StorageError)
//   - Run-history entities and the Store interface
//
// The Golden Rule: pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
