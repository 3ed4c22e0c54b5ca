package config

import (
	"git.home.luguber.info/inful/docpublish/internal/foundation/normalization"
	"git.home.luguber.info/inful/docpublish/internal/retry"
)

// StorageKind selects the object storage backend.
type StorageKind string

const (
	StorageMemory StorageKind = "memory"
	StorageFS     StorageKind = "fs"
	StorageS3     StorageKind = "s3"
)

var storageKindNormalizer = normalization.NewEnum("storage kind", map[string]StorageKind{
	"memory":     StorageMemory,
	"fs":         StorageFS,
	"filesystem": StorageFS,
	"s3":         StorageS3,
}, "")

// NormalizeStorageKind returns the canonical kind, or "" when raw is unknown.
func NormalizeStorageKind(raw string) StorageKind {
	return storageKindNormalizer.Normalize(raw)
}

// RecordsKind selects the metadata store backend.
type RecordsKind string

const (
	RecordsSQLite RecordsKind = "sqlite"
	RecordsDynamo RecordsKind = "dynamo"
)

var recordsKindNormalizer = normalization.NewEnum("records kind", map[string]RecordsKind{
	"sqlite":   RecordsSQLite,
	"dynamo":   RecordsDynamo,
	"dynamodb": RecordsDynamo,
}, "")

// NormalizeRecordsKind returns the canonical kind, or "" when raw is unknown.
func NormalizeRecordsKind(raw string) RecordsKind {
	return recordsKindNormalizer.Normalize(raw)
}

var backoffNormalizer = normalization.NewEnum("alerts backoff", map[string]retry.BackoffMode{
	"fixed":       retry.BackoffFixed,
	"constant":    retry.BackoffFixed,
	"linear":      retry.BackoffLinear,
	"exponential": retry.BackoffExponential,
}, "")

// NormalizeBackoff returns the canonical backoff mode, or "" when raw is unknown.
func NormalizeBackoff(raw string) retry.BackoffMode {
	return backoffNormalizer.Normalize(raw)
}
