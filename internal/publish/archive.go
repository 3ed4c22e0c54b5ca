package publish

import (
	"bytes"
	"context"

	"git.home.luguber.info/inful/docpublish/internal/storage"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Archive writes the raw request of path to its version snapshot. Snapshots
// are never read back; a publish within the same minute overwrites the
// previous one.
func Archive(ctx context.Context, b storage.Bucket, path, version string, raw []byte) (storage.PutResult, error) {
	key := SnapshotKey(path, version)
	res, err := b.Put(ctx, key, bytes.NewReader(raw), storage.ContentTypeJSON)
	if err != nil {
		return storage.PutResult{}, derrors.WrapError(err, derrors.CategoryStorage, "Failed to archive publish request").
			WithContext("key", key).Build()
	}
	return res, nil
}
