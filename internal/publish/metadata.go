package publish

import (
	"context"

	"git.home.luguber.info/inful/docpublish/internal/records"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// SyncMetadata writes the fields of desired that differ from current in a
// single update. Nothing is written when they agree.
func SyncMetadata(ctx context.Context, store records.Store, current records.Record, desired records.Desired) ([]records.Change, error) {
	changes := records.Diff(current, desired)
	if len(changes) == 0 {
		return nil, nil
	}
	if err := store.Update(ctx, current.Path, changes); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRecords, "Failed to update extension metadata").
			WithContext("path", current.Path).Build()
	}
	return changes, nil
}
