package publish

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/storage"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// StaleKeys returns the published keys that are not desired, in input order.
// Keys outside prefix are never returned.
func StaleKeys(prefix string, published []string, desired map[string]struct{}) []string {
	var stale []string
	for _, k := range published {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, ok := desired[k]; ok {
			continue
		}
		stale = append(stale, k)
	}
	return stale
}

// Reconcile deletes the stored subpage documents of path whose normalized
// name is not in keys. The listing is exhausted before anything is deleted.
func Reconcile(ctx context.Context, b storage.Bucket, path string, keys []string) ([]string, error) {
	prefix := SubpagePrefix(path)
	listing, err := storage.ListAll(ctx, b, prefix, "/")
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStorage, "Failed to list published subpages").
			WithContext("prefix", prefix).Build()
	}

	desired := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		desired[SubpageKey(path, k)] = struct{}{}
	}
	stale := StaleKeys(prefix, listing.Keys, desired)
	if len(stale) == 0 {
		return nil, nil
	}

	res, err := storage.DeleteAll(ctx, b, stale)
	if err != nil {
		return res.Deleted, derrors.WrapError(err, derrors.CategoryStorage, "Failed to delete stale subpages").
			WithContext("prefix", prefix).Build()
	}
	return res.Deleted, nil
}
