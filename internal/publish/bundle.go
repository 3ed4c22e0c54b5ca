package publish

import (
	"context"

	"git.home.luguber.info/inful/docpublish/internal/storage"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// BundleAssets returns the versioned and canonical copies of an
// implementation bundle.
func BundleAssets(path, version, bundle, code string) []Asset {
	return []Asset{
		TextAsset(VersionedBundleKey(path, version, bundle), storage.ContentTypeJavaScript, AssetBundle, code),
		TextAsset(BundleKey(path, bundle), storage.ContentTypeJavaScript, AssetBundle, code),
	}
}

func (u uploader) publishBundle(ctx context.Context, path, version, bundle, code string) (UploadResult, error) {
	res, err := u.upload(ctx, BundleAssets(path, version, bundle, code))
	if err != nil {
		return res, derrors.WrapError(err, derrors.CategoryStorage, "Failed to publish versioned extension").
			WithContext("path", path).Build()
	}
	return res, nil
}
