package publish

import (
	"strings"
	"time"
)

// DefaultBundleName is the file name implementation bundles are hosted under.
const DefaultBundleName = "main.js"

// versionLayout formats a version stamp to the minute: YYYY-MM-DD-HH-MM.
const versionLayout = "2006-01-02-15-04"

// Version returns the version stamp of a publish at t, in UTC.
func Version(t time.Time) string { return t.UTC().Format(versionLayout) }

// DocumentKey is the main document of path.
func DocumentKey(path string) string { return "documents/" + path + ".md" }

// SubpagePrefix is the namespace holding the subpage documents of path.
func SubpagePrefix(path string) string { return "documents/" + path + "/" }

// SubpageKey is the document of the subpage with normalized name key.
func SubpageKey(path, key string) string { return SubpagePrefix(path) + key + ".md" }

// ThumbnailKey is the thumbnail image of path.
func ThumbnailKey(path string) string { return "thumbnails/" + path + ".png" }

// SnapshotKey is the archived request of path at version.
func SnapshotKey(path, version string) string {
	return "document-versions/" + path + "/" + version + ".json"
}

// BundleKey is the canonical entry of path.
func BundleKey(path, bundle string) string { return path + "/" + bundle }

// VersionedBundleKey is the immutable copy of a bundle published at version.
func VersionedBundleKey(path, version, bundle string) string {
	return path + "/" + version + "/" + bundle
}

// EntryURL is the public URL of the canonical entry of path.
func EntryURL(baseURL, path, bundle string) string {
	return strings.TrimRight(baseURL, "/") + "/" + BundleKey(path, bundle)
}
