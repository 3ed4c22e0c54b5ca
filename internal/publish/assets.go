package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/storage"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Asset kinds, used as metric labels.
const (
	AssetDocument  = "document"
	AssetSubpage   = "subpage"
	AssetThumbnail = "thumbnail"
	AssetBundle    = "bundle"
)

// Asset is one object of the upload group.
type Asset struct {
	Key         string
	ContentType string
	Kind        string
	// Open returns the body. It is called from the uploading goroutine.
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// TextAsset is an asset with an in-memory body.
func TextAsset(key, contentType, kind, body string) Asset {
	return Asset{
		Key:         key,
		ContentType: contentType,
		Kind:        kind,
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

// DocumentAssets returns the main document and every subpage of docs.
func DocumentAssets(path string, docs Documents) []Asset {
	assets := []Asset{TextAsset(DocumentKey(path), storage.ContentTypeMarkdown, AssetDocument, docs.Main)}
	for _, k := range docs.Keys() {
		assets = append(assets, TextAsset(SubpageKey(path, k), storage.ContentTypeMarkdown, AssetSubpage, docs.Subpages[k]))
	}
	return assets
}

// DefaultMaxThumbnailBytes caps a fetched thumbnail.
const DefaultMaxThumbnailBytes int64 = 10 << 20

// ThumbnailAsset streams url into the thumbnail of path. Reading more than
// maxBytes fails the body, and with it the upload. maxBytes <= 0 means
// DefaultMaxThumbnailBytes.
func ThumbnailAsset(client *http.Client, path, url string, maxBytes int64) Asset {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxThumbnailBytes
	}
	return Asset{
		Key:         ThumbnailKey(path),
		ContentType: storage.ContentTypePNG,
		Kind:        AssetThumbnail,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			body, err := fetch(ctx, client, url)
			if err != nil {
				return nil, err
			}
			return &cappedBody{rc: body, r: io.LimitReader(body, maxBytes+1), max: maxBytes, url: url}, nil
		},
	}
}

// cappedBody errors once more than max bytes have been read.
type cappedBody struct {
	rc   io.ReadCloser
	r    io.Reader
	max  int64
	read int64
	url  string
}

func (c *cappedBody) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.max {
		return 0, derrors.ValidationError(fmt.Sprintf("Thumbnail exceeds %d bytes.", c.max)).
			WithContext("url", c.url).Build()
	}
	return n, err
}

func (c *cappedBody) Close() error { return c.rc.Close() }

func fetch(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "invalid thumbnail URL").
			WithContext("url", url).Build()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "failed to fetch thumbnail").
			WithContext("url", url).Build()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, derrors.NetworkError(fmt.Sprintf("failed to fetch thumbnail: %s", resp.Status)).
			WithContext("url", url).Build()
	}
	return resp.Body, nil
}

// UploadResult is the outcome of an upload group.
type UploadResult struct {
	// ETags maps each written key to its ETag.
	ETags map[string]string
}

// keys returns the written keys in asset order.
func (u UploadResult) keys(assets []Asset) []string {
	var keys []string
	for _, a := range assets {
		if _, ok := u.ETags[a.Key]; ok {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// uploader writes asset groups concurrently.
type uploader struct {
	bucket  storage.Bucket
	observe func(kind string, d time.Duration, ok bool)
	logger  *slog.Logger
}

// upload writes every asset concurrently and waits for all of them. Any
// failure fails the group; the first error is returned.
func (u uploader) upload(ctx context.Context, assets []Asset) (UploadResult, error) {
	var (
		mu  sync.Mutex
		res = UploadResult{ETags: make(map[string]string, len(assets))}
		g   errgroup.Group
	)
	for _, a := range assets {
		g.Go(func() error {
			t0 := time.Now()
			etag, err := u.put(ctx, a)
			if u.observe != nil {
				u.observe(a.Kind, time.Since(t0), err == nil)
			}
			if err != nil {
				u.logger.ErrorContext(ctx, "Upload failed", logfields.Key(a.Key), logfields.Error(err))
				return err
			}
			mu.Lock()
			res.ETags[a.Key] = etag
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return res, err
}

func (u uploader) put(ctx context.Context, a Asset) (string, error) {
	body, err := a.Open(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	res, err := u.bucket.Put(ctx, a.Key, body, a.ContentType)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryStorage, "Failed to upload "+a.Kind).
			WithContext("key", a.Key).Build()
	}
	return res.ETag, nil
}
