package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the bucket uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Uploader streams bodies of unknown length. *manager.Uploader implements it.
type Uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ErrNoUploader is returned by Put for a body that cannot seek when the
// bucket has no streaming uploader.
var ErrNoUploader = errors.New("s3 put: streaming body needs a multipart uploader")

// S3Bucket is a Bucket backed by an S3 bucket. Transport retries are those
// configured on the client.
type S3Bucket struct {
	client   S3API
	uploader Uploader
	bucket   string
}

// NewS3Bucket wraps client for bucket. When client also speaks the multipart
// API (as *s3.Client does) streaming bodies go through a manager.Uploader.
func NewS3Bucket(client S3API, bucket string) *S3Bucket {
	b := &S3Bucket{client: client, bucket: bucket}
	if mc, ok := client.(manager.UploadAPIClient); ok {
		b.uploader = manager.NewUploader(mc)
	}
	return b
}

// WithUploader replaces the streaming uploader.
func (b *S3Bucket) WithUploader(u Uploader) *S3Bucket {
	b.uploader = u
	return b
}

// Put uploads the object. Seekable bodies go out in a single PutObject; any
// other body is streamed in parts and never held in memory as a whole.
func (b *S3Bucket) Put(ctx context.Context, key string, body io.Reader, contentType string) (PutResult, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if _, ok := body.(io.ReadSeeker); ok {
		out, err := b.client.PutObject(ctx, in)
		if err != nil {
			return PutResult{}, fmt.Errorf("s3 put %s: %w", key, err)
		}
		return PutResult{Key: key, ETag: aws.ToString(out.ETag)}, nil
	}

	if b.uploader == nil {
		return PutResult{}, ErrNoUploader
	}
	out, err := b.uploader.Upload(ctx, in)
	if err != nil {
		return PutResult{}, fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return PutResult{Key: key, ETag: aws.ToString(out.ETag)}, nil
}

// Get downloads the object.
func (b *S3Bucket) Get(ctx context.Context, key string) (*Object, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}
	return &Object{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
		Data:        data,
	}, nil
}

// List returns one ListObjectsV2 page.
func (b *S3Bucket) List(ctx context.Context, in ListInput) (ListPage, error) {
	req := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(in.Prefix),
	}
	if in.Delimiter != "" {
		req.Delimiter = aws.String(in.Delimiter)
	}
	if in.ContinuationToken != "" {
		req.ContinuationToken = aws.String(in.ContinuationToken)
	}
	if in.MaxKeys > 0 {
		req.MaxKeys = aws.Int32(int32(min(in.MaxKeys, 1000))) // #nosec G115 - bounded
	}

	out, err := b.client.ListObjectsV2(ctx, req)
	if err != nil {
		return ListPage{}, fmt.Errorf("s3 list %s: %w", in.Prefix, err)
	}

	page := ListPage{
		IsTruncated:           aws.ToBool(out.IsTruncated),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
	}
	for _, o := range out.Contents {
		page.Keys = append(page.Keys, aws.ToString(o.Key))
	}
	for _, p := range out.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, aws.ToString(p.Prefix))
	}
	return page, nil
}

// DeleteObjects issues one batch delete. Use DeleteAll for more than
// DeleteBatchSize keys.
func (b *S3Bucket) DeleteObjects(ctx context.Context, keys []string) (DeleteResult, error) {
	if len(keys) == 0 {
		return DeleteResult{}, nil
	}
	if len(keys) > DeleteBatchSize {
		return DeleteResult{}, fmt.Errorf("s3 delete: %d keys exceeds batch limit %d", len(keys), DeleteBatchSize)
	}

	ids := make([]s3types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		ids[i] = s3types.ObjectIdentifier{Key: aws.String(k)}
	}
	out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.bucket),
		Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(false)},
	})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("s3 delete: %w", err)
	}

	var res DeleteResult
	for _, d := range out.Deleted {
		res.Deleted = append(res.Deleted, aws.ToString(d.Key))
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		return res, fmt.Errorf("s3 delete: %d keys failed: %s", len(out.Errors), strings.Join(msgs, "; "))
	}
	return res, nil
}
