package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	pages   []*s3.ListObjectsV2Output
	tokens  []string
	deletes []*s3.DeleteObjectsInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(data))
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, &s3types.NoSuchKey{}
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.tokens = append(f.tokens, aws.ToString(in.ContinuationToken))
	out := f.pages[0]
	f.pages = f.pages[1:]
	return out, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deletes = append(f.deletes, in)
	out := &s3.DeleteObjectsOutput{}
	for _, o := range in.Delete.Objects {
		if strings.HasSuffix(aws.ToString(o.Key), "locked.md") {
			out.Errors = append(out.Errors, s3types.Error{Key: o.Key, Message: aws.String("AccessDenied")})
			continue
		}
		out.Deleted = append(out.Deleted, s3types.DeletedObject{Key: o.Key})
	}
	return out, nil
}

func TestS3BucketPutSeekableUsesPutObject(t *testing.T) {
	f := &fakeS3{}
	b := NewS3Bucket(f, "docs")

	res, err := b.Put(context.Background(), "documents/my-ext.md", strings.NewReader("# doc"), ContentTypeMarkdown)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if res.ETag != `"etag"` {
		t.Errorf("ETag = %q", res.ETag)
	}
	if got := aws.ToString(f.puts[0].ContentType); got != ContentTypeMarkdown {
		t.Errorf("content type = %q", got)
	}
	if got := aws.ToString(f.puts[0].Bucket); got != "docs" {
		t.Errorf("bucket = %q", got)
	}
	if f.bodies[0] != "# doc" {
		t.Errorf("body = %q", f.bodies[0])
	}
}

// fakeUploader records what it is handed without reading the body.
type fakeUploader struct {
	inputs []*s3.PutObjectInput
}

func (u *fakeUploader) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	u.inputs = append(u.inputs, in)
	return &manager.UploadOutput{ETag: aws.String(`"multipart"`)}, nil
}

// endless is an unseekable reader that never runs out.
type endless struct{ read int64 }

func (e *endless) Read(p []byte) (int, error) {
	e.read += int64(len(p))
	return len(p), nil
}

func TestS3BucketPutStreamsUnseekableBodies(t *testing.T) {
	f := &fakeS3{}
	up := &fakeUploader{}
	b := NewS3Bucket(f, "docs").WithUploader(up)

	body := &endless{}
	res, err := b.Put(context.Background(), "thumbnails/my-ext.png", body, ContentTypePNG)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(f.puts) != 0 {
		t.Fatalf("streaming body must not go through PutObject")
	}
	if len(up.inputs) != 1 || up.inputs[0].Body != io.Reader(body) {
		t.Fatalf("uploader did not receive the original body: %+v", up.inputs)
	}
	if body.read != 0 {
		t.Fatalf("body was read %d bytes before upload", body.read)
	}
	if res.ETag != `"multipart"` || aws.ToString(up.inputs[0].ContentType) != ContentTypePNG {
		t.Errorf("unexpected result %+v / %+v", res, up.inputs[0])
	}
}

func TestS3BucketPutWithoutUploader(t *testing.T) {
	b := NewS3Bucket(&fakeS3{}, "docs")
	_, err := b.Put(context.Background(), "thumbnails/my-ext.png", io.NopCloser(strings.NewReader("png")), ContentTypePNG)
	if !errors.Is(err, ErrNoUploader) {
		t.Fatalf("expected ErrNoUploader, got %v", err)
	}
}

func TestS3BucketListFollowsNextToken(t *testing.T) {
	f := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []s3types.Object{{Key: aws.String("documents/my-ext/a.md")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next-1"),
		},
		{
			Contents:       []s3types.Object{{Key: aws.String("documents/my-ext/b.md")}},
			CommonPrefixes: []s3types.CommonPrefix{{Prefix: aws.String("documents/my-ext/old/")}},
			IsTruncated:    aws.Bool(false),
		},
	}}
	listing, err := ListAll(context.Background(), NewS3Bucket(f, "docs"), "documents/my-ext/", "/")
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(listing.Keys) != 2 || len(listing.CommonPrefixes) != 1 {
		t.Errorf("unexpected listing %+v", listing)
	}
	if f.tokens[0] != "" || f.tokens[1] != "next-1" {
		t.Errorf("tokens = %v", f.tokens)
	}
}

func TestS3BucketDeleteReportsPartialFailure(t *testing.T) {
	f := &fakeS3{}
	res, err := NewS3Bucket(f, "docs").DeleteObjects(context.Background(), []string{"documents/my-ext/a.md", "documents/my-ext/locked.md"})
	if err == nil {
		t.Fatal("expected error for failed key")
	}
	if len(res.Deleted) != 1 {
		t.Errorf("deleted = %v", res.Deleted)
	}
}

func TestS3BucketGetNotFound(t *testing.T) {
	_, err := NewS3Bucket(&fakeS3{}, "docs").Get(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf ErrNotFound
	if !errors.As(err, &nf) || nf.Key != "nope" {
		t.Errorf("unexpected error %v", err)
	}
}
