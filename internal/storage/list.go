package storage

import (
	"context"
	"fmt"
)

// Listing is the complete result of ListAll.
type Listing struct {
	Keys           []string
	CommonPrefixes []string
	Pages          int
}

// ListAll follows continuation tokens until the listing is exhausted. A
// truncated page without a continuation token is an error; returning it as
// complete would make callers treat unlisted keys as absent.
func ListAll(ctx context.Context, b Bucket, prefix, delimiter string) (Listing, error) {
	var out Listing
	in := ListInput{Prefix: prefix, Delimiter: delimiter}
	for {
		page, err := b.List(ctx, in)
		if err != nil {
			return Listing{}, fmt.Errorf("list %s (page %d): %w", prefix, out.Pages+1, err)
		}
		out.Pages++
		out.Keys = append(out.Keys, page.Keys...)
		out.CommonPrefixes = append(out.CommonPrefixes, page.CommonPrefixes...)
		if !page.IsTruncated {
			return out, nil
		}
		if page.NextContinuationToken == "" || page.NextContinuationToken == in.ContinuationToken {
			return Listing{}, fmt.Errorf("list %s: truncated page %d without a new continuation token", prefix, out.Pages)
		}
		in.ContinuationToken = page.NextContinuationToken
	}
}

// DeleteBatchSize is the largest batch a single DeleteObjects call accepts on S3.
const DeleteBatchSize = 1000

// DeleteAll removes keys in batches of at most DeleteBatchSize.
func DeleteAll(ctx context.Context, b Bucket, keys []string) (DeleteResult, error) {
	var out DeleteResult
	for start := 0; start < len(keys); start += DeleteBatchSize {
		end := min(start+DeleteBatchSize, len(keys))
		res, err := b.DeleteObjects(ctx, keys[start:end])
		out.Deleted = append(out.Deleted, res.Deleted...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
