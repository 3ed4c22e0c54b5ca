package storage

import (
	"sort"
	"strconv"
	"strings"
)

// pageKeys applies prefix, delimiter and pagination to a sorted key set. Both
// local buckets share it so they list exactly like S3 ListObjectsV2.
func pageKeys(sorted []string, in ListInput, defaultMax int) (ListPage, error) {
	maxKeys := in.MaxKeys
	if maxKeys <= 0 {
		maxKeys = defaultMax
	}
	start := 0
	if in.ContinuationToken != "" {
		n, err := strconv.Atoi(in.ContinuationToken)
		if err != nil || n < 0 {
			return ListPage{}, ErrInvalidToken{Token: in.ContinuationToken}
		}
		start = n
	}

	var entries []string
	seen := map[string]bool{}
	isPrefix := map[string]bool{}
	for _, k := range sorted {
		if !strings.HasPrefix(k, in.Prefix) {
			continue
		}
		if in.Delimiter != "" {
			rest := k[len(in.Prefix):]
			if i := strings.Index(rest, in.Delimiter); i >= 0 {
				cp := in.Prefix + rest[:i+len(in.Delimiter)]
				if !seen[cp] {
					seen[cp] = true
					isPrefix[cp] = true
					entries = append(entries, cp)
				}
				continue
			}
		}
		entries = append(entries, k)
	}
	sort.Strings(entries)

	var page ListPage
	if start > len(entries) {
		start = len(entries)
	}
	end := min(start+maxKeys, len(entries))
	for _, e := range entries[start:end] {
		if isPrefix[e] {
			page.CommonPrefixes = append(page.CommonPrefixes, e)
		} else {
			page.Keys = append(page.Keys, e)
		}
	}
	if end < len(entries) {
		page.IsTruncated = true
		page.NextContinuationToken = strconv.Itoa(end)
	}
	return page, nil
}

// ErrInvalidToken is returned for a continuation token the bucket did not issue.
type ErrInvalidToken struct {
	Token string
}

func (e ErrInvalidToken) Error() string {
	return "invalid continuation token: " + e.Token
}
