package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestDiff(t *testing.T) {
	current := Record{Path: "my-ext", Description: "old", Src: "https://x/my-ext/main.js", PriceRef: "price_1"}

	tests := []struct {
		name    string
		desired Desired
		want    []Change
	}{
		{
			name:    "unchanged",
			desired: Desired{Description: "old", Src: "https://x/my-ext/main.js"},
			want:    nil,
		},
		{
			name:    "unchanged with same price",
			desired: Desired{Description: "old", Src: "https://x/my-ext/main.js", PriceRef: ptr("price_1")},
			want:    nil,
		},
		{
			name:    "description only",
			desired: Desired{Description: "new", Src: "https://x/my-ext/main.js"},
			want:    []Change{{Field: FieldDescription, Value: "new"}},
		},
		{
			name:    "custom entry",
			desired: Desired{Description: "old", Src: "https://cdn.example.com/ext.js"},
			want:    []Change{{Field: FieldSrc, Value: "https://cdn.example.com/ext.js"}},
		},
		{
			name:    "price cleared",
			desired: Desired{Description: "old", Src: "https://x/my-ext/main.js", PriceRef: ptr("")},
			want:    []Change{{Field: FieldPrice, Remove: true}},
		},
		{
			name:    "price set",
			desired: Desired{Description: "old", Src: "https://x/my-ext/main.js", PriceRef: ptr("price_2")},
			want:    []Change{{Field: FieldPrice, Value: "price_2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(current, tt.desired))
		})
	}
}

func TestApply(t *testing.T) {
	r := Apply(Record{Path: "p", PriceRef: "price_1"}, []Change{
		{Field: FieldDescription, Value: "d"},
		{Field: FieldPrice, Remove: true},
	})
	assert.Equal(t, Record{Path: "p", Description: "d"}, r)
}
