package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Path", KeyPath, "my-ext", Path("my-ext")},
		{"Stage", KeyStage, "upload", Stage("upload")},
		{"Subpage", KeySubpage, "getting_started", Subpage("getting_started")},
		{"Key", KeyKey, "documents/my-ext.md", Key("documents/my-ext.md")},
		{"Owner", KeyOwner, "u1", Owner("u1")},
		{"PublishID", KeyPublishID, "p1", PublishID("p1")},
		{"Version", KeyVersion, "2024-01-02-03-04", Version("2024-01-02-03-04")},
		{"PriceRef", KeyPriceRef, "price_1", PriceRef("price_1")},
		{"Method", KeyMethod, "PUT", Method("PUT")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"URL", KeyURL, "https://example.com", URL("https://example.com")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Count(3); v.Key != KeyCount { t.Fatalf("Count key mismatch: %s", v.Key) }
	if v := Status(200); v.Key != KeyStatus { t.Fatalf("Status key mismatch: %s", v.Key) }
	if v := DurationMS(12.5); v.Key != KeyDuration { t.Fatalf("DurationMS key mismatch: %s", v.Key) }
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	if attr := Error(nil); attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	if attr := Error(errors.New("err-test")); attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}
