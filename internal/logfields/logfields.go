package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath      = "path"
	KeyStage     = "stage"
	KeySubpage   = "subpage"
	KeyKey       = "key"
	KeyOwner     = "owner"
	KeyPublishID = "publish_id"
	KeyVersion   = "version"
	KeyDuration  = "duration_ms"
	KeyCount     = "count"
	KeyPriceRef  = "price_ref"
	KeyMethod    = "method"
	KeyStatus    = "status"
	KeyRequestID = "request_id"
	KeyURL       = "url"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Subpage(name string) slog.Attr   { return slog.String(KeySubpage, name) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Owner(id string) slog.Attr       { return slog.String(KeyOwner, id) }
func PublishID(id string) slog.Attr   { return slog.String(KeyPublishID, id) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func PriceRef(ref string) slog.Attr   { return slog.String(KeyPriceRef, ref) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
