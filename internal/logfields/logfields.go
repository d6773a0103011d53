package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyJob        = "job"
	KeyPageID     = "page_id"
	KeyPattern    = "pattern"
	KeyDest       = "dest"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyPageIndex  = "page_idx"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Job(name string) slog.Attr        { return slog.String(KeyJob, name) }
func PageID(id string) slog.Attr       { return slog.String(KeyPageID, id) }
func Pattern(p string) slog.Attr       { return slog.String(KeyPattern, p) }
func Dest(d string) slog.Attr          { return slog.String(KeyDest, d) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func PageIndex(idx int) slog.Attr      { return slog.Int(KeyPageIndex, idx) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
