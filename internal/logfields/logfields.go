package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyUnit        = "unit"
	KeyUnitKind    = "unit_kind"
	KeyStage       = "stage"
	KeyStatus      = "status"
	KeyDurationMS  = "duration_ms"
	KeyFingerprint = "fingerprint"
	KeyBlocks      = "blocks"
	KeyOrphans     = "orphans"
	KeyPath        = "path"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Unit(u string) slog.Attr         { return slog.String(KeyUnit, u) }
func UnitKind(k string) slog.Attr     { return slog.String(KeyUnitKind, k) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Fingerprint(fp string) slog.Attr { return slog.String(KeyFingerprint, fp) }
func Blocks(n int) slog.Attr          { return slog.Int(KeyBlocks, n) }
func Orphans(n int) slog.Attr         { return slog.Int(KeyOrphans, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
