package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo         = "repository"
	KeyResolutionID = "resolution_id"
	KeyOutcome      = "outcome"
	KeyFile         = "file"
	KeyBranch       = "branch"
	KeyBasePath     = "base_path"
	KeyLandingPage  = "landing_page"
	KeyReason       = "reason"
	KeyForge        = "forge"
	KeyPath         = "path"
	KeyURL          = "url"
	KeyDurationMS   = "duration_ms"
	KeyError        = "error"
	KeyMethod       = "method"
	KeyStatus       = "status"
	KeyUserAgent    = "user_agent"
	KeyRemoteAddr   = "remote_addr"
	KeyRequestID    = "request_id"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func ResolutionID(id string) slog.Attr { return slog.String(KeyResolutionID, id) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Branch(name string) slog.Attr    { return slog.String(KeyBranch, name) }
func BasePath(p string) slog.Attr     { return slog.String(KeyBasePath, p) }
func LandingPage(p string) slog.Attr  { return slog.String(KeyLandingPage, p) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Forge(name string) slog.Attr     { return slog.String(KeyForge, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
