package logging

import "log/slog"

// NMOS log severities (spec §6): fatal=40, severe=30, error=20, warning=10,
// info=0, verbose=-10, devel=-40. These are distinct from slog's own level
// scale and are carried alongside it so the Facade's log callback can report
// the numeric level the NMOS System API's logging limit is specified in
// terms of, without re-deriving the mapping at each call site.
const (
	NMOSLevelFatal   = 40
	NMOSLevelSevere  = 30
	NMOSLevelError   = 20
	NMOSLevelWarning = 10
	NMOSLevelInfo    = 0
	NMOSLevelVerbose = -10
	NMOSLevelDevel   = -40
)

// nmosLevelForSlog maps an slog.Level onto the nearest NMOS severity. slog
// has no "fatal"/"severe" distinction, so Error collapses to the NMOS
// "error" tier; a caller that wants fatal/severe must log it explicitly via
// LogAttrs with an nmos_level attribute, which BufferHandler.Handle prefers
// when present.
func nmosLevelForSlog(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return NMOSLevelError
	case level >= slog.LevelWarn:
		return NMOSLevelWarning
	case level >= slog.LevelInfo:
		return NMOSLevelInfo
	case level >= slog.LevelDebug:
		return NMOSLevelVerbose
	default:
		return NMOSLevelDevel
	}
}
