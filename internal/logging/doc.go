// Package logging provides the node's structured logging: a per-module
// slog.Logger registry, a bounded ring buffer for introspection, a systemd
// journal handler used when available, and an adapter onto the numeric NMOS
// log severities of spec §6 (fatal=40, severe=30, error=20, warning=10,
// info=0, verbose=-10, devel=-40).
//
// Call Initialize once at startup with a Config describing the global level,
// output format, and any per-module overrides. Subsystems obtain their
// logger with GetLogger:
//
//	logger := logging.GetLogger("connection")
//	logger.Info("activated sender", "sender_id", senderID)
//
// Every record is written to stdout (when attached to a terminal or pipe),
// to the systemd journal (when running under it), and always into the ring
// buffer returned by GetBuffer. Each record written to that buffer is also
// passed to the callback installed with SetLogCallback, which the Facade
// uses to forward records to the embedding host regardless of how the
// process itself is being supervised.
//
// Module levels can be filtered independently of the global level, e.g. to
// quiet a noisy discovery-retry loop without lowering every other module's
// verbosity:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "json",
//		Modules: map[string]string{
//			"discovery": "warn",
//		},
//	})
//
// journalctl can filter by the SYSLOG_IDENTIFIER this package sets:
//
//	journalctl SYSLOG_IDENTIFIER=nmosnode -f
package logging
