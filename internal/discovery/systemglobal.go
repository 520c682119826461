package discovery

import "github.com/pelletier/go-toml/v2"

// SystemGlobal is the subset of the IS-09 System API's "global" resource
// DiscoveryAgent consumes: the registry heartbeat interval and the bounds
// of the retry/re-register/re-discover backoff (spec §4.7, §5). In
// production this is discovered over the network via IS-09; the example
// driver's `internal/config.Watcher` lets a local drop-in file stand in for
// it (SPEC_FULL.md's ambient Configuration section).
type SystemGlobal struct {
	HeartbeatIntervalSeconds int      `toml:"heartbeat_interval_seconds"`
	RetryMinBackoffSeconds   int      `toml:"retry_min_backoff_seconds"`
	RetryMaxBackoffSeconds   int      `toml:"retry_max_backoff_seconds"`
	RegistrationVersion      string   `toml:"registration_version"`
	SyslogHosts              []string `toml:"syslog_hosts"`
}

// DefaultSystemGlobal is the fallback used until a system-global resource is
// observed over the network or from the drop-in file.
func DefaultSystemGlobal() SystemGlobal {
	return SystemGlobal{
		HeartbeatIntervalSeconds: 5,
		RetryMinBackoffSeconds:   1,
		RetryMaxBackoffSeconds:   30,
		RegistrationVersion:      "v1.3",
	}
}

// ParseSystemGlobal parses a TOML-encoded system-global drop-in file. A
// missing or zero-valued field is left at its caller-supplied default by
// Merge, not by this function — ParseSystemGlobal reports exactly what the
// file contains.
func ParseSystemGlobal(data []byte) (SystemGlobal, error) {
	var sg SystemGlobal
	if err := toml.Unmarshal(data, &sg); err != nil {
		return SystemGlobal{}, err
	}
	return sg, nil
}

// Merge applies a newly observed system-global resource onto current,
// shallow-merging it: scalar fields in next that are non-zero replace the
// corresponding field in current, and any non-nil array field in next wholly
// replaces current's. A zero-valued scalar or nil array in next is treated
// as "not specified" and leaves current's value in place, so an update
// cannot reset a field to zero.
func Merge(current, next SystemGlobal) SystemGlobal {
	merged := current
	if next.HeartbeatIntervalSeconds != 0 {
		merged.HeartbeatIntervalSeconds = next.HeartbeatIntervalSeconds
	}
	if next.RetryMinBackoffSeconds != 0 {
		merged.RetryMinBackoffSeconds = next.RetryMinBackoffSeconds
	}
	if next.RetryMaxBackoffSeconds != 0 {
		merged.RetryMaxBackoffSeconds = next.RetryMaxBackoffSeconds
	}
	if next.RegistrationVersion != "" {
		merged.RegistrationVersion = next.RegistrationVersion
	}
	if next.SyslogHosts != nil {
		merged.SyslogHosts = next.SyslogHosts
	}
	return merged
}
