package discovery

import "testing"

func TestMergePartialReplacesOnlyNonZeroScalars(t *testing.T) {
	current := DefaultSystemGlobal()
	next := SystemGlobal{HeartbeatIntervalSeconds: 10}

	merged := Merge(current, next)

	if merged.HeartbeatIntervalSeconds != 10 {
		t.Errorf("HeartbeatIntervalSeconds = %d, want 10", merged.HeartbeatIntervalSeconds)
	}
	if merged.RetryMinBackoffSeconds != current.RetryMinBackoffSeconds {
		t.Errorf("RetryMinBackoffSeconds = %d, want unchanged %d", merged.RetryMinBackoffSeconds, current.RetryMinBackoffSeconds)
	}
	if merged.RetryMaxBackoffSeconds != current.RetryMaxBackoffSeconds {
		t.Errorf("RetryMaxBackoffSeconds = %d, want unchanged %d", merged.RetryMaxBackoffSeconds, current.RetryMaxBackoffSeconds)
	}
}

func TestMergeFullReplacementOverwritesEveryField(t *testing.T) {
	current := DefaultSystemGlobal()
	next := SystemGlobal{
		HeartbeatIntervalSeconds: 30,
		RetryMinBackoffSeconds:   2,
		RetryMaxBackoffSeconds:   120,
		RegistrationVersion:      "v1.2",
		SyslogHosts:              []string{"syslog.example.com"},
	}

	merged := Merge(current, next)

	if merged.HeartbeatIntervalSeconds != next.HeartbeatIntervalSeconds ||
		merged.RetryMinBackoffSeconds != next.RetryMinBackoffSeconds ||
		merged.RetryMaxBackoffSeconds != next.RetryMaxBackoffSeconds ||
		merged.RegistrationVersion != next.RegistrationVersion ||
		len(merged.SyslogHosts) != 1 || merged.SyslogHosts[0] != next.SyslogHosts[0] {
		t.Errorf("Merge(current, next) = %+v, want %+v", merged, next)
	}
}

func TestMergeArrayReplacedWholesaleNotAppended(t *testing.T) {
	current := DefaultSystemGlobal()
	current.SyslogHosts = []string{"old-host"}
	next := SystemGlobal{SyslogHosts: []string{"new-host-1", "new-host-2"}}

	merged := Merge(current, next)

	if len(merged.SyslogHosts) != 2 || merged.SyslogHosts[0] != "new-host-1" {
		t.Errorf("SyslogHosts = %v, want wholesale replacement with [new-host-1 new-host-2]", merged.SyslogHosts)
	}
}

func TestMergeEmptyNextLeavesCurrentUntouched(t *testing.T) {
	current := DefaultSystemGlobal()
	current.SyslogHosts = []string{"kept-host"}

	merged := Merge(current, SystemGlobal{})

	if merged.HeartbeatIntervalSeconds != current.HeartbeatIntervalSeconds ||
		merged.RetryMinBackoffSeconds != current.RetryMinBackoffSeconds ||
		merged.RetryMaxBackoffSeconds != current.RetryMaxBackoffSeconds ||
		merged.RegistrationVersion != current.RegistrationVersion ||
		len(merged.SyslogHosts) != 1 || merged.SyslogHosts[0] != "kept-host" {
		t.Errorf("Merge(current, {}) = %+v, want unchanged %+v", merged, current)
	}
}

func TestParseSystemGlobal(t *testing.T) {
	data := []byte(`
heartbeat_interval_seconds = 5
retry_min_backoff_seconds = 1
retry_max_backoff_seconds = 30
registration_version = "v1.3"
`)
	sg, err := ParseSystemGlobal(data)
	if err != nil {
		t.Fatalf("ParseSystemGlobal failed: %v", err)
	}
	if sg.HeartbeatIntervalSeconds != 5 || sg.RegistrationVersion != "v1.3" {
		t.Errorf("unexpected SystemGlobal: %+v", sg)
	}
}
