package facade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NVIDIA/nvnmos/internal/api"
	"github.com/NVIDIA/nvnmos/internal/connection"
	"github.com/NVIDIA/nvnmos/internal/discovery"
	"github.com/NVIDIA/nvnmos/internal/logging"
	"github.com/NVIDIA/nvnmos/internal/node"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// Handle is the opaque running-node instance returned by Create, mirroring
// the original API's NvNmosNodeServer. UserData is never read by this
// package; it exists so a host can stash its own context alongside a
// Handle the way the original struct's user_data member does.
type Handle struct {
	UserData any

	store     *resource.Store
	connStore *resource.Store
	model     *node.Model
	engine *connection.Engine
	agent  *discovery.Agent
	server *api.Server
	logger *slog.Logger
	cancel context.CancelFunc
}

// Create initializes and starts an NMOS node: it materializes the node and
// device resources, adds any configured initial senders/receivers, starts
// NodeAPI, and starts registry discovery and registration. It reports false
// without partially starting anything durable if config fails validation or
// any step fails (spec §7: no partial edits survive a failed operation).
func Create(config Config) (*Handle, bool) {
	if !config.valid() {
		return nil, false
	}

	format := config.LogFormat
	if format == "" {
		format = "text"
	}
	logging.Initialize(logging.Config{
		Level:   levelName(config.LogLevel),
		Format:  format,
		Modules: moduleLevels(config.LogCategories, config.LogLevel),
	})
	if config.LogCallback != nil {
		logging.SetLogCallback(adaptLogCallback(config.LogCallback))
	}
	logger := logging.GetLogger("facade")

	store := resource.NewStore(time.Now)
	connStore := resource.NewStore(time.Now)

	settings := node.Settings{
		Hostname:    config.Hostname,
		HostIPs:     config.HostAddresses,
		HTTPPort:    config.HTTPPort,
		Label:       config.Label,
		Description: config.Description,
		Assets:      config.assetTags(),
		Seed:        config.Seed,
	}

	model := node.NewModel(store, connStore, settings, time.Now)
	if err := model.Init(); err != nil {
		logger.Error("failed to initialize node model", "error", err)
		return nil, false
	}

	engine := connection.NewEngine(store, connStore, time.Now, adaptActivationCallback(config.ActivationCallback, logger))

	for _, sdp := range config.Senders {
		if _, err := model.AddSender(sdp); err != nil {
			logger.Error("failed to add initial sender", "error", err)
			return nil, false
		}
	}
	for _, sdp := range config.Receivers {
		if _, err := model.AddReceiver(sdp); err != nil {
			logger.Error("failed to add initial receiver", "error", err)
			return nil, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	server := api.NewServer(&api.Options{
		Addr:              fmt.Sprintf(":%d", config.HTTPPort),
		Store:             store,
		ConnStore:         connStore,
		Engine:            engine,
		PrometheusHandler: promhttp.Handler(),
	})

	h := &Handle{
		store:     store,
		connStore: connStore,
		model:     model,
		engine:    engine,
		server:    server,
		logger:    logger,
		cancel:    cancel,
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("NodeAPI server stopped unexpectedly", "error", err)
		}
	}()

	agent := discovery.NewAgent(store, model.NodeID(), config.Hostname, config.RegistryAddress, logging.GetLogger("discovery"))
	if err := agent.Start(ctx); err != nil {
		logger.Error("failed to start discovery agent", "error", err)
		server.Stop()
		cancel()
		return nil, false
	}
	h.agent = agent

	return h, true
}

// Destroy stops registry heartbeating, closes NodeAPI's listener, and
// releases the handle. It reports false only when handle is nil.
func Destroy(handle *Handle) bool {
	if handle == nil {
		return false
	}
	if handle.agent != nil {
		handle.agent.Stop()
	}
	if handle.server != nil {
		if err := handle.server.Stop(); err != nil {
			handle.logger.Warn("error stopping NodeAPI server", "error", err)
		}
	}
	handle.cancel()
	return true
}

// AddSender parses sdp and adds a sender bundle (source, flow, sender,
// connection-sender) to the running node (spec §4.4).
func AddSender(handle *Handle, sdp string) bool {
	if handle == nil || sdp == "" {
		return false
	}
	if _, err := handle.model.AddSender(sdp); err != nil {
		handle.logger.Error("add sender failed", "error", err)
		return false
	}
	return true
}

// RemoveSender removes the sender bundle identified by id (the host-
// supplied internal id, spec §GLOSSARY "Internal id"), cascading to its
// flow and source.
func RemoveSender(handle *Handle, id string) bool {
	if handle == nil || id == "" {
		return false
	}
	if err := handle.model.RemoveSender(id); err != nil {
		handle.logger.Error("remove sender failed", "id", id, "error", err)
		return false
	}
	return true
}

// AddReceiver parses sdp and adds a receiver bundle to the running node.
func AddReceiver(handle *Handle, sdp string) bool {
	if handle == nil || sdp == "" {
		return false
	}
	if _, err := handle.model.AddReceiver(sdp); err != nil {
		handle.logger.Error("add receiver failed", "error", err)
		return false
	}
	return true
}

// RemoveReceiver removes the receiver identified by id.
func RemoveReceiver(handle *Handle, id string) bool {
	if handle == nil || id == "" {
		return false
	}
	if err := handle.model.RemoveReceiver(id); err != nil {
		handle.logger.Error("remove receiver failed", "id", id, "error", err)
		return false
	}
	return true
}

// UpdateSystemGlobal merges a newly observed IS-09 system-global resource
// into the running discovery agent's heartbeat/backoff settings (spec
// §4.7). It is not part of the original embedding API's boolean-return
// surface proper, but follows the same nullness-checked convention — the
// example driver uses it to wire a local drop-in file in place of the
// network-discovered System API resource.
func UpdateSystemGlobal(handle *Handle, sg discovery.SystemGlobal) bool {
	if handle == nil || handle.agent == nil {
		return false
	}
	handle.agent.UpdateSystemGlobal(sg)
	return true
}

// Activate applies a host-initiated transport parameter update to the
// sender or receiver identified by id, the same path an IS-05 PATCH
// exercises but driven by the host instead of a controller (spec §6's
// "update" operation). An empty sdp deactivates the resource.
func Activate(handle *Handle, id, sdp string) bool {
	if handle == nil || id == "" {
		return false
	}
	if err := handle.engine.Activate(id, sdp); err != nil {
		handle.logger.Error("activate failed", "id", id, "error", err)
		return false
	}
	return true
}

// adaptActivationCallback wraps the host's bool-returning callback into the
// void internal one ConnectionEngine expects, logging a rejected activation
// rather than propagating it — the connection state is already committed
// by the time the callback fires (spec §7: a false return is informational).
func adaptActivationCallback(cb ActivationCallback, logger *slog.Logger) connection.ActivationCallback {
	if cb == nil {
		return nil
	}
	return func(id, sdp string) {
		if !cb(id, sdp) {
			logger.Warn("host rejected activation", "id", id)
		}
	}
}

// adaptLogCallback bridges the package-level logging.LogCallback hook to
// the host's (categories, level, text) signature (spec §6).
func adaptLogCallback(cb LogCallback) logging.LogCallback {
	return func(entry logging.LogEntry) {
		cb([]string{entry.Module}, entry.NMOSLevel, entry.Message)
	}
}

// levelName maps an NMOS numeric severity onto the level names
// internal/logging.parseLevel understands.
func levelName(level int) string {
	switch {
	case level >= logging.NMOSLevelFatal:
		return "fatal"
	case level >= logging.NMOSLevelSevere:
		return "severe"
	case level >= logging.NMOSLevelError:
		return "error"
	case level >= logging.NMOSLevelWarning:
		return "warning"
	case level >= logging.NMOSLevelInfo:
		return "info"
	case level >= logging.NMOSLevelVerbose:
		return "verbose"
	default:
		return "devel"
	}
}

// moduleLevels builds a logging.Config.Modules map that sets every named
// category to the same level, since the embedding API has no notion of a
// per-category level distinct from the global LogLevel (spec §6).
func moduleLevels(categories []string, level int) map[string]string {
	if len(categories) == 0 {
		return nil
	}
	name := levelName(level)
	modules := make(map[string]string, len(categories))
	for _, c := range categories {
		modules[c] = name
	}
	return modules
}
