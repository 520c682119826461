// Package discovery implements the DiscoveryAgent of spec §4.7: registry
// discovery (mDNS or unicast DNS-SD, selected by hostname shape),
// registration and heartbeat against the discovered registry, and
// consumption of system-global configuration for heartbeat interval and
// backoff bounds.
package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NVIDIA/nvnmos/internal/api/models"
	"github.com/NVIDIA/nvnmos/internal/metrics"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// registrationOrder lists resource types in the order IS-04 registration
// requires: a resource's parent must already be registered before it.
var registrationOrder = []resource.Type{
	resource.TypeNode,
	resource.TypeDevice,
	resource.TypeSource,
	resource.TypeFlow,
	resource.TypeSender,
	resource.TypeReceiver,
}

// Agent mirrors a node's IS-04 resource tree to a discovered registry and
// keeps it alive with heartbeats, escalating through retry, re-register,
// and re-discovery on failure (spec §5).
type Agent struct {
	store            *resource.Store
	nodeID           string
	hostname         string
	registryOverride string
	logger           *slog.Logger

	mu          sync.RWMutex
	sg          SystemGlobal
	registryURL string
	client      *RegistrationClient
	registered  bool

	unsubscribe  func()
	heartbeatTicker *time.Ticker
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewAgent constructs an Agent over store, ready to discover and register
// nodeID's resource tree. registryOverride, when non-empty, bypasses mDNS/
// DNS-SD discovery entirely — useful for the example driver's static
// registry-address configuration.
func NewAgent(store *resource.Store, nodeID, hostname, registryOverride string, logger *slog.Logger) *Agent {
	return &Agent{
		store:            store,
		nodeID:           nodeID,
		hostname:         hostname,
		registryOverride: registryOverride,
		logger:           logger,
		sg:               DefaultSystemGlobal(),
		stopChan:         make(chan struct{}),
	}
}

// UpdateSystemGlobal merges a newly observed system-global resource into
// the agent's live settings (spec §4.7's shallow merge) and rebuilds the
// registration client so a changed backoff bound takes effect on the next
// heartbeat cycle.
func (a *Agent) UpdateSystemGlobal(next SystemGlobal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sg = Merge(a.sg, next)
	if a.registryURL != "" {
		a.client = NewRegistrationClient(a.registryURL, a.sg, a.logger)
	}
	if a.heartbeatTicker != nil {
		a.heartbeatTicker.Reset(time.Duration(a.sg.HeartbeatIntervalSeconds) * time.Second)
	}
	a.logger.Info("system-global settings merged", "heartbeat_interval_seconds", a.sg.HeartbeatIntervalSeconds)
}

// Start discovers a registry (unless registryOverride was supplied),
// registers the current resource tree, subscribes to further ResourceStore
// changes for incremental mirroring, and starts the heartbeat loop.
func (a *Agent) Start(ctx context.Context) error {
	registryURL := a.registryOverride
	if registryURL == "" {
		discovered, err := Discover(ctx, a.hostname)
		if err != nil {
			return newErr(ErrCodeNoRegistry, "registry discovery failed", err)
		}
		registryURL = discovered
	}

	a.mu.Lock()
	a.registryURL = registryURL
	a.client = NewRegistrationClient(registryURL, a.sg, a.logger)
	sg := a.sg
	a.mu.Unlock()

	if err := a.registerAll(ctx); err != nil {
		metrics.IncRegistrationAttempt(registryURL, "failure")
		return err
	}
	metrics.IncRegistrationAttempt(registryURL, "success")
	metrics.SetRegistered(registryURL, true)

	a.mu.Lock()
	a.registered = true
	a.mu.Unlock()

	a.unsubscribe = a.store.Subscribe(a.onChange)

	a.heartbeatTicker = time.NewTicker(time.Duration(sg.HeartbeatIntervalSeconds) * time.Second)
	a.wg.Add(1)
	go a.heartbeatLoop()

	a.logger.Info("registered with registry", "registry", registryURL)
	return nil
}

// Stop stops the heartbeat loop and change-mirroring subscription. It does
// not unregister the node — the registry's own heartbeat-timeout garbage
// collection reclaims it, matching the teacher's fire-and-forget shutdown
// style for its own health monitor.
func (a *Agent) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.heartbeatTicker != nil {
		a.heartbeatTicker.Stop()
	}
	close(a.stopChan)
	a.wg.Wait()
}

func (a *Agent) registerAll(ctx context.Context) error {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()

	for _, t := range registrationOrder {
		for _, r := range a.store.Iter(t) {
			dto := toRegistrationDTO(r)
			if dto == nil {
				continue
			}
			if err := client.RegisterResource(ctx, string(t), dto); err != nil {
				return err
			}
		}
	}
	return nil
}

// onChange mirrors a single ResourceStore edit to the registry: re-POSTs
// the resource on insert/modify, DELETEs it on erase. It runs on the
// store's own event-dispatch goroutine (spec §4.3), so it must not block
// for long — registration calls already carry their own bounded retry via
// retryablehttp.
func (a *Agent) onChange(ev resource.ChangeEvent) {
	a.mu.RLock()
	client := a.client
	registered := a.registered
	a.mu.RUnlock()
	if !registered || client == nil {
		return
	}
	if !isIS04Type(ev.ResourceType) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if ev.Action == resource.ChangeErase {
		if err := client.UnregisterResource(ctx, string(ev.ResourceType), ev.ID); err != nil {
			a.logger.Warn("failed to mirror resource deletion", "id", ev.ID, "error", err)
		}
		return
	}

	r, ok := a.store.Find(ev.ID, ev.ResourceType)
	if !ok {
		return
	}
	dto := toRegistrationDTO(r)
	if dto == nil {
		return
	}
	if err := client.RegisterResource(ctx, string(ev.ResourceType), dto); err != nil {
		a.logger.Warn("failed to mirror resource change", "id", ev.ID, "error", err)
	}
}

func isIS04Type(t resource.Type) bool {
	switch t {
	case resource.TypeNode, resource.TypeDevice, resource.TypeSource, resource.TypeFlow, resource.TypeSender, resource.TypeReceiver:
		return true
	default:
		return false
	}
}

func toRegistrationDTO(r resource.Resource) any {
	switch v := r.(type) {
	case *resource.Node:
		return models.ToNodeData(v)
	case *resource.Device:
		return models.ToDeviceData(v)
	case *resource.Source:
		return models.ToSourceData(v)
	case *resource.Flow:
		return models.ToFlowData(v)
	case *resource.Sender:
		return models.ToSenderData(v)
	case *resource.Receiver:
		return models.ToReceiverData(v)
	default:
		return nil
	}
}

// heartbeatLoop sends periodic heartbeats and escalates through
// retry → re-register → re-discover on sustained failure (spec §5).
func (a *Agent) heartbeatLoop() {
	defer a.wg.Done()

	consecutiveFailures := 0
	for {
		select {
		case <-a.heartbeatTicker.C:
			a.mu.RLock()
			client := a.client
			registryURL := a.registryURL
			a.mu.RUnlock()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := client.Heartbeat(ctx, a.nodeID)
			cancel()

			if err == nil {
				if consecutiveFailures > 0 {
					a.logger.Info("heartbeat recovered", "registry", registryURL)
				}
				consecutiveFailures = 0
				continue
			}

			consecutiveFailures++
			metrics.IncHeartbeatFailure(registryURL)
			a.logger.Warn("heartbeat failed", "registry", registryURL, "consecutive_failures", consecutiveFailures, "error", err)

			if consecutiveFailures >= 3 {
				a.reregisterOrRediscover()
				consecutiveFailures = 0
			}

		case <-a.stopChan:
			return
		}
	}
}

// reregisterOrRediscover first attempts to re-register the resource tree
// against the current registry; if that also fails it drops the current
// registry and re-runs discovery, matching spec §5's "retry → re-register
// → re-discover" escalation.
func (a *Agent) reregisterOrRediscover() {
	a.mu.RLock()
	registryURL := a.registryURL
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.registerAll(ctx); err == nil {
		metrics.IncRegistrationAttempt(registryURL, "success")
		metrics.SetRegistered(registryURL, true)
		a.logger.Info("re-registered with registry", "registry", registryURL)
		return
	}
	metrics.IncRegistrationAttempt(registryURL, "failure")
	metrics.SetRegistered(registryURL, false)
	a.logger.Warn("re-registration failed, re-discovering registry", "registry", registryURL)

	if a.registryOverride != "" {
		return
	}

	discovered, err := Discover(ctx, a.hostname)
	if err != nil {
		a.logger.Error("re-discovery failed", "error", err)
		return
	}

	a.mu.Lock()
	a.registryURL = discovered
	a.client = NewRegistrationClient(discovered, a.sg, a.logger)
	a.mu.Unlock()

	if err := a.registerAll(ctx); err != nil {
		metrics.IncRegistrationAttempt(discovered, "failure")
		a.logger.Error("registration against newly discovered registry failed", "registry", discovered, "error", err)
		return
	}
	metrics.IncRegistrationAttempt(discovered, "success")
	metrics.SetRegistered(discovered, true)
	a.logger.Info("registered with newly discovered registry", "registry", discovered)
}
