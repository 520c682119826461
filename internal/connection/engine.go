package connection

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/nvnmos/internal/nmossdp"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

// ActivationCallback delivers the reconstructed internal-form SDP to the
// embedding host whenever a sender/receiver crosses the active boundary
// (spec §4.5 "Activation callback"). sdp is empty on deactivation.
type ActivationCallback func(internalID, sdp string)

// Engine is the ConnectionEngine of spec §4.5: the staged/active state
// machine, auto resolver, transport-file synthesizer, and host-initiated
// activation path, layered over the two ResourceStores NodeModel also
// uses.
type Engine struct {
	store     *resource.Store
	connStore *resource.Store
	now       func() time.Time
	onActive  ActivationCallback

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewEngine constructs an Engine. now defaults to time.Now (a seam for
// scheduled-activation tests, spec §9). onActive may be nil.
func NewEngine(store, connStore *resource.Store, now func() time.Time, onActive ActivationCallback) *Engine {
	if now == nil {
		now = time.Now
	}
	if onActive == nil {
		onActive = func(string, string) {}
	}
	return &Engine{
		store:     store,
		connStore: connStore,
		now:       now,
		onActive:  onActive,
		timers:    make(map[string]*time.Timer),
	}
}

// PatchSenderStaged applies a PATCH /staged body to a sender's connection
// resource, triggering activation inline when the patch carries a non-empty
// activation mode (spec §4.5).
func (e *Engine) PatchSenderStaged(senderID string, patch StagedPatch) error {
	if _, ok := e.connStore.Find(senderID, resource.TypeConnectionSender); !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("sender %q not found", senderID), nil)
	}

	err := e.connStore.Modify(senderID, func(r resource.Resource) error {
		c := r.(*resource.ConnectionSender)
		if patch.MasterEnable != nil {
			c.MasterEnableStaged = *patch.MasterEnable
		}
		c.StagedParams = mergeSenderLegs(c.StagedParams, patch.SenderLegs)
		if patch.Activation != nil {
			c.StagedActivation = resource.Activation{Mode: patch.Activation.Mode, RequestedTime: patch.Activation.RequestedTime}
		}
		return nil
	})
	if err != nil {
		return newErr(ErrCodeInvalidPatch, "failed to merge staged sender patch", err)
	}

	if patch.Activation != nil && patch.Activation.Mode != resource.ActivationNone {
		return e.triggerActivation(senderKey(senderID), patch.Activation, func() error { return e.activateSenderNow(senderID) })
	}
	return nil
}

// PatchReceiverStaged is the receiver equivalent of PatchSenderStaged.
func (e *Engine) PatchReceiverStaged(receiverID string, patch StagedPatch) error {
	if _, ok := e.connStore.Find(receiverID, resource.TypeConnectionReceiver); !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("receiver %q not found", receiverID), nil)
	}

	err := e.connStore.Modify(receiverID, func(r resource.Resource) error {
		c := r.(*resource.ConnectionReceiver)
		if patch.MasterEnable != nil {
			c.MasterEnableStaged = *patch.MasterEnable
		}
		c.StagedParams = mergeReceiverLegs(c.StagedParams, patch.ReceiverLegs)
		if patch.Activation != nil {
			c.StagedActivation = resource.Activation{Mode: patch.Activation.Mode, RequestedTime: patch.Activation.RequestedTime}
		}
		return nil
	})
	if err != nil {
		return newErr(ErrCodeInvalidPatch, "failed to merge staged receiver patch", err)
	}

	if patch.Activation != nil && patch.Activation.Mode != resource.ActivationNone {
		return e.triggerActivation(receiverKey(receiverID), patch.Activation, func() error { return e.activateReceiverNow(receiverID) })
	}
	return nil
}

func senderKey(id string) string   { return "sender:" + id }
func receiverKey(id string) string { return "receiver:" + id }

// triggerActivation applies an activation immediately, or schedules it for
// a later instant using the engine's clock seam (spec §9 "scheduled-
// activation clock seam").
func (e *Engine) triggerActivation(key string, req *ActivationRequest, apply func() error) error {
	switch req.Mode {
	case resource.ActivationImmediate:
		return apply()
	case resource.ActivationScheduledRelative:
		d, err := parseTAIDuration(req.RequestedTime)
		if err != nil {
			return newErr(ErrCodeInvalidActivation, "invalid relative requested_time", err)
		}
		e.schedule(key, d, apply)
		return nil
	case resource.ActivationScheduledAbsolute:
		target, err := parseTAI(req.RequestedTime)
		if err != nil {
			return newErr(ErrCodeInvalidActivation, "invalid absolute requested_time", err)
		}
		e.schedule(key, target.Sub(e.now()), apply)
		return nil
	default:
		return newErr(ErrCodeInvalidActivation, fmt.Sprintf("unsupported activation mode %q", req.Mode), nil)
	}
}

func (e *Engine) schedule(key string, d time.Duration, apply func() error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.timers[key]; ok {
		existing.Stop()
	}
	if d <= 0 {
		go apply()
		delete(e.timers, key)
		return
	}
	e.timers[key] = time.AfterFunc(d, func() {
		apply()
	})
}

func (e *Engine) currentPTPDomain() *int {
	nodes := e.store.Iter(resource.TypeNode)
	if len(nodes) == 0 {
		return nil
	}
	node := nodes[0].(*resource.Node)
	for _, c := range node.Clocks {
		if c.RefType == "ptp" {
			return c.Domain
		}
	}
	return nil
}

// activateSenderNow copies staged into active, runs the auto resolver,
// re-synthesizes the transport file, and invokes the activation callback
// (spec §4.5).
func (e *Engine) activateSenderNow(senderID string) error {
	r, ok := e.connStore.Find(senderID, resource.TypeConnectionSender)
	if !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("sender %q not found", senderID), nil)
	}
	c := r.(*resource.ConnectionSender)
	resolved := autoResolveSenderLegs(senderID, c.StagedParams, c.EndpointConstraints)
	masterEnable := c.MasterEnableStaged

	ptpDomain := e.currentPTPDomain()
	transportFile, err := synthesizeSenderTransportFile(c.Skeleton, resolved, ptpDomain, e.now())
	if err != nil {
		return err
	}

	activationTime := formatTAI(e.now())
	err = e.connStore.Modify(senderID, func(r resource.Resource) error {
		c := r.(*resource.ConnectionSender)
		c.ActiveParams = resolved
		c.MasterEnableActive = masterEnable
		c.ActiveActivation = resource.Activation{Mode: resource.ActivationImmediate, ActivationTime: activationTime}
		c.TransportFile = transportFile
		return nil
	})
	if err != nil {
		return err
	}

	internalID := e.internalID(resource.TypeSender, senderID)
	if masterEnable {
		sdp, err := reconstructSenderInternalSDP(c.Skeleton, resolved, ptpDomain, e.now())
		if err == nil {
			e.onActive(internalID, sdp)
		}
	} else {
		e.onActive(internalID, "")
	}
	return nil
}

func (e *Engine) activateReceiverNow(receiverID string) error {
	r, ok := e.connStore.Find(receiverID, resource.TypeConnectionReceiver)
	if !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("receiver %q not found", receiverID), nil)
	}
	c := r.(*resource.ConnectionReceiver)
	resolved := autoResolveReceiverLegs(c.StagedParams, c.EndpointConstraints)
	masterEnable := c.MasterEnableStaged

	activationTime := formatTAI(e.now())
	err := e.connStore.Modify(receiverID, func(r resource.Resource) error {
		c := r.(*resource.ConnectionReceiver)
		c.ActiveParams = resolved
		c.MasterEnableActive = masterEnable
		c.ActiveActivation = resource.Activation{Mode: resource.ActivationImmediate, ActivationTime: activationTime}
		return nil
	})
	if err != nil {
		return err
	}

	internalID := e.internalID(resource.TypeReceiver, receiverID)
	if masterEnable {
		sdp, err := reconstructReceiverInternalSDP(c.Skeleton, resolved, e.now())
		if err == nil {
			e.onActive(internalID, sdp)
		}
	} else {
		e.onActive(internalID, "")
	}
	return nil
}

func (e *Engine) internalID(t resource.Type, id string) string {
	r, ok := e.store.Find(id, t)
	if !ok {
		return ""
	}
	return r.Envelope().TagOne(resource.InternalIDTag)
}

// Activate is the host-initiated activation path (spec §4.5): given an
// internal id and an SDP (or empty SDP to deactivate), it locates the
// sender or receiver, rewrites its active endpoint directly, and invokes
// the activation callback. The SDP is expected in the node's own internal
// form (the same shape AddSender/AddReceiver accept) — see DESIGN.md's
// internal/connection section for why this resolves the ambiguity of "an SDP"
// in favor of the one shape the engine already knows how to parse.
func (e *Engine) Activate(internalID, sdp string) error {
	if r, ok := e.store.FindByTag(resource.TypeSender, resource.InternalIDTag, internalID); ok {
		return e.activateSenderHostInitiated(r.Envelope().ID, sdp)
	}
	if r, ok := e.store.FindByTag(resource.TypeReceiver, resource.InternalIDTag, internalID); ok {
		return e.activateReceiverHostInitiated(r.Envelope().ID, sdp)
	}
	return newErr(ErrCodeNotFound, fmt.Sprintf("no sender or receiver with internal id %q", internalID), nil)
}

func (e *Engine) activateSenderHostInitiated(senderID, sdp string) error {
	r, ok := e.connStore.Find(senderID, resource.TypeConnectionSender)
	if !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("sender %q not found", senderID), nil)
	}
	c := r.(*resource.ConnectionSender)

	activationTime := formatTAI(e.now())
	if sdp == "" {
		err := e.connStore.Modify(senderID, func(r resource.Resource) error {
			c := r.(*resource.ConnectionSender)
			for i := range c.ActiveParams {
				c.ActiveParams[i].RTPEnabled = false
			}
			c.MasterEnableActive = false
			c.ActiveActivation = resource.Activation{Mode: resource.ActivationImmediate, ActivationTime: activationTime}
			return nil
		})
		if err != nil {
			return err
		}
		e.onActive(e.internalID(resource.TypeSender, senderID), "")
		return nil
	}

	parsed, err := nmossdp.Parse(sdp, nmossdp.RoleSender)
	if err != nil {
		return newErr(ErrCodeInvalidSDP, "activate SDP is not parseable", err)
	}
	active := make([]resource.SenderTransportParams, len(parsed.SenderLegs))
	for i, leg := range parsed.SenderLegs {
		active[i] = resource.SenderTransportParams{
			SourceIP:        leg.IfaceIP,
			DestinationIP:   leg.DestinationIP,
			DestinationPort: leg.DestinationPort,
			SourcePort:      leg.SourcePort,
			SourcePortAuto:  leg.SourcePortAuto,
			RTPEnabled:      leg.RTPEnabled,
		}
	}

	ptpDomain := e.currentPTPDomain()
	transportFile, err := synthesizeSenderTransportFile(c.Skeleton, active, ptpDomain, e.now())
	if err != nil {
		return err
	}

	err = e.connStore.Modify(senderID, func(r resource.Resource) error {
		c := r.(*resource.ConnectionSender)
		c.ActiveParams = active
		c.MasterEnableActive = true
		c.ActiveActivation = resource.Activation{Mode: resource.ActivationImmediate, ActivationTime: activationTime}
		c.TransportFile = transportFile
		return nil
	})
	if err != nil {
		return err
	}

	internalSDP, err := reconstructSenderInternalSDP(c.Skeleton, active, ptpDomain, e.now())
	if err == nil {
		e.onActive(e.internalID(resource.TypeSender, senderID), internalSDP)
	}
	return nil
}

func (e *Engine) activateReceiverHostInitiated(receiverID, sdp string) error {
	if _, ok := e.connStore.Find(receiverID, resource.TypeConnectionReceiver); !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("receiver %q not found", receiverID), nil)
	}

	activationTime := formatTAI(e.now())
	if sdp == "" {
		err := e.connStore.Modify(receiverID, func(r resource.Resource) error {
			c := r.(*resource.ConnectionReceiver)
			for i := range c.ActiveParams {
				c.ActiveParams[i].RTPEnabled = false
			}
			c.MasterEnableActive = false
			c.ActiveActivation = resource.Activation{Mode: resource.ActivationImmediate, ActivationTime: activationTime}
			return nil
		})
		if err != nil {
			return err
		}
		e.onActive(e.internalID(resource.TypeReceiver, receiverID), "")
		return nil
	}

	parsed, err := nmossdp.Parse(sdp, nmossdp.RoleReceiver)
	if err != nil {
		return newErr(ErrCodeInvalidSDP, "activate SDP is not parseable", err)
	}
	active := make([]resource.ReceiverTransportParams, len(parsed.ReceiverLegs))
	for i, leg := range parsed.ReceiverLegs {
		active[i] = resource.ReceiverTransportParams{
			InterfaceIP:     leg.IfaceIP,
			MulticastIP:     leg.MulticastIP,
			SourceIP:        leg.SourceIP,
			DestinationPort: leg.DestinationPort,
			RTPEnabled:      leg.RTPEnabled,
		}
	}

	err = e.connStore.Modify(receiverID, func(r resource.Resource) error {
		c := r.(*resource.ConnectionReceiver)
		c.ActiveParams = active
		c.MasterEnableActive = true
		c.ActiveActivation = resource.Activation{Mode: resource.ActivationImmediate, ActivationTime: activationTime}
		c.TransportFile = sdp
		return nil
	})
	if err != nil {
		return err
	}

	e.onActive(e.internalID(resource.TypeReceiver, receiverID), sdp)
	return nil
}

// formatTAI renders t as a "seconds:nanoseconds" TAI-shaped timestamp, the
// same wire format spec §3 uses for resource versions.
func formatTAI(t time.Time) string {
	return fmt.Sprintf("%d:%d", t.Unix(), t.Nanosecond())
}

// parseTAI parses a "seconds:nanoseconds" absolute timestamp.
func parseTAI(s string) (time.Time, error) {
	sec, nsec, err := splitTAI(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, nsec), nil
}

// parseTAIDuration parses a "seconds:nanoseconds" relative offset.
func parseTAIDuration(s string) (time.Duration, error) {
	sec, nsec, err := splitTAI(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec)*time.Second + time.Duration(nsec)*time.Nanosecond, nil
}

func splitTAI(s string) (sec int64, nsec int64, err error) {
	parts := strings.SplitN(s, ":", 2)
	sec, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid seconds component %q", parts[0])
	}
	if len(parts) == 2 {
		nsec, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid nanoseconds component %q", parts[1])
		}
	}
	return sec, nsec, nil
}
