package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/NVIDIA/nvnmos/internal/idgen"
	"github.com/NVIDIA/nvnmos/internal/nmossdp"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

const internalClockName = "clk0"

// Model is the NodeModel of spec §4.4: the business-rule layer over the
// two ResourceStores (IS-04 resources and their IS-05 connection twins)
// that creates/removes sender and receiver bundles and maintains the
// node's interfaces[] and clocks[] invariants.
//
// Every exported method serializes under opMu for the duration of its
// multi-resource edit; each individual resource.Store.Insert/Modify/Erase
// call still emits its own ChangeEvent (spec §4.3's "one notification per
// logical edit" contract belongs to the store, not to the compound
// operation).
type Model struct {
	opMu sync.Mutex

	store     *resource.Store
	connStore *resource.Store

	settings   Settings
	interfaces []HostInterface

	nodeID   string
	deviceID string

	// senderRefclks remembers each live sender's effective ts-refclk legs,
	// keyed by sender id, so RemoveSender can re-derive the node clock from
	// the senders that remain without re-parsing their SDP.
	senderRefclks map[string][][]nmossdp.TsRefclk

	now func() time.Time
}

// NewModel constructs a Model over the given stores. now defaults to
// time.Now and is a seam for deterministic tests.
func NewModel(store, connStore *resource.Store, settings Settings, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	return &Model{
		store:         store,
		connStore:     connStore,
		settings:      settings,
		now:           now,
		senderRefclks: make(map[string][][]nmossdp.TsRefclk),
	}
}

// Init materialises the node and device resources from settings (spec
// §4.4). It must be called exactly once before any add/remove operation.
func (m *Model) Init() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	now := m.now()
	m.nodeID = idgen.ID(m.settings.Seed, idgen.KindNode, "").String()
	m.deviceID = idgen.ID(m.settings.Seed, idgen.KindDevice, "").String()

	nodeRes := resource.NewNode(m.nodeID, now)
	nodeRes.Label = m.settings.Label
	nodeRes.Description = m.settings.Description
	nodeRes.Hostname = m.settings.Hostname
	nodeRes.Href = fmt.Sprintf("http://%s:%d/", m.settings.Hostname, m.settings.HTTPPort)
	nodeRes.Clocks = []resource.Clock{{Name: internalClockName, RefType: "internal"}}
	if err := m.store.Insert(nodeRes); err != nil {
		return newErr(ErrCodeDuplicateID, "failed to insert node resource", err)
	}

	deviceRes := resource.NewDevice(m.deviceID, m.nodeID, now)
	deviceRes.Label = m.settings.Label
	deviceRes.Description = m.settings.Description
	deviceRes.DeviceType = "urn:x-nmos:device:generic"
	deviceRes.Controls = []resource.DeviceControl{
		{Href: nodeRes.Href + "x-nmos/connection/v1.1/", Type: "urn:x-nmos:control:sr-ctrl/v1.1"},
	}
	deviceRes.SetTagOne("urn:x-nvnmos:manufacturer", m.settings.Assets.Manufacturer)
	deviceRes.SetTagOne("urn:x-nvnmos:product", m.settings.Assets.Product)
	deviceRes.SetTagOne("urn:x-nvnmos:instance-id", m.settings.Assets.InstanceID)
	if err := m.store.Insert(deviceRes); err != nil {
		return newErr(ErrCodeDuplicateID, "failed to insert device resource", err)
	}

	m.interfaces = make([]HostInterface, 0, len(m.settings.HostIPs))
	for i, ip := range m.settings.HostIPs {
		m.interfaces = append(m.interfaces, HostInterface{Name: fmt.Sprintf("eth%d", i), IP: ip})
	}

	return nil
}

// NodeID returns the node's derived identifier.
func (m *Model) NodeID() string { return m.nodeID }

// DeviceID returns the device's derived identifier.
func (m *Model) DeviceID() string { return m.deviceID }

func (m *Model) resolveInterface(ip string) (HostInterface, bool) {
	for _, iface := range m.interfaces {
		if iface.IP == ip {
			return iface, true
		}
	}
	return HostInterface{}, false
}

// AddSender parses sdpText, creates the source/flow/sender/connection-
// sender bundle, and updates the node's interfaces and clocks (spec §4.4).
// It returns the sender's derived id.
func (m *Model) AddSender(sdpText string) (string, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	parsed, err := nmossdp.Parse(sdpText, nmossdp.RoleSender)
	if err != nil {
		return "", err
	}
	if len(parsed.SenderLegs) == 0 {
		return "", newErr(ErrCodeInvalidSDP, "sender SDP carries no media descriptions", nil)
	}
	internalID := parsed.InternalID

	if _, exists := m.store.FindByTag(resource.TypeSender, resource.InternalIDTag, internalID); exists {
		return "", newErr(ErrCodeDuplicateID, fmt.Sprintf("sender %q already exists", internalID), nil)
	}

	ifaceNames := make([]string, 0, len(parsed.SenderLegs))
	for _, leg := range parsed.SenderLegs {
		iface, ok := m.resolveInterface(leg.IfaceIP)
		if !ok {
			return "", newErr(ErrCodeInterfaceMissing, fmt.Sprintf("no host interface bound to %s", leg.IfaceIP), nil)
		}
		ifaceNames = append(ifaceNames, iface.Name)
	}

	now := m.now()
	sourceID := idgen.ID(m.settings.Seed, idgen.KindSource, internalID).String()
	flowID := idgen.ID(m.settings.Seed, idgen.KindFlow, internalID).String()
	senderID := idgen.ID(m.settings.Seed, idgen.KindSender, internalID).String()

	leg0 := parsed.SenderLegs[0]

	source := resource.NewSource(sourceID, m.deviceID, leg0.MediaType, now)
	source.ClockName = internalClockName
	flow := resource.NewFlow(flowID, sourceID, m.deviceID, leg0.MediaType, now)

	switch leg0.MediaType {
	case resource.FormatVideo:
		vp := videoParamsFromLeg(leg0)
		flow.Video = vp
		_, _, grainRate, _, _, _, _ := videoDimensionsFromFmtp(leg0.FormatParams)
		source.GrainRate = grainRate
	case resource.FormatAudio:
		ap := audioParamsFromLeg(leg0)
		flow.Audio = ap
		source.Channels = []resource.AudioChannel{{Label: "Channel 1"}}
	case resource.FormatData:
		flow.Ancillary = ancillaryParamsFromLeg(leg0)
	}

	sender := resource.NewSender(senderID, m.deviceID, flowID, now)
	sender.InterfaceBindings = ifaceNames
	sender.ManifestHref = fmt.Sprintf("http://%s:%d/x-nmos/connection/v1.1/single/senders/%s/transportfile", m.settings.Hostname, m.settings.HTTPPort, senderID)
	sender.SetTagOne(resource.InternalIDTag, internalID)
	if parsed.GroupHint != "" {
		sender.SetTagOne(resource.GroupHintTag, parsed.GroupHint)
	}

	connSender := resource.NewConnectionSender(senderID, senderID, now)
	connSender.Skeleton = sdpText
	connSender.StagedParams = make([]resource.SenderTransportParams, len(parsed.SenderLegs))
	connSender.EndpointConstraints = make([]resource.EndpointConstraints, len(parsed.SenderLegs))
	for i, leg := range parsed.SenderLegs {
		connSender.StagedParams[i] = resource.SenderTransportParams{
			SourceIP:        leg.IfaceIP,
			DestinationIP:   leg.DestinationIP,
			DestinationPort: leg.DestinationPort,
			SourcePort:      leg.SourcePort,
			SourcePortAuto:  leg.SourcePortAuto,
			RTPEnabled:      leg.RTPEnabled,
		}
		connSender.EndpointConstraints[i] = resource.EndpointConstraints{SourceIPEnum: []string{leg.IfaceIP}}
	}

	if err := m.store.Insert(source); err != nil {
		return "", err
	}
	if err := m.store.Insert(flow); err != nil {
		return "", err
	}
	if err := m.store.Insert(sender); err != nil {
		return "", err
	}
	if err := m.connStore.Insert(connSender); err != nil {
		return "", err
	}

	if err := m.appendDeviceSender(senderID); err != nil {
		return "", err
	}
	m.senderRefclks[senderID] = legRefclks(parsed.SenderLegs)
	m.recomputeInterfaces()
	m.maintainClock(m.allSenderRefclks())

	return senderID, nil
}

// AddReceiver parses sdpText, creates the receiver/connection-receiver
// bundle with its BCP-004-01 capability constraint sets, and updates the
// node's interfaces (spec §4.4).
func (m *Model) AddReceiver(sdpText string) (string, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	parsed, err := nmossdp.Parse(sdpText, nmossdp.RoleReceiver)
	if err != nil {
		return "", err
	}
	if len(parsed.ReceiverLegs) == 0 {
		return "", newErr(ErrCodeInvalidSDP, "receiver SDP carries no media descriptions", nil)
	}
	internalID := parsed.InternalID

	if _, exists := m.store.FindByTag(resource.TypeReceiver, resource.InternalIDTag, internalID); exists {
		return "", newErr(ErrCodeDuplicateID, fmt.Sprintf("receiver %q already exists", internalID), nil)
	}

	ifaceNames := make([]string, 0, len(parsed.ReceiverLegs))
	for _, leg := range parsed.ReceiverLegs {
		iface, ok := m.resolveInterface(leg.IfaceIP)
		if !ok {
			return "", newErr(ErrCodeInterfaceMissing, fmt.Sprintf("no host interface bound to %s", leg.IfaceIP), nil)
		}
		ifaceNames = append(ifaceNames, iface.Name)
	}

	now := m.now()
	receiverID := idgen.ID(m.settings.Seed, idgen.KindReceiver, internalID).String()
	leg0 := parsed.ReceiverLegs[0]

	receiver := resource.NewReceiver(receiverID, m.deviceID, leg0.MediaType, now)
	receiver.InterfaceBindings = ifaceNames
	receiver.SetTagOne(resource.InternalIDTag, internalID)
	if parsed.GroupHint != "" {
		receiver.SetTagOne(resource.GroupHintTag, parsed.GroupHint)
	}
	if leg0.EncodingName != "" {
		receiver.AcceptedMediaTypes = []string{string(leg0.MediaType) + "/" + leg0.EncodingName}
	}
	for _, leg := range parsed.ReceiverLegs {
		receiver.ConstraintSets = append(receiver.ConstraintSets, capabilityConstraintSet(leg))
	}

	connReceiver := resource.NewConnectionReceiver(receiverID, receiverID, now)
	connReceiver.Skeleton = sdpText
	connReceiver.StagedParams = make([]resource.ReceiverTransportParams, len(parsed.ReceiverLegs))
	connReceiver.EndpointConstraints = make([]resource.EndpointConstraints, len(parsed.ReceiverLegs))
	for i, leg := range parsed.ReceiverLegs {
		connReceiver.StagedParams[i] = resource.ReceiverTransportParams{
			InterfaceIP:     leg.IfaceIP,
			MulticastIP:     leg.MulticastIP,
			SourceIP:        leg.SourceIP,
			DestinationPort: leg.DestinationPort,
			RTPEnabled:      leg.RTPEnabled,
		}
		connReceiver.EndpointConstraints[i] = resource.EndpointConstraints{InterfaceIPEnum: []string{leg.IfaceIP}}
	}

	if err := m.store.Insert(receiver); err != nil {
		return "", err
	}
	if err := m.connStore.Insert(connReceiver); err != nil {
		return "", err
	}
	if err := m.appendDeviceReceiver(receiverID); err != nil {
		return "", err
	}
	m.recomputeInterfaces()

	return receiverID, nil
}

// RemoveSender deletes the connection twin, sender, flow, and source
// belonging to internalID, then updates the device, interfaces, and
// clocks (spec §4.4).
func (m *Model) RemoveSender(internalID string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	r, ok := m.store.FindByTag(resource.TypeSender, resource.InternalIDTag, internalID)
	if !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("sender %q not found", internalID), nil)
	}
	sender := r.(*resource.Sender)
	senderID := sender.ID
	flowID := sender.FlowID

	var sourceID string
	if f, ok := m.store.Find(flowID, resource.TypeFlow); ok {
		sourceID = f.(*resource.Flow).SourceID
	}

	delete(m.senderRefclks, senderID)

	if _, err := m.connStore.Erase(senderID); err != nil {
		return err
	}
	if _, err := m.store.Erase(senderID); err != nil {
		return err
	}
	if flowID != "" {
		if _, err := m.store.Erase(flowID); err != nil {
			return err
		}
	}
	if sourceID != "" {
		if _, err := m.store.Erase(sourceID); err != nil {
			return err
		}
	}

	if err := m.removeDeviceSender(senderID); err != nil {
		return err
	}
	m.recomputeInterfaces()
	m.maintainClock(m.allSenderRefclks())

	return nil
}

// RemoveReceiver deletes the connection twin and the receiver belonging
// to internalID, then updates the device and interfaces.
func (m *Model) RemoveReceiver(internalID string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	r, ok := m.store.FindByTag(resource.TypeReceiver, resource.InternalIDTag, internalID)
	if !ok {
		return newErr(ErrCodeNotFound, fmt.Sprintf("receiver %q not found", internalID), nil)
	}
	receiverID := r.(*resource.Receiver).ID

	if _, err := m.connStore.Erase(receiverID); err != nil {
		return err
	}
	if _, err := m.store.Erase(receiverID); err != nil {
		return err
	}
	if err := m.removeDeviceReceiver(receiverID); err != nil {
		return err
	}
	m.recomputeInterfaces()

	return nil
}

func (m *Model) appendDeviceSender(senderID string) error {
	return m.store.Modify(m.deviceID, func(r resource.Resource) error {
		d := r.(*resource.Device)
		d.SenderIDs = append(d.SenderIDs, senderID)
		return nil
	})
}

func (m *Model) appendDeviceReceiver(receiverID string) error {
	return m.store.Modify(m.deviceID, func(r resource.Resource) error {
		d := r.(*resource.Device)
		d.ReceiverIDs = append(d.ReceiverIDs, receiverID)
		return nil
	})
}

func (m *Model) removeDeviceSender(senderID string) error {
	return m.store.Modify(m.deviceID, func(r resource.Resource) error {
		d := r.(*resource.Device)
		d.SenderIDs = removeString(d.SenderIDs, senderID)
		return nil
	})
}

func (m *Model) removeDeviceReceiver(receiverID string) error {
	return m.store.Modify(m.deviceID, func(r resource.Resource) error {
		d := r.(*resource.Device)
		d.ReceiverIDs = removeString(d.ReceiverIDs, receiverID)
		return nil
	})
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}

// recomputeInterfaces sets the node's interfaces[] to exactly the union
// of names referenced by any sender's or receiver's interface_bindings
// (spec §3 invariant 2), mutating the node only if the set changed so no
// spurious version bump occurs (spec §4.4).
func (m *Model) recomputeInterfaces() {
	referenced := map[string]struct{}{}
	for _, r := range m.store.Iter(resource.TypeSender) {
		for _, name := range r.(*resource.Sender).InterfaceBindings {
			referenced[name] = struct{}{}
		}
	}
	for _, r := range m.store.Iter(resource.TypeReceiver) {
		for _, name := range r.(*resource.Receiver).InterfaceBindings {
			referenced[name] = struct{}{}
		}
	}

	nodeRes, ok := m.store.Find(m.nodeID, resource.TypeNode)
	if !ok {
		return
	}
	node := nodeRes.(*resource.Node)

	changed := len(node.Interfaces) != len(referenced)
	if !changed {
		for _, existing := range node.Interfaces {
			if _, ok := referenced[existing.Name]; !ok {
				changed = true
				break
			}
		}
	}
	if !changed {
		return
	}

	next := make([]resource.Interface, 0, len(referenced))
	for _, iface := range m.interfaces {
		if _, ok := referenced[iface.Name]; ok {
			next = append(next, resource.Interface{Name: iface.Name})
		}
	}
	m.store.Modify(m.nodeID, func(r resource.Resource) error {
		r.(*resource.Node).Interfaces = next
		return nil
	})
}

// legRefclks collects the effective ts-refclk list of every sender leg.
func legRefclks(legs []nmossdp.SenderLeg) [][]nmossdp.TsRefclk {
	out := make([][]nmossdp.TsRefclk, len(legs))
	for i, leg := range legs {
		out[i] = leg.TsRefclk
	}
	return out
}

// allSenderRefclks flattens the live senderRefclks map into the shape
// maintainClock expects, covering every sender still present after the
// current add/remove has taken effect.
func (m *Model) allSenderRefclks() [][]nmossdp.TsRefclk {
	var out [][]nmossdp.TsRefclk
	for _, legs := range m.senderRefclks {
		out = append(out, legs...)
	}
	return out
}

// maintainClock updates the node's internal clock to PTP when any of the
// given sender legs carries a non-localmac ts-refclk, and reverts it to
// internal otherwise (spec §3 invariant 3, §4.4 "Clock maintenance").
func (m *Model) maintainClock(legRefs [][]nmossdp.TsRefclk) {
	nodeRes, ok := m.store.Find(m.nodeID, resource.TypeNode)
	if !ok {
		return
	}
	node := nodeRes.(*resource.Node)

	var previousDomain *int
	for _, c := range node.Clocks {
		if c.Name == internalClockName {
			previousDomain = c.Domain
		}
	}

	clock, ok := nmossdp.DeriveClock(legRefs, previousDomain)
	var next resource.Clock
	if ok {
		next = resource.Clock{Name: internalClockName, RefType: "ptp", GMID: clock.GMID, Domain: clock.Domain, Traceable: clock.Traceable}
	} else {
		next = resource.Clock{Name: internalClockName, RefType: "internal"}
	}

	changed := true
	for _, c := range node.Clocks {
		if c.Name != internalClockName {
			continue
		}
		changed = c.RefType != next.RefType || c.GMID != next.GMID || c.Traceable != next.Traceable
		switch {
		case c.Domain == nil && next.Domain == nil:
		case c.Domain == nil || next.Domain == nil:
			changed = true
		default:
			changed = changed || *c.Domain != *next.Domain
		}
		break
	}
	if !changed {
		return
	}

	m.store.Modify(m.nodeID, func(r resource.Resource) error {
		n := r.(*resource.Node)
		for i, c := range n.Clocks {
			if c.Name == internalClockName {
				n.Clocks[i] = next
				return nil
			}
		}
		n.Clocks = append(n.Clocks, next)
		return nil
	})
}
