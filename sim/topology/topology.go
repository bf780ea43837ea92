// Package topology builds the switch/host/device graph a simulation runs
// over and answers next-hop routing queries on behalf of a driver. It
// deliberately owns no live pointers inside sim.Event payloads — switches
// are addressed by id through the Topology, never captured by closures.
package topology

import (
	"fmt"

	"github.com/skudlur/cxl-fabric-sim/sim"
)

// Kind selects a topology builder.
const (
	Single  = "single"
	TwoTier = "two_tier"
)

// Params configures a topology build. Single-tier builds read NumHosts,
// NumDevices, Capacity, Bandwidth, and SwitchLatency. Two-tier builds read
// Capacity, Bandwidth, SwitchLatency, NumSpines, NumLeaves, HostsPerLeaf,
// and DevicesPerLeaf; their host and device counts follow from those, and
// NumHosts and NumDevices are ignored.
type Params struct {
	Kind          string
	NumHosts      int
	NumDevices    int
	Capacity      int
	Bandwidth     float64
	SwitchLatency int64

	NumSpines      int
	NumLeaves      int
	HostsPerLeaf   int
	DevicesPerLeaf int

	// HostLeafPolicy selects which spine a host leaf routes all traffic
	// through. Nil defaults to spine 0, per the spec's deliberately
	// simple policy (see Design Notes open question (c)).
	HostLeafPolicy func(numSpines int) int
}

// Link is a bidirectional inter-switch connection.
type Link struct {
	SwitchA int
	PortA   int
	SwitchB int
	PortB   int
}

// Topology is the built graph: switches, hosts, device ids, attachment
// maps, and the inter-switch link list.
type Topology struct {
	Switches []*sim.Switch
	Hosts    []*sim.Host
	Devices  []int

	HostToSwitch   map[int]int
	DeviceToSwitch map[int]int
	// HostPort is the arrival port a host's traffic enters its home
	// switch on.
	HostPort map[int]int
	// DevicePort is the device-side port on a device's leaf switch.
	DevicePort map[int]int

	Links []Link

	switchByID map[int]*sim.Switch
	hostByID   map[int]*sim.Host
}

// RoutingError reports a topology/routing inconsistency discovered while
// computing a next hop; per the spec this is fatal.
type RoutingError struct {
	SwitchID   int
	OutputPort int
	DstDevice  int
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("topology: no link or device found for switch %d port %d (routing device %d)", e.SwitchID, e.OutputPort, e.DstDevice)
}

// NewTopology dispatches to the builder named by p.Kind.
func NewTopology(p Params) (*Topology, error) {
	switch p.Kind {
	case Single:
		return buildSingleTier(p)
	case TwoTier:
		return buildTwoTier(p)
	default:
		return nil, &sim.UnknownKindError{Component: "topology", Kind: p.Kind}
	}
}

func (t *Topology) index() {
	t.switchByID = make(map[int]*sim.Switch, len(t.Switches))
	for _, sw := range t.Switches {
		t.switchByID[sw.ID] = sw
	}
	t.hostByID = make(map[int]*sim.Host, len(t.Hosts))
	for _, h := range t.Hosts {
		t.hostByID[h.ID] = h
	}
}

// SwitchByID returns the switch with the given id, or nil.
func (t *Topology) SwitchByID(id int) *sim.Switch { return t.switchByID[id] }

// HostByID returns the host with the given id, or nil.
func (t *Topology) HostByID(id int) *sim.Host { return t.hostByID[id] }

// buildSingleTier builds the single-switch topology of spec §4.5: one
// switch with num_hosts+num_devices ports, hosts on 0..num_hosts-1,
// devices on num_hosts.. in order, routed 1:1.
func buildSingleTier(p Params) (*Topology, error) {
	numPorts := p.NumHosts + p.NumDevices
	ports := make([]*sim.Port, numPorts)
	for i := range ports {
		ports[i] = sim.NewPort(i, p.Capacity, p.Bandwidth)
	}
	sw := sim.NewSwitch(0, ports, p.SwitchLatency)

	t := &Topology{
		Switches:       []*sim.Switch{sw},
		HostToSwitch:   make(map[int]int),
		DeviceToSwitch: make(map[int]int),
		HostPort:       make(map[int]int),
		DevicePort:     make(map[int]int),
	}

	for h := 0; h < p.NumHosts; h++ {
		t.Hosts = append(t.Hosts, sim.NewHost(h, 0))
		t.HostToSwitch[h] = 0
		t.HostPort[h] = h
	}
	for i := 0; i < p.NumDevices; i++ {
		d := i
		port := p.NumHosts + i
		t.Devices = append(t.Devices, d)
		t.DeviceToSwitch[d] = 0
		t.DevicePort[d] = port
		if err := sw.SetRoute(d, port); err != nil {
			return nil, err
		}
	}

	t.index()
	return t, nil
}

// buildTwoTier builds the spine-leaf topology of spec §4.5.
func buildTwoTier(p Params) (*Topology, error) {
	hostLeaves := p.NumLeaves/2 + 1
	if hostLeaves > p.NumLeaves {
		hostLeaves = p.NumLeaves
	}
	deviceLeaves := p.NumLeaves - hostLeaves

	endpointPorts := p.HostsPerLeaf
	if p.DevicesPerLeaf > endpointPorts {
		endpointPorts = p.DevicesPerLeaf
	}
	leafPorts := p.NumSpines + endpointPorts

	t := &Topology{
		HostToSwitch:   make(map[int]int),
		DeviceToSwitch: make(map[int]int),
		HostPort:       make(map[int]int),
		DevicePort:     make(map[int]int),
	}

	// Switch ids: spines first (0..numSpines-1), then leaves
	// (numSpines..numSpines+numLeaves-1), host leaves first.
	spines := make([]*sim.Switch, p.NumSpines)
	for s := 0; s < p.NumSpines; s++ {
		ports := make([]*sim.Port, p.NumLeaves)
		for i := range ports {
			ports[i] = sim.NewPort(i, p.Capacity, p.Bandwidth)
		}
		spines[s] = sim.NewSwitch(s, ports, p.SwitchLatency)
		t.Switches = append(t.Switches, spines[s])
	}

	leaves := make([]*sim.Switch, p.NumLeaves)
	for l := 0; l < p.NumLeaves; l++ {
		id := p.NumSpines + l
		ports := make([]*sim.Port, leafPorts)
		for i := range ports {
			ports[i] = sim.NewPort(i, p.Capacity, p.Bandwidth)
		}
		leaves[l] = sim.NewSwitch(id, ports, p.SwitchLatency)
		t.Switches = append(t.Switches, leaves[l])
	}

	// Full bipartite spine-leaf mesh. Spine s's port toward leaf l is l;
	// leaf l's port toward spine s is s (both index ranges are disjoint
	// from endpoint ports by construction above).
	for s := 0; s < p.NumSpines; s++ {
		for l := 0; l < p.NumLeaves; l++ {
			t.Links = append(t.Links, Link{
				SwitchA: spines[s].ID, PortA: l,
				SwitchB: leaves[l].ID, PortB: s,
			})
		}
	}

	// Host leaves: first hostLeaves leaves.
	hostID := 0
	for l := 0; l < hostLeaves; l++ {
		for i := 0; i < p.HostsPerLeaf; i++ {
			port := p.NumSpines + i
			t.Hosts = append(t.Hosts, sim.NewHost(hostID, leaves[l].ID))
			t.HostToSwitch[hostID] = leaves[l].ID
			t.HostPort[hostID] = port
			hostID++
		}
	}

	// Device leaves: remaining leaves.
	devID := 0
	for li := 0; li < deviceLeaves; li++ {
		l := hostLeaves + li
		for i := 0; i < p.DevicesPerLeaf; i++ {
			port := p.NumSpines + i
			t.Devices = append(t.Devices, devID)
			t.DeviceToSwitch[devID] = leaves[l].ID
			t.DevicePort[devID] = port
			if err := leaves[l].SetRoute(devID, port); err != nil {
				return nil, err
			}
			devID++
		}
	}

	// Spine routing: for each device, route out the port connecting to
	// the device's leaf.
	for s := 0; s < p.NumSpines; s++ {
		for li := 0; li < deviceLeaves; li++ {
			l := hostLeaves + li
			for i := 0; i < p.DevicesPerLeaf; i++ {
				d := li*p.DevicesPerLeaf + i
				if err := spines[s].SetRoute(d, l); err != nil {
					return nil, err
				}
			}
		}
	}

	// Host-leaf routing: all traffic to spine 0's uplink port, per the
	// default (parameterizable) policy.
	spineChoice := 0
	if p.HostLeafPolicy != nil {
		spineChoice = p.HostLeafPolicy(p.NumSpines)
	}
	for l := 0; l < hostLeaves; l++ {
		for d := 0; d < devID; d++ {
			if err := leaves[l].SetRoute(d, spineChoice); err != nil {
				return nil, err
			}
		}
	}

	t.index()
	return t, nil
}

// NextHop computes the next switch and arrival port for a packet egressing
// switchID on outputPort bound for dstDevice, per spec §4.5: a device leaf
// whose device-side port matches delivers directly; otherwise the matching
// switch_links tuple determines the next switch and arrival port.
func (t *Topology) NextHop(switchID, outputPort, dstDevice int) (nextSwitch, arrivalPort int, delivered bool, err error) {
	if t.DeviceToSwitch[dstDevice] == switchID && t.DevicePort[dstDevice] == outputPort {
		return 0, 0, true, nil
	}
	for _, link := range t.Links {
		if link.SwitchA == switchID && link.PortA == outputPort {
			return link.SwitchB, link.PortB, false, nil
		}
		if link.SwitchB == switchID && link.PortB == outputPort {
			return link.SwitchA, link.PortA, false, nil
		}
	}
	return 0, 0, false, &RoutingError{SwitchID: switchID, OutputPort: outputPort, DstDevice: dstDevice}
}
