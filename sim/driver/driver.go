// Package driver implements a conformant binding of the three canonical
// Event kinds to Handlers, per spec §6: it is the "external collaborator"
// that walks a Topology on the Scheduler's behalf. The kernel packages
// (sim, sim/topology, sim/workload) have no dependency on this package —
// the dependency runs one way, from this package to them.
package driver

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skudlur/cxl-fabric-sim/sim"
	"github.com/skudlur/cxl-fabric-sim/sim/topology"
	"github.com/skudlur/cxl-fabric-sim/sim/trace"
	"github.com/skudlur/cxl-fabric-sim/sim/workload"
)

// DeviceLatency is the fixed CXL_DEVICE_LATENCY default (ns).
const DeviceLatency int64 = 150

// Driver binds the Scheduler to a Topology and records completions into a
// Metrics.
type Driver struct {
	Sched         *sim.Scheduler
	Topo          *topology.Topology
	Stats         *sim.Metrics
	DeviceLatency int64
	Trace         *trace.Trace
}

// New builds a Driver over sched/topo/stats and registers its three
// canonical handlers. deviceLatency of 0 uses the package default. A nil
// tr disables tracing.
func New(sched *sim.Scheduler, topo *topology.Topology, stats *sim.Metrics, deviceLatency int64, tr *trace.Trace) *Driver {
	if deviceLatency == 0 {
		deviceLatency = DeviceLatency
	}
	if tr == nil {
		tr = trace.New(trace.LevelNone)
	}
	d := &Driver{Sched: sched, Topo: topo, Stats: stats, DeviceLatency: deviceLatency, Trace: tr}
	sched.Register(sim.HostSend, d.handleHostSend)
	sched.Register(sim.SwitchTransmit, d.handleSwitchTransmit)
	sched.Register(sim.DeviceResponse, d.handleDeviceResponse)
	return d
}

// Seed schedules an initial host_send Event for every generated request.
func (d *Driver) Seed(reqs []workload.Request) error {
	for _, r := range reqs {
		host := d.Topo.HostByID(r.HostID)
		if host == nil {
			return fmt.Errorf("driver: seed: no such host %d", r.HostID)
		}
		pkt := host.CreateRequest(r.DeviceID, r.Address, r.IsRead, sim.Medium, r.Timestamp)
		d.Stats.PacketsSent++
		ev := &sim.Event{
			Timestamp: r.Timestamp,
			Kind:      sim.HostSend,
			Packet:    pkt,
			Metadata:  map[string]any{"host_id": r.HostID},
		}
		if err := d.Sched.Schedule(ev); err != nil {
			return fmt.Errorf("driver: seed: %w", err)
		}
	}
	return nil
}

// handleHostSend invokes Switch.ingress on the host's home switch at the
// host's arrival port.
func (d *Driver) handleHostSend(ev *sim.Event, sched *sim.Scheduler) error {
	d.Trace.Record(trace.Record{Timestamp: ev.Timestamp, Kind: string(ev.Kind), PacketID: ev.Packet.ID})
	hostID, _ := ev.Metadata["host_id"].(int)
	sw := d.Topo.SwitchByID(d.Topo.HostToSwitch[hostID])
	if sw == nil {
		return fmt.Errorf("driver: host_send: no home switch for host %d", hostID)
	}
	arrivalPort := d.Topo.HostPort[hostID]
	if !sw.Ingress(sched, ev.Packet, arrivalPort, sched.Now()) {
		d.Stats.RecordDrop()
	}
	return nil
}

// handleSwitchTransmit invokes Switch.egress and either schedules
// device_response (when the next hop is the destination device) or
// invokes Switch.ingress on the next switch immediately.
func (d *Driver) handleSwitchTransmit(ev *sim.Event, sched *sim.Scheduler) error {
	d.Trace.Record(trace.Record{Timestamp: ev.Timestamp, Kind: string(ev.Kind), SwitchID: ev.SwitchID})
	swID := *ev.SwitchID
	sw := d.Topo.SwitchByID(swID)
	if sw == nil {
		return fmt.Errorf("driver: switch_transmit: no such switch %d", swID)
	}
	outputPort, _ := ev.Metadata["output_port"].(int)

	pkt, wireFree := sw.Egress(sched, outputPort)
	if pkt == nil {
		return nil
	}
	d.Stats.RecordPortOccupancy(swID, outputPort, sw.Ports[outputPort].Occupancy())

	nextSwitch, arrivalPort, delivered, err := d.Topo.NextHop(swID, outputPort, pkt.DstDevice)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	if delivered {
		return sched.Schedule(&sim.Event{
			Timestamp: wireFree + d.DeviceLatency,
			Kind:      sim.DeviceResponse,
			Packet:    pkt,
		})
	}

	next := d.Topo.SwitchByID(nextSwitch)
	if next == nil {
		return fmt.Errorf("driver: switch_transmit: no such switch %d", nextSwitch)
	}
	// The call is synchronous ("immediately" per spec §6), but the
	// packet's effective arrival at next is wireFree, not sched.Now() —
	// sched.Now() here is still this switch's transmit dispatch time,
	// before its own serialization delay elapsed. Passing wireFree keeps
	// the next switch's own schedule_transmit computation (cut-through
	// delay + serialization, cumulative per hop) correct.
	if !next.Ingress(sched, pkt, arrivalPort, wireFree) {
		d.Stats.RecordDrop()
		logrus.Debugf("driver: packet %d dropped at switch %d port %d", pkt.ID, nextSwitch, arrivalPort)
	}
	return nil
}

// handleDeviceResponse invokes Host.receive_response and
// Stats.record_completion.
func (d *Driver) handleDeviceResponse(ev *sim.Event, sched *sim.Scheduler) error {
	d.Trace.Record(trace.Record{Timestamp: ev.Timestamp, Kind: string(ev.Kind), PacketID: ev.Packet.ID})
	host := d.Topo.HostByID(ev.Packet.SrcHost)
	if host == nil {
		return fmt.Errorf("driver: device_response: no such host %d", ev.Packet.SrcHost)
	}
	host.ReceiveResponse(ev.Packet)
	d.Stats.RecordCompletion(ev.Packet, sched.Now())
	return nil
}
