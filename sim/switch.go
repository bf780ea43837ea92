// Implements Switch, the per-hop queueing and routing element of the
// fabric. Ingress runs synchronously so drops are visible to the caller
// immediately; transmission is scheduled so concurrent arrivals on the
// same output port queue correctly instead of collapsing into
// instantaneous delivery. At most one pending switch_transmit Event may
// target a given port at a time — that invariant is what makes the
// serialization model correct; see DESIGN.md for the legacy bug this
// repository deliberately does not replicate.

package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// DefaultSwitchLatency is the fixed internal cut-through delay (ns) a
// switch imposes before the head byte of a newly scheduled transmission
// leaves the output port.
const DefaultSwitchLatency int64 = 30

// Switch is a collection of Ports plus a routing map from destination
// device to output port index.
type Switch struct {
	ID            int
	Ports         []*Port
	Routes        map[int]int // dst_device -> output port index
	Processed     int
	Dropped       int
	SwitchLatency int64
}

// NewSwitch creates a Switch with the given ports and cut-through latency.
func NewSwitch(id int, ports []*Port, switchLatency int64) *Switch {
	return &Switch{
		ID:            id,
		Ports:         ports,
		Routes:        make(map[int]int),
		SwitchLatency: switchLatency,
	}
}

// SetRoute installs a routing table entry: packets bound for dstDevice
// egress via the given port index.
func (sw *Switch) SetRoute(dstDevice, port int) error {
	if port < 0 || port >= len(sw.Ports) {
		return fmt.Errorf("sim: switch %d has no port %d (routing device %d)", sw.ID, port, dstDevice)
	}
	sw.Routes[dstDevice] = port
	return nil
}

// Ingress routes an incoming packet to its output port. It increments
// Processed unconditionally. A packet whose destination device is
// unmapped, or whose output port is full, is dropped (counted, not an
// error) and Ingress returns false. On success it returns true, and — if
// the port's queue was empty and the port was not already transmitting —
// schedules the port's next switch_transmit Event.
//
// at is the packet's effective arrival timestamp at this switch: for a
// host_send handler that's sched.Now() (the Event's own dispatch time),
// but for a packet forwarded straight from another switch's Egress it is
// that switch's wire-free timestamp, which is later than sched.Now() by
// the upstream port's serialization delay. Callers must pass that value
// rather than sched.Now() so schedule_transmit's cut-through delay is
// added on top of the correct arrival time, not the stale dispatch time
// of the switch_transmit Event that triggered the forward.
func (sw *Switch) Ingress(sched *Scheduler, pkt *Packet, arrivalPort int, at int64) bool {
	sw.Processed++

	portIdx, ok := sw.Routes[pkt.DstDevice]
	if !ok {
		sw.Dropped++
		logrus.Warnf("switch %d: no route for device %d (packet %d arrived on port %d), dropping", sw.ID, pkt.DstDevice, pkt.ID, arrivalPort)
		return false
	}

	port := sw.Ports[portIdx]
	wasEmpty := !port.HasPackets()
	if !port.Enqueue(pkt) {
		sw.Dropped++
		logrus.Warnf("switch %d port %d: queue full, dropping packet %d", sw.ID, portIdx, pkt.ID)
		return false
	}

	if wasEmpty && !port.Transmitting {
		sw.scheduleTransmit(sched, port, at)
	}
	return true
}

// scheduleTransmit sets the port transmitting and schedules the
// switch_transmit Event that will carry its head packet off the wire.
// port.NextFree guards against overlapping transmissions on the same
// port; at + SwitchLatency models the switch's internal cut-through
// delay counted from the packet's actual arrival time, not necessarily
// sched.Now() — see Ingress.
func (sw *Switch) scheduleTransmit(sched *Scheduler, port *Port, at int64) {
	port.Transmitting = true
	txStart := at + sw.SwitchLatency
	if port.NextFree > txStart {
		txStart = port.NextFree
	}
	swID := sw.ID
	outputPort := port.ID
	// txStart is always >= sched.Now(), so this can never fail with a
	// PastEventError.
	_ = sched.Schedule(&Event{
		Timestamp: txStart,
		Kind:      SwitchTransmit,
		SwitchID:  &swID,
		Metadata:  map[string]any{"output_port": outputPort},
	})
}

// Egress is invoked by the switch_transmit handler. It dequeues the head
// packet of the given port, appends this switch's id to the packet's
// route, computes the serialization delay for the packet's size at the
// port's bandwidth, and advances the port's next_free timestamp past it.
// If more packets remain queued it schedules the next transmission;
// otherwise it clears the transmitting flag. Returns the dequeued packet
// (nil if the port was empty, which should not happen given the
// invariant that a switch_transmit Event only fires for a non-empty
// port) and the timestamp at which the packet finishes leaving the wire
// — callers must use this, not sched.Now(), as the arrival time at the
// next hop or device.
func (sw *Switch) Egress(sched *Scheduler, outputPort int) (*Packet, int64) {
	port := sw.Ports[outputPort]
	pkt := port.Dequeue()
	if pkt == nil {
		port.Transmitting = false
		return nil, sched.Now()
	}

	pkt.Route = append(pkt.Route, sw.ID)

	sigma := int64(math.Round(float64(pkt.SizeBytes*8) / port.Bandwidth))
	port.NextFree = sched.Now() + sigma

	if port.HasPackets() {
		sw.scheduleTransmit(sched, port, sched.Now())
	} else {
		port.Transmitting = false
	}
	return pkt, port.NextFree
}
