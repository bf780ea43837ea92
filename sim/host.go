// Defines Host, which models a compute host that issues CXL memory
// requests and tracks outstanding requests until their responses arrive.

package sim

// Host issues memory requests to CXL-attached devices and tracks which of
// its requests are still outstanding. Created by a topology builder,
// mutated only by the driver (CreateRequest, ReceiveResponse).
type Host struct {
	ID         int
	HomeSwitch int

	nextPacketID int64
	Sent         int
	Received     int
	outstanding  map[int64]*Packet
}

// NewHost creates a Host attached to homeSwitch.
func NewHost(id, homeSwitch int) *Host {
	return &Host{ID: id, HomeSwitch: homeSwitch, outstanding: make(map[int64]*Packet)}
}

// CreateRequest constructs a new Packet with a fresh id, records it in
// the outstanding set, and increments Sent.
func (h *Host) CreateRequest(dstDevice int, address uint64, isRead bool, priority Priority, timestamp int64) *Packet {
	kind := MemRead
	if !isRead {
		kind = MemWrite
	}
	pkt := &Packet{
		ID:        h.nextPacketID,
		Kind:      kind,
		SrcHost:   h.ID,
		DstDevice: dstDevice,
		Address:   address,
		SizeBytes: DefaultPacketSize,
		Priority:  priority,
		CreatedAt: timestamp,
	}
	h.nextPacketID++
	h.Sent++
	h.outstanding[pkt.ID] = pkt
	return pkt
}

// ReceiveResponse increments Received and removes pkt from the
// outstanding set if present. Responses for unknown ids are tolerated —
// the base design does not model response matching explicitly — and
// ReceiveResponse reports whether the id was found via its bool return.
func (h *Host) ReceiveResponse(pkt *Packet) bool {
	h.Received++
	if _, ok := h.outstanding[pkt.ID]; ok {
		delete(h.outstanding, pkt.ID)
		return true
	}
	return false
}

// NumOutstanding returns the number of in-flight requests.
func (h *Host) NumOutstanding() int { return len(h.outstanding) }
