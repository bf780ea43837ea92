package sim

// Kind is the string tag identifying an Event's type. The three canonical
// kinds form the contract between the kernel and any driver (see
// sim/driver); additional kinds may be registered by callers that extend
// the simulation with their own handlers.
type Kind string

const (
	// HostSend carries a freshly created Packet from a host into its home
	// switch. Metadata carries {"host_id": int}.
	HostSend Kind = "host_send"
	// SwitchTransmit fires when a switch's output port is ready to
	// dequeue its head packet. SwitchID is set; metadata carries
	// {"output_port": int}; Packet is nil (the switch dequeues at
	// handler time).
	SwitchTransmit Kind = "switch_transmit"
	// DeviceResponse carries a completed request back to its origin host.
	DeviceResponse Kind = "device_response"
)

// Event is a scheduled occurrence carrying a timestamp, a kind tag, and an
// optional payload. Events compare by Timestamp ascending; ties are broken
// by insertion sequence number to make the scheduler's queue a stable FIFO
// at equal timestamps.
type Event struct {
	Timestamp int64
	Kind      Kind
	Packet    *Packet
	SwitchID  *int
	Metadata  map[string]any

	seq uint64 // assigned by Scheduler.Schedule; not set by callers
}
