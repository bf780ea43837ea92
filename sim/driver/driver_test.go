package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skudlur/cxl-fabric-sim/sim"
	"github.com/skudlur/cxl-fabric-sim/sim/topology"
	"github.com/skudlur/cxl-fabric-sim/sim/workload"
)

func TestDriver_S1_EmptyRun(t *testing.T) {
	sched := sim.NewScheduler()
	topo, err := topology.NewTopology(topology.Params{
		Kind: topology.Single, NumHosts: 1, NumDevices: 1, Capacity: 16, Bandwidth: 64,
		SwitchLatency: sim.DefaultSwitchLatency,
	})
	require.NoError(t, err)
	stats := sim.NewMetrics()
	sched.Stats = stats
	New(sched, topo, stats, 0, nil)

	require.NoError(t, sched.Run(nil, nil))
	assert.Equal(t, 0, stats.TotalEvents)
	assert.Equal(t, 0, stats.PacketsReceived)
	assert.Equal(t, float64(0), stats.AvgLatency())
}

func TestDriver_S2_SingleHopNoCongestion(t *testing.T) {
	sched := sim.NewScheduler()
	topo, err := topology.NewTopology(topology.Params{
		Kind: topology.Single, NumHosts: 1, NumDevices: 1, Capacity: 16, Bandwidth: 64,
		SwitchLatency: sim.DefaultSwitchLatency,
	})
	require.NoError(t, err)
	stats := sim.NewMetrics()
	sched.Stats = stats
	d := New(sched, topo, stats, 0, nil)

	require.NoError(t, d.Seed([]workload.Request{
		{Timestamp: 0, HostID: 0, DeviceID: 0, Address: 0, IsRead: true},
	}))
	require.NoError(t, sched.Run(nil, nil))

	assert.Equal(t, 1, stats.PacketsReceived)
	require.Len(t, stats.Latencies, 1)
	assert.Equal(t, int64(188), stats.Latencies[0])
}

func TestDriver_S3_QueueOverflowDrop(t *testing.T) {
	sched := sim.NewScheduler()
	topo, err := topology.NewTopology(topology.Params{
		Kind: topology.Single, NumHosts: 1, NumDevices: 1, Capacity: 2, Bandwidth: 64,
		SwitchLatency: sim.DefaultSwitchLatency,
	})
	require.NoError(t, err)
	stats := sim.NewMetrics()
	sched.Stats = stats
	d := New(sched, topo, stats, 0, nil)

	var reqs []workload.Request
	for i := 0; i < 4; i++ {
		reqs = append(reqs, workload.Request{Timestamp: 0, HostID: 0, DeviceID: 0})
	}
	require.NoError(t, d.Seed(reqs))
	require.NoError(t, sched.Run(nil, nil))

	assert.Equal(t, 4, topo.Switches[0].Processed)
	assert.GreaterOrEqual(t, topo.Switches[0].Dropped, 1)
	assert.LessOrEqual(t, stats.PacketsReceived, 3)
}

func TestDriver_S6_PastEventRejection(t *testing.T) {
	sched := sim.NewScheduler()
	topo, err := topology.NewTopology(topology.Params{
		Kind: topology.Single, NumHosts: 1, NumDevices: 1, Capacity: 16, Bandwidth: 64,
		SwitchLatency: sim.DefaultSwitchLatency,
	})
	require.NoError(t, err)
	stats := sim.NewMetrics()
	sched.Stats = stats
	d := New(sched, topo, stats, 0, nil)

	require.NoError(t, d.Seed([]workload.Request{{Timestamp: 100, HostID: 0, DeviceID: 0}}))
	require.NoError(t, sched.Run(nil, nil))
	// host_send at 100, switch_transmit at 130 (+30), wire free at 138 (+8),
	// device_response at 288 (+150): the clock ends past 100.
	assert.Equal(t, int64(288), sched.Now())

	err = sched.Schedule(&sim.Event{Timestamp: 50, Kind: sim.HostSend})
	require.Error(t, err)
}

func TestDriver_S5_TwoTierHotspotCongestsSpineZero(t *testing.T) {
	sched := sim.NewScheduler()
	topo, err := topology.NewTopology(topology.Params{
		Kind: topology.TwoTier, NumSpines: 2, NumLeaves: 3, HostsPerLeaf: 2, DevicesPerLeaf: 1,
		Capacity: 8, Bandwidth: 64, SwitchLatency: sim.DefaultSwitchLatency,
	})
	require.NoError(t, err)
	stats := sim.NewMetrics()
	sched.Stats = stats
	d := New(sched, topo, stats, 0, nil)

	var reqs []workload.Request
	for h := 0; h < 4; h++ {
		for i := 0; i < 50; i++ {
			reqs = append(reqs, workload.Request{Timestamp: int64(i) * 100, HostID: h, DeviceID: 0})
		}
	}
	require.NoError(t, d.Seed(reqs))
	require.NoError(t, sched.Run(nil, nil))

	assert.Greater(t, stats.PacketsDropped, 0)
	assert.Greater(t, topo.SwitchByID(0).Dropped, 0)
}
