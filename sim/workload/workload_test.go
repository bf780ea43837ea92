package workload

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skudlur/cxl-fabric-sim/sim"
)

func TestNewPattern_UnknownKind(t *testing.T) {
	_, err := NewPattern("bogus")
	require.Error(t, err)
	var unkErr *sim.UnknownKindError
	assert.ErrorAs(t, err, &unkErr)
}

func TestNewPattern_AllKnownKinds(t *testing.T) {
	for _, k := range []string{Uniform, Zipfian, Hotspot, Bursty, Sequential} {
		p, err := NewPattern(k)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}
}

func baseParams() Params {
	return Params{NumHosts: 4, NumDevices: 3, DurationNs: 5000, RequestsPerHost: 10}
}

func TestUniformPattern_GeneratesRequestsPerHost(t *testing.T) {
	p, _ := NewPattern(Uniform)
	reqs := p.Generate(rand.New(rand.NewSource(1)), baseParams())
	assert.Len(t, reqs, 4*10)
	for _, r := range reqs {
		assert.GreaterOrEqual(t, r.DeviceID, 0)
		assert.Less(t, r.DeviceID, 3)
	}
}

func TestZipfianPattern_Determinism(t *testing.T) {
	p, _ := NewPattern(Zipfian)
	params := baseParams()
	params.Alpha = 1.2
	params.HotFraction = 0.3

	a := p.Generate(rand.New(rand.NewSource(42)), params)
	b := p.Generate(rand.New(rand.NewSource(42)), params)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestZipfianPattern_HotFractionRestrictsDevicePool(t *testing.T) {
	p, _ := NewPattern(Zipfian)
	params := Params{NumHosts: 1, NumDevices: 10, DurationNs: 10000, RequestsPerHost: 200, Alpha: 2.0, HotFraction: 0.2}
	reqs := p.Generate(rand.New(rand.NewSource(7)), params)
	for _, r := range reqs {
		assert.Less(t, r.DeviceID, 2, "hot_fraction=0.2 over 10 devices should restrict rank-sampled device ids to the top 2")
	}
}

func TestHotspotPattern_SkewsTowardTarget(t *testing.T) {
	p, _ := NewPattern(Hotspot)
	params := Params{NumHosts: 1, NumDevices: 5, DurationNs: 10000, RequestsPerHost: 500, HotspotDevice: 2, HotspotFraction: 0.9}
	reqs := p.Generate(rand.New(rand.NewSource(3)), params)
	hot := 0
	for _, r := range reqs {
		if r.DeviceID == 2 {
			hot++
		}
	}
	assert.Greater(t, hot, len(reqs)/2)
}

func TestBurstyPattern_BurstSpacing(t *testing.T) {
	p, _ := NewPattern(Bursty)
	params := Params{NumHosts: 1, NumDevices: 2, DurationNs: 1000, BurstSize: 3, BurstIntervalNs: 500}
	reqs := p.Generate(rand.New(rand.NewSource(1)), params)
	require.GreaterOrEqual(t, len(reqs), 3)
	assert.Equal(t, int64(0), reqs[0].Timestamp)
	assert.Equal(t, int64(10), reqs[1].Timestamp)
	assert.Equal(t, int64(20), reqs[2].Timestamp)
}

func TestSequentialPattern_StrideAndDeviceAssignment(t *testing.T) {
	p, _ := NewPattern(Sequential)
	params := Params{NumHosts: 3, NumDevices: 2, DurationNs: 1000, RequestsPerHost: 4, Stride: 64}
	reqs := p.Generate(rand.New(rand.NewSource(1)), params)
	for _, r := range reqs {
		assert.Equal(t, r.HostID%2, r.DeviceID)
	}
	firstHostReqs := reqs[:4]
	for i, r := range firstHostReqs {
		assert.Equal(t, uint64(i)*64, r.Address)
	}
}
