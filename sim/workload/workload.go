// Package workload generates finite, time-stamped sequences of memory
// requests for a simulation run. Every Pattern takes its *rand.Rand
// explicitly — nothing reaches for an ambient global RNG — so a run is
// reproducible given an identical seed.
package workload

import (
	"math"
	"math/rand"

	"github.com/skudlur/cxl-fabric-sim/sim"
)

// Request is a generated, not-yet-scheduled memory access.
type Request struct {
	Timestamp int64
	HostID    int
	DeviceID  int
	Address   uint64
	IsRead    bool
}

// Kind names a workload pattern.
const (
	Uniform    = "uniform"
	Zipfian    = "zipfian"
	Hotspot    = "hotspot"
	Bursty     = "bursty"
	Sequential = "sequential"
)

// Params configures workload generation. Fields are interpreted per-kind;
// see the Pattern implementations below and spec §4.6's table.
type Params struct {
	NumHosts        int
	NumDevices      int
	DurationNs      int64
	RequestsPerHost int

	Alpha       float64 // zipfian exponent
	HotFraction float64 // zipfian: fraction of the device pool treated as "hot"

	HotspotDevice   int
	HotspotFraction float64

	BurstSize       int
	BurstIntervalNs int64

	Stride uint64
}

// zipfPageCount is the number of pages a Zipfian distribution ranks
// addresses over, per spec §4.6.
const zipfPageCount = 1000

const pageAddressBits = 12 // arbitrary page size scaling, just needs uniform spread within a page

// Pattern generates a workload's requests given explicit parameters and an
// explicit, seeded RNG.
type Pattern interface {
	Generate(rng *rand.Rand, p Params) []Request
}

// NewPattern returns the Pattern for a given kind, or an error for an
// unrecognized one. Unknown kinds must fail before any simulation work
// begins.
func NewPattern(kind string) (Pattern, error) {
	switch kind {
	case Uniform:
		return uniformPattern{}, nil
	case Zipfian:
		return zipfianPattern{}, nil
	case Hotspot:
		return hotspotPattern{}, nil
	case Bursty:
		return burstyPattern{}, nil
	case Sequential:
		return sequentialPattern{}, nil
	default:
		return nil, &sim.UnknownKindError{Component: "workload", Kind: kind}
	}
}

// jitter adds a uniform random offset in [0, interval/10) to base, per
// spec §4.6.
func jitter(rng *rand.Rand, base int64, interval int64) int64 {
	span := interval / 10
	if span <= 0 {
		return base
	}
	return base + int64(rng.Float64()*float64(span))
}

// evenSpacing returns the n evenly spaced base timestamps across
// [0, duration).
func evenSpacing(duration int64, n int) []int64 {
	ts := make([]int64, n)
	if n == 0 {
		return ts
	}
	step := float64(duration) / float64(n)
	for i := range ts {
		ts[i] = int64(float64(i) * step)
	}
	return ts
}

type uniformPattern struct{}

func (uniformPattern) Generate(rng *rand.Rand, p Params) []Request {
	var reqs []Request
	n := p.RequestsPerHost
	for h := 0; h < p.NumHosts; h++ {
		times := evenSpacing(p.DurationNs, n)
		for _, t := range times {
			reqs = append(reqs, Request{
				Timestamp: jitter(rng, t, p.DurationNs/int64(max(n, 1))),
				HostID:    h,
				DeviceID:  rng.Intn(p.NumDevices),
				Address:   rng.Uint64() & (1<<30 - 1),
				IsRead:    rng.Float64() < 0.5,
			})
		}
	}
	return reqs
}

// zipfProbs returns normalized p_k ∝ 1/k^alpha for k in [1, n].
func zipfProbs(n int, alpha float64) []float64 {
	probs := make([]float64, n)
	var sum float64
	for k := 1; k <= n; k++ {
		p := 1.0 / math.Pow(float64(k), alpha)
		probs[k-1] = p
		sum += p
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// zipfSample draws a rank in [0, n) via cumulative inverse transform over
// pre-normalized probs.
func zipfSample(rng *rand.Rand, probs []float64) int {
	u := rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if u <= cum {
			return i
		}
	}
	return len(probs) - 1
}

type zipfianPattern struct{}

func (zipfianPattern) Generate(rng *rand.Rand, p Params) []Request {
	var reqs []Request
	n := p.RequestsPerHost

	// hot_fraction restricts the ranked device pool to its highest-rank
	// (most-skewed) prefix; devices outside it are never addressed by
	// rank-0 traffic, making hot_fraction an actual selector rather than
	// a computed-but-unused field.
	hotDevices := p.NumDevices
	if p.HotFraction > 0 && p.HotFraction < 1 {
		hotDevices = int(math.Ceil(float64(p.NumDevices) * p.HotFraction))
		if hotDevices < 1 {
			hotDevices = 1
		}
	}
	deviceProbs := zipfProbs(hotDevices, p.Alpha)
	pageProbs := zipfProbs(zipfPageCount, p.Alpha)

	for h := 0; h < p.NumHosts; h++ {
		times := evenSpacing(p.DurationNs, n)
		for _, t := range times {
			page := zipfSample(rng, pageProbs)
			within := rng.Uint64() & (1<<pageAddressBits - 1)
			addr := uint64(page)<<pageAddressBits | within

			reqs = append(reqs, Request{
				Timestamp: jitter(rng, t, p.DurationNs/int64(max(n, 1))),
				HostID:    h,
				DeviceID:  zipfSample(rng, deviceProbs),
				Address:   addr,
				IsRead:    rng.Float64() < 0.5,
			})
		}
	}
	return reqs
}

type hotspotPattern struct{}

func (hotspotPattern) Generate(rng *rand.Rand, p Params) []Request {
	var reqs []Request
	n := p.RequestsPerHost
	for h := 0; h < p.NumHosts; h++ {
		times := evenSpacing(p.DurationNs, n)
		for _, t := range times {
			var dev int
			if p.NumDevices <= 1 || rng.Float64() < p.HotspotFraction {
				dev = p.HotspotDevice
			} else {
				dev = rng.Intn(p.NumDevices - 1)
				if dev >= p.HotspotDevice {
					dev++
				}
			}
			reqs = append(reqs, Request{
				Timestamp: jitter(rng, t, p.DurationNs/int64(max(n, 1))),
				HostID:    h,
				DeviceID:  dev,
				Address:   rng.Uint64() & (1<<30 - 1),
				IsRead:    rng.Float64() < 0.5,
			})
		}
	}
	return reqs
}

type burstyPattern struct{}

func (burstyPattern) Generate(rng *rand.Rand, p Params) []Request {
	var reqs []Request
	for h := 0; h < p.NumHosts; h++ {
		for base := int64(0); base < p.DurationNs; base += p.BurstIntervalNs {
			for i := 0; i < p.BurstSize; i++ {
				reqs = append(reqs, Request{
					Timestamp: base + int64(i)*10,
					HostID:    h,
					DeviceID:  rng.Intn(p.NumDevices),
					Address:   rng.Uint64() & (1<<30 - 1),
					IsRead:    rng.Float64() < 0.5,
				})
			}
		}
	}
	return reqs
}

type sequentialPattern struct{}

func (sequentialPattern) Generate(rng *rand.Rand, p Params) []Request {
	var reqs []Request
	n := p.RequestsPerHost
	for h := 0; h < p.NumHosts; h++ {
		times := evenSpacing(p.DurationNs, n)
		for i, t := range times {
			reqs = append(reqs, Request{
				Timestamp: t,
				HostID:    h,
				DeviceID:  h % p.NumDevices,
				Address:   uint64(i) * p.Stride,
				IsRead:    rng.Float64() < 0.5,
			})
		}
	}
	return reqs
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
