// Groups the topology, workload, and simulation parameters that the CLI
// exposes as flags, and supports loading them from a YAML file. Mirrors
// the teacher's PolicyBundle / LoadPolicyBundle convention: strict
// decoding via yaml.v3 so a typo'd key fails fast instead of being
// silently ignored.

package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TopologyParams configures a topology build. Kind selects the builder
// ("single" or "two_tier"); the remaining fields are interpreted per-kind
// (see sim/topology).
type TopologyParams struct {
	Kind           string  `yaml:"kind"`
	NumHosts       int     `yaml:"num_hosts"`
	NumDevices     int     `yaml:"num_devices"`
	Capacity       int     `yaml:"capacity"`
	Bandwidth      float64 `yaml:"bandwidth"`
	SwitchLatency  int64   `yaml:"switch_latency"`
	NumSpines      int     `yaml:"num_spines"`
	NumLeaves      int     `yaml:"num_leaves"`
	HostsPerLeaf   int     `yaml:"hosts_per_leaf"`
	DevicesPerLeaf int     `yaml:"devices_per_leaf"`
}

// WorkloadParams configures workload generation. Kind selects the pattern
// (uniform|zipfian|hotspot|bursty|sequential); the remaining fields are
// interpreted per-kind (see sim/workload).
type WorkloadParams struct {
	Kind            string  `yaml:"kind"`
	DurationNs      int64   `yaml:"duration_ns"`
	RequestsPerHost int     `yaml:"requests_per_host"`
	Alpha           float64 `yaml:"alpha"`
	HotFraction     float64 `yaml:"hot_fraction"`
	HotspotDevice   int     `yaml:"hotspot_device"`
	HotspotFraction float64 `yaml:"hotspot_fraction"`
	BurstSize       int     `yaml:"burst_size"`
	BurstIntervalNs int64   `yaml:"burst_interval_ns"`
	Stride          uint64  `yaml:"stride"`
}

// Config is the top-level YAML schema accepted by --config.
type Config struct {
	Topology      TopologyParams `yaml:"topology"`
	Workload      WorkloadParams `yaml:"workload"`
	Horizon       int64          `yaml:"horizon"`
	Seed          int64          `yaml:"seed"`
	DeviceLatency int64          `yaml:"device_latency"`
}

// LoadConfig reads and strictly parses a YAML configuration file.
// Unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: reading config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("sim: parsing config: %w", err)
	}
	return &cfg, nil
}
