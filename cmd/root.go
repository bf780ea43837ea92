// cmd/root.go
package cmd

import (
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skudlur/cxl-fabric-sim/sim"
	"github.com/skudlur/cxl-fabric-sim/sim/driver"
	"github.com/skudlur/cxl-fabric-sim/sim/topology"
	"github.com/skudlur/cxl-fabric-sim/sim/trace"
	"github.com/skudlur/cxl-fabric-sim/sim/workload"
)

var (
	configPath string

	topoKind       string
	numHosts       int
	numDevices     int
	capacity       int
	bandwidth      float64
	switchLatency  int64
	numSpines      int
	numLeaves      int
	hostsPerLeaf   int
	devicesPerLeaf int

	workloadKind    string
	durationNs      int64
	requestsPerHost int
	alpha           float64
	hotFraction     float64
	hotspotDevice   int
	hotspotFraction float64
	burstSize       int
	burstIntervalNs int64
	stride          uint64

	horizon       int64
	maxEvents     int
	seed          int64
	logLevel      string
	deviceLatency int64
	traceLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "cxl-fabric-sim",
	Short: "Discrete-event simulator for a CXL memory fabric",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fabric simulation",
	RunE:  runSimulation,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	topoParams := topology.Params{
		Kind: topoKind, NumHosts: numHosts, NumDevices: numDevices,
		Capacity: capacity, Bandwidth: bandwidth, SwitchLatency: switchLatency,
		NumSpines: numSpines, NumLeaves: numLeaves,
		HostsPerLeaf: hostsPerLeaf, DevicesPerLeaf: devicesPerLeaf,
	}
	wlParams := sim.WorkloadParams{
		Kind: workloadKind, DurationNs: durationNs, RequestsPerHost: requestsPerHost,
		Alpha: alpha, HotFraction: hotFraction,
		HotspotDevice: hotspotDevice, HotspotFraction: hotspotFraction,
		BurstSize: burstSize, BurstIntervalNs: burstIntervalNs, Stride: stride,
	}

	if configPath != "" {
		cfg, err := sim.LoadConfig(configPath)
		if err != nil {
			return err
		}
		topoParams = topology.Params{
			Kind: cfg.Topology.Kind, NumHosts: cfg.Topology.NumHosts, NumDevices: cfg.Topology.NumDevices,
			Capacity: cfg.Topology.Capacity, Bandwidth: cfg.Topology.Bandwidth, SwitchLatency: cfg.Topology.SwitchLatency,
			NumSpines: cfg.Topology.NumSpines, NumLeaves: cfg.Topology.NumLeaves,
			HostsPerLeaf: cfg.Topology.HostsPerLeaf, DevicesPerLeaf: cfg.Topology.DevicesPerLeaf,
		}
		wlParams.Kind = cfg.Workload.Kind
		wlParams.DurationNs = cfg.Workload.DurationNs
		wlParams.RequestsPerHost = cfg.Workload.RequestsPerHost
		wlParams.Alpha = cfg.Workload.Alpha
		wlParams.HotFraction = cfg.Workload.HotFraction
		wlParams.HotspotDevice = cfg.Workload.HotspotDevice
		wlParams.HotspotFraction = cfg.Workload.HotspotFraction
		wlParams.BurstSize = cfg.Workload.BurstSize
		wlParams.BurstIntervalNs = cfg.Workload.BurstIntervalNs
		wlParams.Stride = cfg.Workload.Stride
		horizon = cfg.Horizon
		seed = cfg.Seed
		if cfg.DeviceLatency != 0 {
			deviceLatency = cfg.DeviceLatency
		}
	}

	topo, err := topology.NewTopology(topoParams)
	if err != nil {
		return err
	}

	pattern, err := workload.NewPattern(wlParams.Kind)
	if err != nil {
		return err
	}
	genParams := workload.Params{
		NumHosts: topoParams.NumHosts, NumDevices: topoParams.NumDevices,
		DurationNs: wlParams.DurationNs, RequestsPerHost: wlParams.RequestsPerHost,
		Alpha: wlParams.Alpha, HotFraction: wlParams.HotFraction,
		HotspotDevice: wlParams.HotspotDevice, HotspotFraction: wlParams.HotspotFraction,
		BurstSize: wlParams.BurstSize, BurstIntervalNs: wlParams.BurstIntervalNs, Stride: wlParams.Stride,
	}
	rng := rand.New(rand.NewSource(seed))
	requests := pattern.Generate(rng, genParams)

	sched := sim.NewScheduler()
	stats := sim.NewMetrics()
	sched.Stats = stats

	if !trace.IsValidLevel(traceLevel) {
		logrus.Fatalf("invalid trace level: %s", traceLevel)
	}
	tr := trace.New(trace.Level(traceLevel))

	drv := driver.New(sched, topo, stats, deviceLatency, tr)
	if err := drv.Seed(requests); err != nil {
		return err
	}

	var untilPtr *int64
	if horizon > 0 {
		untilPtr = &horizon
	}
	var maxEventsPtr *int
	if maxEvents > 0 {
		maxEventsPtr = &maxEvents
	}
	logrus.Infof("running simulation: topology=%s workload=%s horizon=%d seed=%d", topoParams.Kind, wlParams.Kind, horizon, seed)
	if err := sched.Run(untilPtr, maxEventsPtr); err != nil {
		return err
	}

	stats.Print(cmd.OutOrStdout())
	if total, byKind := tr.Summary(); total > 0 {
		logrus.Debugf("trace: %d events recorded (%v)", total, byKind)
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file; replaces the topology, workload, horizon and seed flags, and device-latency when set")

	runCmd.Flags().StringVar(&topoKind, "topology", topology.Single, "Topology kind (single|two_tier)")
	runCmd.Flags().IntVar(&numHosts, "hosts", 4, "Number of hosts")
	runCmd.Flags().IntVar(&numDevices, "devices", 2, "Number of devices")
	runCmd.Flags().IntVar(&capacity, "capacity", 16, "Port queue capacity")
	runCmd.Flags().Float64Var(&bandwidth, "bandwidth", 64, "Port bandwidth in bits/ns (64 == 64 Gbps)")
	runCmd.Flags().Int64Var(&switchLatency, "switch-latency", sim.DefaultSwitchLatency, "Switch cut-through latency (ns)")
	runCmd.Flags().IntVar(&numSpines, "spines", 2, "Two-tier: number of spine switches")
	runCmd.Flags().IntVar(&numLeaves, "leaves", 3, "Two-tier: number of leaf switches")
	runCmd.Flags().IntVar(&hostsPerLeaf, "hosts-per-leaf", 2, "Two-tier: hosts per host-leaf")
	runCmd.Flags().IntVar(&devicesPerLeaf, "devices-per-leaf", 1, "Two-tier: devices per device-leaf")

	runCmd.Flags().StringVar(&workloadKind, "workload", workload.Uniform, "Workload kind (uniform|zipfian|hotspot|bursty|sequential)")
	runCmd.Flags().Int64Var(&durationNs, "duration", 5000, "Workload duration (ns)")
	runCmd.Flags().IntVar(&requestsPerHost, "requests-per-host", 50, "Requests generated per host")
	runCmd.Flags().Float64Var(&alpha, "alpha", 1.2, "Zipfian exponent")
	runCmd.Flags().Float64Var(&hotFraction, "hot-fraction", 0.2, "Zipfian: fraction of devices treated as hot")
	runCmd.Flags().IntVar(&hotspotDevice, "hotspot-device", 0, "Hotspot: targeted device id")
	runCmd.Flags().Float64Var(&hotspotFraction, "hotspot-fraction", 0.8, "Hotspot: fraction of traffic to the hotspot device")
	runCmd.Flags().IntVar(&burstSize, "burst-size", 10, "Bursty: requests per burst")
	runCmd.Flags().Int64Var(&burstIntervalNs, "burst-interval", 500, "Bursty: ns between bursts")
	runCmd.Flags().Uint64Var(&stride, "stride", 64, "Sequential: address stride")

	runCmd.Flags().Int64Var(&horizon, "horizon", 0, "Stop once the next Event would exceed this timestamp (0 = unbounded)")
	runCmd.Flags().IntVar(&maxEvents, "max-events", 0, "Stop after this many dispatched Events (0 = unbounded)")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Workload RNG seed")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Int64Var(&deviceLatency, "device-latency", driver.DeviceLatency, "CXL device response latency (ns)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.LevelNone), "Decision trace level (none|events)")

	rootCmd.AddCommand(runCmd)
}
