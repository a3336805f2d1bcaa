package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/calder-labs/motorcore/internal/config"
	"github.com/calder-labs/motorcore/internal/integrators"
	"github.com/calder-labs/motorcore/internal/metrics"
	"github.com/calder-labs/motorcore/internal/motor"
	"github.com/calder-labs/motorcore/internal/sim"
	"github.com/calder-labs/motorcore/internal/storage"
	"github.com/calder-labs/motorcore/internal/tune"
	"github.com/calder-labs/motorcore/internal/viz"
)

var (
	dataDir    string
	configFile string
	gearset    string
	preset     string
	targetRPM  float64
	dt         float64
	duration   float64
	noiseRPM   float64
	seed       int64
	bandRPM    float64
	topN       int
	outFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "motorcore",
		Short: "motor speed control bench",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".motorcore", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a rig profile offline and store the trace",
		RunE:  runProfile,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "rig profile (yaml)")
	runCmd.Flags().StringVar(&gearset, "gearset", "blue", "gearset when no profile given")
	runCmd.Flags().StringVar(&preset, "preset", "", "gain preset name")
	runCmd.Flags().Float64Var(&targetRPM, "target", 0, "target RPM override")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().Float64Var(&noiseRPM, "noise", 0, "speed telemetry noise, RPM stddev")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "noise seed")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive a simulated rig interactively",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "rig profile (yaml)")
	liveCmd.Flags().StringVar(&gearset, "gearset", "blue", "gearset when no profile given")
	liveCmd.Flags().StringVar(&preset, "preset", "", "gain preset name")
	liveCmd.Flags().Float64Var(&noiseRPM, "noise", 0, "speed telemetry noise, RPM stddev")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search PID gains against the simulated motor",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&gearset, "gearset", "blue", "gearset to tune for")
	tuneCmd.Flags().Float64Var(&targetRPM, "target", 0, "step target RPM (default half of max)")
	tuneCmd.Flags().Float64Var(&duration, "time", 4, "trial duration")
	tuneCmd.Flags().Float64Var(&bandRPM, "band", 0, "settling band RPM (default 2% of max)")
	tuneCmd.Flags().IntVar(&topN, "top", 10, "results to print")

	presetsCmd := &cobra.Command{
		Use:   "presets [gearset]",
		Short: "list gain presets for a gearset",
		Args:  cobra.ExactArgs(1),
		RunE:  listGainPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored trace as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outFile == "" {
				trace, err := storage.New(dataDir).LoadTrace(args[0])
				if err != nil {
					return err
				}
				return storage.WriteTraceCSV(os.Stdout, trace)
			}
			return storage.New(dataDir).ExportCSV(args[0], outFile)
		},
	}
	exportCSVCmd.Flags().StringVar(&outFile, "out", "", "output path (default stdout)")

	rootCmd.AddCommand(runCmd, liveCmd, tuneCmd, presetsCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadProfile(cmd *cobra.Command) (*config.Config, string, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		return cfg, profileName(configFile), nil
	}

	cfg := config.DefaultConfig()
	cfg.Motors[0].Gearset = gearset
	if _, err := motor.ParseGearset(gearset); err != nil {
		return nil, "", err
	}
	return cfg, "bench", nil
}

func profileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("noise") {
		cfg.NoiseRPM = noiseRPM
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("target") {
		for i := range cfg.Motors {
			cfg.Motors[i].TargetRPM = targetRPM
		}
	}
}

func buildIntegrator(name string) (sim.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4", "":
		return integrators.NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

// buildBench wires a rig and one handle per profile motor. Manual handles for
// offline runs, background handles for the live view.
func buildBench(cfg *config.Config, manual bool) (*sim.Rig, []*motor.Motor, error) {
	integ, err := buildIntegrator(cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}
	rig := sim.NewRig(integ)
	if cfg.NoiseRPM > 0 {
		rig.SetNoise(cfg.NoiseRPM, cfg.Seed)
	}

	motors := make([]*motor.Motor, 0, len(cfg.Motors))
	for _, mc := range cfg.Motors {
		g, err := motor.ParseGearset(mc.Gearset)
		if err != nil {
			return nil, nil, err
		}
		rig.AddMotor(mc.Port, sim.NewDCMotor(g))

		var m *motor.Motor
		if manual {
			m = motor.NewManual(rig, mc.Port, g)
		} else {
			m = motor.New(rig, mc.Port, g)
		}
		if err := mc.Apply(m); err != nil {
			m.Close()
			return nil, nil, err
		}
		if preset != "" {
			p := config.GetPreset(g.String(), preset)
			if p == nil {
				m.Close()
				return nil, nil, fmt.Errorf("unknown preset %q for %s (available: %v)",
					preset, g, config.ListPresets(g.String()))
			}
			if err := m.SetDualConstants(p.Low, p.High); err != nil {
				m.Close()
				return nil, nil, err
			}
			if p.StartIntegral > 0 {
				if err := m.SetStartIntegral(p.StartIntegral); err != nil {
					m.Close()
					return nil, nil, err
				}
			}
		}
		if mc.TargetRPM != 0 {
			if err := m.SetTargetRPM(mc.TargetRPM); err != nil {
				m.Close()
				return nil, nil, err
			}
		}
		motors = append(motors, m)
	}
	return rig, motors, nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rig, motors, err := buildBench(cfg, true)
	if err != nil {
		return err
	}
	grp := motor.NewGroup(motors...)
	defer grp.Close()

	fmt.Printf("running %s for %.1fs (dt %.3fs, %d motors)...\n",
		name, cfg.Duration, cfg.Dt, len(motors))
	start := time.Now()

	steps := int(cfg.Duration / cfg.Dt)
	traces := make([][]metrics.Sample, len(motors))
	for i := 0; i < steps; i++ {
		for _, m := range motors {
			m.Tick()
		}
		rig.Advance(cfg.Dt)
		for j, m := range motors {
			traces[j] = append(traces[j], metrics.Sample{
				T:            rig.Time(),
				TargetRPM:    m.TargetRPM(),
				RPM:          m.RPM(),
				CommandMv:    m.LastCommandMv(),
				CurrentMa:    m.Current(),
				TemperatureC: m.Temperature(),
			})
		}
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	for j, m := range motors {
		g := m.Gearset()
		settling := metrics.NewSettlingTime(settlingBand(g))
		overshoot := metrics.NewOvershoot()
		rmse := metrics.NewSpeedRMSE()
		effort := metrics.NewControlEffort()
		metrics.ObserveAll([]metrics.Metric{settling, overshoot, rmse, effort}, traces[j])

		meta := storage.RunMetadata{
			Profile:    fmt.Sprintf("%s-p%d", name, m.Port()),
			Gearset:    g.String(),
			TargetRPM:  m.TargetRPM(),
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
			Integrator: cfg.Integrator,
			Metrics: map[string]float64{
				settling.Name():  settling.Value(),
				overshoot.Name(): overshoot.Value(),
				rmse.Name():      rmse.Value(),
				effort.Name():    effort.Value(),
			},
		}
		runID, err := st.Save(meta, traces[j])
		if err != nil {
			return err
		}

		fmt.Printf("port %d (%s): run id %s\n", m.Port(), g, runID)
		for metricName, val := range meta.Metrics {
			fmt.Printf("  %s: %.4f\n", metricName, val)
		}
	}
	return nil
}

func settlingBand(g motor.Gearset) float64 {
	return g.MaxRPM() * 0.02
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	rig, motors, err := buildBench(cfg, false)
	if err != nil {
		return err
	}
	grp := motor.NewGroup(motors...)
	defer grp.Close()

	rig.Start(5 * time.Millisecond)
	defer rig.Stop()

	return viz.Run(motors)
}

func runTune(cmd *cobra.Command, args []string) error {
	g, err := motor.ParseGearset(gearset)
	if err != nil {
		return err
	}

	opts := tune.DefaultOptions(g)
	if cmd.Flags().Changed("target") {
		opts.TargetRPM = targetRPM
	}
	if cmd.Flags().Changed("time") {
		opts.Duration = duration
	}
	if cmd.Flags().Changed("band") {
		opts.BandRPM = bandRPM
	}

	fmt.Printf("tuning %s: step to %.0f RPM, %d grid points...\n",
		g, opts.TargetRPM, len(opts.KPs)*len(opts.KIs)*len(opts.KDs))
	start := time.Now()

	results, err := tune.Search(context.Background(), opts)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	if topN > len(results) {
		topN = len(results)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KP\tKI\tKD\tSCORE\tSETTLE\tOVERSHOOT\tRMSE")
	for _, r := range results[:topN] {
		fmt.Fprintf(w, "%.2f\t%.3f\t%.2f\t%.3f\t%.2fs\t%.1f%%\t%.1f\n",
			r.Gains.KP, r.Gains.KI, r.Gains.KD,
			r.Score, r.SettlingS, r.OvershootPct, r.RMSE)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best := results[0]
	fmt.Printf("\nbest: kv=%.2f kp=%.2f ki=%.3f kd=%.2f\n",
		best.Gains.KV, best.Gains.KP, best.Gains.KI, best.Gains.KD)
	return nil
}

func listGainPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets(args[0])
	if len(names) == 0 {
		return fmt.Errorf("no presets for gearset: %s", args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKP(L/H)\tKI(L/H)\tKD(L/H)\tSEED\tNOTES")
	for _, n := range names {
		p := config.GetPreset(args[0], n)
		fmt.Fprintf(w, "%s\t%.1f/%.1f\t%.2f/%.2f\t%.1f/%.1f\t%.0f\t%s\n",
			n, p.Low.KP, p.High.KP, p.Low.KI, p.High.KI, p.Low.KD, p.High.KD,
			p.StartIntegral, p.Description)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGEARSET\tTARGET\tTIME\tDURATION\tDT\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%.2fs\t%.4fs\t%s\n",
			run.ID,
			run.Gearset,
			run.TargetRPM,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("gearset: %s  target: %.0f RPM\n", meta.Gearset, meta.TargetRPM)
	fmt.Printf("samples: %d\n\n", len(trace))

	target := make([]float64, len(trace))
	rpm := make([]float64, len(trace))
	command := make([]float64, len(trace))
	current := make([]float64, len(trace))
	for i, s := range trace {
		target[i] = s.TargetRPM
		rpm[i] = s.RPM
		command[i] = s.CommandMv
		current[i] = s.CurrentMa
	}

	fmt.Println(asciigraph.PlotMany([][]float64{target, rpm},
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption("speed (target / measured), RPM")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(command,
		asciigraph.Height(8), asciigraph.Width(80),
		asciigraph.Caption("command, mV")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(current,
		asciigraph.Height(6), asciigraph.Width(80),
		asciigraph.Caption("current, mA")))

	for name, val := range meta.Metrics {
		fmt.Printf("%s: %.4f\n", name, val)
	}
	return nil
}
