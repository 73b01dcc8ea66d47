package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/relclock/internal/automation"
	"github.com/san-kum/relclock/internal/config"
	"github.com/san-kum/relclock/internal/ephem"
	"github.com/san-kum/relclock/internal/experiment"
	"github.com/san-kum/relclock/internal/kepler"
	"github.com/san-kum/relclock/internal/logging"
	"github.com/san-kum/relclock/internal/observability"
	"github.com/san-kum/relclock/internal/report"
	"github.com/san-kum/relclock/internal/storage"
	"github.com/san-kum/relclock/internal/tui"
	"github.com/san-kum/relclock/internal/twobody"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	metricsFile string

	// orbit and sampling overrides
	semiMajor  float64
	ecc        float64
	incDeg     float64
	raanDeg    float64
	argpDeg    float64
	m0Deg      float64
	hours      float64
	samples    int
	iterations int
	tolerance  float64
	workers    int

	sweepWorkers int

	gmOrbits        int
	samplesPerOrbit int
	stepper         string
	steps           int

	noSave      bool
	quiet       bool
	outFile     string
	gravity     string
	tleRun      string
	metricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "relclock",
		Short:         "keplerian propagation and relativistic satellite clock lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.SetLevel(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config output.dir)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "preset as group/name, see presets")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the run")

	runCmd := &cobra.Command{
		Use:   "run [experiment]",
		Short: "run an experiment (defaults to the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExperiment,
	}
	addOrbitFlags(runCmd)
	runCmd.Flags().IntVar(&gmOrbits, "orbits", config.DefaultOrbits, "orbits for gm-divergence")
	runCmd.Flags().IntVar(&samplesPerOrbit, "samples-per-orbit", config.DefaultSamplesPerOrbit, "samples per orbit for gm-divergence")
	runCmd.Flags().StringVar(&stepper, "stepper", config.DefaultStepper, stepperHelp())
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "steps for verify")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print the summary only")

	propagateCmd := &cobra.Command{
		Use:   "propagate",
		Short: "propagate an orbit and print radius, speed and invariant checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNamed(cmd, "propagate")
		},
	}
	addOrbitFlags(propagateCmd)
	propagateCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	propagateCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print the summary only")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "chart a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run series to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list configuration presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	experimentsCmd := &cobra.Command{
		Use:   "experiments",
		Short: "list available experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report.Experiments(cmd.OutOrStdout(), experiment.NewRegistry().List())
		},
	}

	tleCmd := &cobra.Command{
		Use:   "tle [file]",
		Short: "derive orbital elements from a two-line element set (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTLE,
	}
	tleCmd.Flags().StringVar(&gravity, "gravity", string(ephem.WGS84), "SGP4 constants (wgs72, wgs84)")
	tleCmd.Flags().StringVar(&tleRun, "experiment", "", "run this experiment with the derived elements")
	tleCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	tleCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print the summary only")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step through a propagated orbit with the clock offset",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addOrbitFlags(liveCmd)
	liveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address while running")

	batchCmd := &cobra.Command{
		Use:   "batch <scenario.yaml>",
		Short: "run the steps and parameter sweeps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	addBatchFlags(batchCmd)

	rootCmd.AddCommand(runCmd, propagateCmd, listCmd, showCmd, exportCSVCmd, exportJSONCmd, presetsCmd, experimentsCmd, tleCmd, liveCmd, batchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}

func addOrbitFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&semiMajor, "a", config.DefaultA, "semi-major axis (m)")
	f.Float64Var(&ecc, "e", 0, "eccentricity")
	f.Float64Var(&incDeg, "inc", config.DefaultIncDeg, "inclination (deg)")
	f.Float64Var(&raanDeg, "raan", 0, "right ascension of the ascending node (deg)")
	f.Float64Var(&argpDeg, "argp", 0, "argument of periapsis (deg)")
	f.Float64Var(&m0Deg, "m0", 0, "mean anomaly at epoch (deg)")
	f.Float64Var(&hours, "hours", config.DefaultDurationHours, "sampling window (h)")
	f.IntVar(&samples, "samples", config.DefaultSamples, "number of samples")
	f.IntVar(&iterations, "iterations", config.DefaultIterations, "Newton iterations for the Kepler equation")
	f.Float64Var(&tolerance, "tolerance", 0, "early-exit tolerance for the Kepler equation (0 disables)")
	f.IntVar(&workers, "workers", 0, "propagation workers (0 uses GOMAXPROCS)")
}

// loadConfig layers preset, config file, environment and changed flags.
func stepperHelp() string {
	return "stepper for verify (" + strings.Join(twobody.ListSteppers(), ", ") + ")"
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")
	cmd.Flags().IntVar(&sweepWorkers, "sweep-workers", 0, "concurrent sweep runs (0 uses batch.workers, then GOMAXPROCS)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	base := config.DefaultConfig()
	if preset != "" {
		group, name, _ := strings.Cut(preset, "/")
		p := config.GetPreset(group, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (groups: %v)", preset, config.ListGroups())
		}
		base = p
	}

	cfg, err := config.LoadOver(base, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}
	set("a", func() { cfg.Orbit.A = semiMajor })
	set("e", func() { cfg.Orbit.E = ecc })
	set("inc", func() { cfg.Orbit.IncDeg = incDeg })
	set("raan", func() { cfg.Orbit.RAANDeg = raanDeg })
	set("argp", func() { cfg.Orbit.ArgPeriapsisDeg = argpDeg })
	set("m0", func() { cfg.Orbit.MeanAnomalyDeg = m0Deg })
	set("hours", func() { cfg.Sampling.DurationHours = hours })
	set("samples", func() { cfg.Sampling.Samples = samples })
	set("iterations", func() { cfg.Propagator.Iterations = iterations })
	set("tolerance", func() { cfg.Propagator.Tolerance = tolerance })
	set("workers", func() { cfg.Propagator.Workers = workers })
	set("sweep-workers", func() { cfg.Batch.Workers = sweepWorkers })
	set("orbits", func() { cfg.Gravitomagnetic.Orbits = gmOrbits })
	set("samples-per-orbit", func() { cfg.Gravitomagnetic.SamplesPerOrbit = samplesPerOrbit })
	set("stepper", func() { cfg.Verify.Stepper = stepper })
	set("steps", func() { cfg.Verify.Steps = steps })

	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		if err := logging.SetLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	if dataDir == "" {
		dataDir = cfg.Output.Dir
	}
	if metricsFile == "" {
		metricsFile = cfg.Output.MetricsFile
	}
	return cfg, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	return runNamed(cmd, name)
}

func runNamed(cmd *cobra.Command, name string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if name == "" {
		name = cfg.Experiment
	}
	cfg.Experiment = name
	return execute(cmd, cfg)
}

func execute(cmd *cobra.Command, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}

	el := cfg.Elements()
	logging.Info("running experiment",
		"experiment", cfg.Experiment,
		"a", el.A,
		"e", el.E,
		"inc_deg", cfg.Orbit.IncDeg,
		"samples", cfg.Sampling.Samples,
	)

	start := time.Now()
	series, err := experiment.NewRegistry().Run(cmd.Context(), cfg.Experiment, cfg, collector)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, experiment.ErrUnknownExperiment) {
			return fmt.Errorf("%w (available: %v)", err, experiment.NewRegistry().Names())
		}
		return err
	}
	logging.Info("experiment finished", "experiment", cfg.Experiment, "samples", series.Len(), "elapsed", elapsed.Round(time.Millisecond))

	out := cmd.OutOrStdout()
	if quiet {
		err = report.Summary(out, series.Summary)
	} else {
		err = report.Series(out, series)
	}
	if err != nil {
		return err
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(series, cfg, elapsed)
		if err != nil {
			logging.Error("failed to save run", "err", err)
			return err
		}
		fmt.Fprintf(out, "\nsaved: %s\n", runID)
	}

	if metricsFile != "" {
		if err := collector.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logging.Debug("metrics written", "path", metricsFile)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}
	experiments := experiment.NewRegistry()
	out := cmd.OutOrStdout()

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	save := func(s *experiment.Series, c *config.Config, elapsed time.Duration) error {
		if st == nil {
			return nil
		}
		runID, err := st.Save(s, c, elapsed)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved: %s\n", runID)
		return nil
	}

	logging.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps), "sweeps", len(sc.Sweeps))

	start := time.Now()
	results, err := automation.RunScenario(cmd.Context(), sc, experiments, collector)
	for _, r := range results {
		fmt.Fprintf(out, "\n== %s ==\n", r.Series.Title)
		if err := report.Summary(out, r.Series.Summary); err != nil {
			return err
		}
		if err := save(r.Series, r.Config, time.Since(start)); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}

	for _, sw := range sc.Sweeps {
		start := time.Now()
		points, err := automation.RunSweep(cmd.Context(), sw, experiments, collector, cfg.Batch.SweepWorkers())
		if err != nil {
			return fmt.Errorf("sweep %s: %w", sw.Param, err)
		}
		series, err := automation.SweepSeries(sw, points)
		if err != nil {
			return err
		}
		logging.Info("sweep finished", "param", sw.Param, "points", len(points), "elapsed", time.Since(start).Round(time.Millisecond))

		fmt.Fprintln(out)
		if err := report.Series(out, series); err != nil {
			return err
		}
		if err := save(series, nil, time.Since(start)); err != nil {
			return err
		}
	}

	if metricsFile != "" {
		if err := collector.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	return report.Runs(cmd.OutOrStdout(), runs)
}

func showRun(cmd *cobra.Command, args []string) error {
	series, err := loadSeries(cmd, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run: %s\n\n", args[0])
	return report.Series(cmd.OutOrStdout(), series)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	series, err := loadSeries(cmd, args[0])
	if err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		return storage.ExportCSV(w, series)
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	series, err := loadSeries(cmd, args[0])
	if err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		return storage.ExportJSON(w, series)
	})
}

func loadSeries(cmd *cobra.Command, runID string) (*experiment.Series, error) {
	if _, err := loadConfig(cmd); err != nil {
		return nil, err
	}
	return storage.New(dataDir).LoadSeries(runID)
}

func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if outFile == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logging.Infof("exported to %s", outFile)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) > 0 {
		if len(config.ListPresets(args[0])) == 0 {
			return fmt.Errorf("no presets for group: %s (groups: %v)", args[0], groups)
		}
		groups = args[:1]
	}
	listing := make(map[string][]string, len(groups))
	for _, g := range groups {
		listing[g] = config.ListPresets(g)
	}
	return report.Presets(cmd.OutOrStdout(), listing)
}

func runTLE(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	t, err := ephem.ParseTLE(string(text))
	if err != nil {
		return err
	}
	st, err := ephem.ElementsFromTLE(t, ephem.Gravity(gravity))
	if err != nil {
		return err
	}

	el := st.Elements
	out := cmd.OutOrStdout()
	name := st.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintln(out, report.Title.Render(name))
	fmt.Fprintf(out, "epoch: %s\n\n", st.Epoch.Format(time.RFC3339))
	if err := report.Summary(out, map[string]float64{
		"a_km":              el.A / 1e3,
		"e":                 el.E,
		"inc_deg":           kepler.Rad2Deg(el.Inc),
		"raan_deg":          kepler.Rad2Deg(el.RAAN),
		"arg_periapsis_deg": kepler.Rad2Deg(el.ArgPeriapsis),
		"mean_anomaly_deg":  kepler.Rad2Deg(el.MeanAnomaly),
		"period_min":        el.Period() / 60,
	}); err != nil {
		return err
	}

	if tleRun == "" {
		return nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Experiment = tleRun
	cfg.Orbit = config.OrbitConfig{
		A:               el.A,
		E:               el.E,
		IncDeg:          kepler.Rad2Deg(el.Inc),
		RAANDeg:         kepler.Rad2Deg(el.RAAN),
		ArgPeriapsisDeg: kepler.Rad2Deg(el.ArgPeriapsis),
		MeanAnomalyDeg:  kepler.Rad2Deg(el.MeanAnomaly),
	}
	fmt.Fprintln(out)
	return execute(cmd, cfg)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
	}

	p := experiment.NewObserved(kepler.New(cfg.PropagatorOptions()...), collector)
	name := fmt.Sprintf("a=%.0f km e=%.3f i=%.1f°", cfg.Orbit.A/1e3, cfg.Orbit.E, cfg.Orbit.IncDeg)
	track, err := tui.NewTrack(cmd.Context(), p, name, cfg.Elements(), cfg.DurationSeconds(), cfg.Sampling.Samples)
	if err != nil {
		return err
	}
	return tui.Run(track)
}
