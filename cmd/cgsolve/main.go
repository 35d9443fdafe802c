package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/config"
	"github.com/san-kum/cgsolve/internal/experiment"
	"github.com/san-kum/cgsolve/internal/storage"
	"github.com/san-kum/cgsolve/internal/viz"
)

var (
	dataDir string
	verbose bool
	log     zerolog.Logger

	size        int
	tolerance   float64
	maxIter     int
	backendName string
	workers     int
	minChunk    int
	seed        int64
	strict      bool
	configFile  string
	preset      string
	resultsFile string
	save        bool

	parallelism int
	pngPath     string
	outPath     string
	fps         int
)

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	log = newLogger(false)
	rootCmd := &cobra.Command{
		Use:           "cgsolve",
		Short:         "parallel conjugate-gradient solver for sparse SPD systems",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = newLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "solve A*x = b for a manufactured solution",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	addSolveFlags(runCmd)
	runCmd.Flags().StringVar(&resultsFile, "results", "", "append a results record to this file")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run in the data directory")

	sweepCmd := &cobra.Command{
		Use:   "sweep [N...]",
		Short: "run independent solves for several sizes",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSweep,
	}
	addSolveFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&parallelism, "parallel", 2, "solves in flight (0 = unbounded)")
	sweepCmd.Flags().StringVar(&resultsFile, "results", "", "append a results record per solve to this file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the residual history of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write the chart to an image file instead")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tN\tBACKEND")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, p.N, p.Backend)
			}
			return w.Flush()
		},
	}

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list compute backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range compute.BackendNames() {
				b, err := compute.NewBackend(name, 0, 0)
				if err != nil {
					return err
				}
				fmt.Printf("  %-8s workers=%d\n", name, b.Workers())
			}
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "compare CG against dense Cholesky and sparse LU",
		Args:  cobra.NoArgs,
		RunE:  verifySolve,
	}
	addSolveFlags(verifyCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "step a solve live in the terminal",
		Args:  cobra.NoArgs,
		RunE:  watchSolve,
	}
	addSolveFlags(watchCmd)
	watchCmd.Flags().IntVar(&fps, "fps", 30, "iterations per second")

	rootCmd.AddCommand(runCmd, sweepCmd, listCmd, plotCmd, exportCmd, presetsCmd, backendsCmd, verifyCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("cgsolve failed")
		os.Exit(1)
	}
}

func addSolveFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&size, "size", "N", config.DefaultN, "matrix dimension")
	f.Float64Var(&tolerance, "tol", config.DefaultTolerance, "absolute residual tolerance")
	f.IntVar(&maxIter, "max-iter", 0, "iteration cap (0 = N)")
	f.StringVar(&backendName, "backend", config.DefaultBackend, fmt.Sprintf("compute backend %v", compute.BackendNames()))
	f.IntVar(&workers, "workers", 0, "worker goroutines (0 = NumCPU)")
	f.IntVar(&minChunk, "min-chunk", config.DefaultMinChunk, "smallest chunk handed to one worker")
	f.Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	f.BoolVar(&strict, "strict", false, "fail on a degenerate alpha or beta update")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("size") {
		cfg.N = size
	}
	if f.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if f.Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	if f.Changed("backend") {
		cfg.Backend = backendName
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("min-chunk") {
		cfg.MinChunk = minChunk
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("strict") {
		cfg.Strict = strict
	}
	if f.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if f.Changed("results") {
		cfg.ResultsFile = resultsFile
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func experimentConfig(cfg *config.Config) (experiment.Config, error) {
	backend, err := cfg.NewBackend()
	if err != nil {
		return experiment.Config{}, err
	}
	return experiment.Config{
		N:        cfg.N,
		Settings: cfg.Settings(),
		Seed:     uint64(cfg.Seed),
		Backend:  backend,
	}, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ecfg, err := experimentConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Int("n", cfg.N).Str("backend", cfg.Backend).Int64("seed", cfg.Seed).Msg("solving")
	report, runErr := experiment.New(ecfg).WithLogger(log).Run(ctx)
	if report == nil {
		return runErr
	}

	fmt.Println(viz.RenderReport(report))
	if chart := viz.ResidualPlot(report.Residuals, 60, 10); chart != "" {
		fmt.Println(chart)
	}

	if cfg.ResultsFile != "" {
		if err := storage.AppendRecord(cfg.ResultsFile, report); err != nil {
			return err
		}
		log.Debug().Str("file", cfg.ResultsFile).Msg("results record appended")
	}

	if save {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(report)
		if err != nil {
			log.Warn().Err(err).Msg("run not stored")
		} else {
			fmt.Printf("run id: %s\n", runID)
		}
	}

	if !report.Converged() {
		log.Warn().Str("phase", report.Phase).Float64("residual", report.ResidualNorm).Msg("solve did not converge")
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cfgs := make([]experiment.Config, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", arg, err)
		}
		c := *base
		c.N = n
		if err := c.Validate(); err != nil {
			return err
		}
		ecfg, err := experimentConfig(&c)
		if err != nil {
			return err
		}
		cfgs = append(cfgs, ecfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	reports, err := experiment.Sweep(ctx, cfgs, parallelism)
	if err != nil {
		return err
	}
	log.Info().Int("runs", len(reports)).Dur("elapsed", time.Since(start)).Msg("sweep finished")

	fmt.Print(viz.SweepTable(reports))
	if base.ResultsFile != "" {
		for _, r := range reports {
			if err := storage.AppendRecord(base.ResultsFile, r); err != nil {
				return err
			}
		}
	}
	return nil
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
	fmt.Fprintln(w, "ID\tN\tBACKEND\tITERS\tPHASE\tRESIDUAL\tTIME")
	for _, run := range runs {
		r := run.Report
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%.3e\t%s\n",
			run.ID, r.N, r.Backend, r.Iterations, r.Phase, r.ResidualNorm,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// lookupRun returns the run named by args, or the latest stored run.
func lookupRun(st *storage.Store, args []string) (*storage.RunMetadata, error) {
	if len(args) == 1 {
		return st.Load(args[0])
	}
	meta, err := st.Latest()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no stored runs in %s; use run --save first", st.Dir())
	}
	return meta, err
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := lookupRun(st, args)
	if err != nil {
		return err
	}
	residuals, err := st.LoadResiduals(meta.ID)
	if err != nil {
		return err
	}

	if pngPath != "" {
		if err := viz.SaveResidualPNG(pngPath, fmt.Sprintf("CG n=%d (%s)", meta.Report.N, meta.Report.Backend), residuals); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
		return nil
	}

	chart := viz.ResidualPlot(residuals, 70, 15)
	if chart == "" {
		return viz.ErrNoData
	}
	fmt.Println(chart)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := lookupRun(st, args)
	if err != nil {
		return err
	}
	residuals, err := st.LoadResiduals(meta.ID)
	if err != nil {
		return err
	}

	if outPath == "" {
		return storage.ExportJSON(os.Stdout, meta.ID, meta.Report, residuals)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(f, meta.ID, meta.Report, residuals); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func watchSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ecfg, err := experimentConfig(cfg)
	if err != nil {
		return err
	}

	a, _, b, err := experiment.New(ecfg).Prepare()
	if err != nil {
		return err
	}
	run, err := newSolver(ecfg).Start(a, b, nil, ecfg.Settings)
	if err != nil {
		return err
	}

	interval := time.Second / 30
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	model := viz.NewWatchModel(run, fmt.Sprintf("cg n=%d %s", cfg.N, ecfg.Backend.Name()), interval)
	_, err = tea.NewProgram(model).Run()
	return err
}
