package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/nlp"
	"github.com/san-kum/trajopt/internal/ocp"
	"github.com/san-kum/trajopt/internal/problems"
	"github.com/san-kum/trajopt/internal/transcribe"
	"github.com/spf13/cobra"
)

var (
	scheme        string
	degree        int
	meshIntervals int
	meshFractions []float64
	scale         bool
	pathAtColloc  bool
	interpCtrls   bool
	enforceDerivs bool
	parallel      bool
	randomGuess   bool
	seed          int64
	// Penalty solver knobs
	penaltyStart float64
	outerIters   int
	majorIters   int
	tolerance    float64
	// Config file
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajopt",
		Short: "trajectory optimization by direct collocation",
	}

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "transcribe and solve a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  solveProblem,
	}
	solveCmd.Flags().StringVar(&scheme, "scheme", config.DefaultScheme, "transcription scheme")
	solveCmd.Flags().IntVar(&degree, "degree", config.DefaultDegree, "collocation degree (legendre schemes)")
	solveCmd.Flags().IntVar(&meshIntervals, "intervals", config.DefaultMeshIntervals, "number of uniform mesh intervals")
	solveCmd.Flags().BoolVar(&scale, "scale", false, "scale variables from bounds")
	solveCmd.Flags().BoolVar(&pathAtColloc, "path-collocation", false, "enforce path constraints at collocation points")
	solveCmd.Flags().BoolVar(&interpCtrls, "interp-controls", false, "interpolate interior controls (legendre schemes)")
	solveCmd.Flags().BoolVar(&enforceDerivs, "enforce-derivatives", false, "enforce kinematic constraint derivatives (legendre schemes)")
	solveCmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate trajectory points in parallel")
	solveCmd.Flags().BoolVar(&randomGuess, "random-guess", false, "random initial guess within bounds")
	solveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for --random-guess")
	solveCmd.Flags().Float64Var(&penaltyStart, "penalty", config.DefaultPenaltyStart, "initial penalty weight")
	solveCmd.Flags().IntVar(&outerIters, "outer", config.DefaultOuterIterations, "penalty escalations")
	solveCmd.Flags().IntVar(&majorIters, "major", config.DefaultMajorIterations, "inner iterations per escalation")
	solveCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "constraint violation tolerance")
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	meshCmd := &cobra.Command{
		Use:   "mesh [problem]",
		Short: "print the transcription grid for a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  describeMesh,
	}
	meshCmd.Flags().StringVar(&scheme, "scheme", config.DefaultScheme, "transcription scheme")
	meshCmd.Flags().IntVar(&degree, "degree", config.DefaultDegree, "collocation degree (legendre schemes)")
	meshCmd.Flags().IntVar(&meshIntervals, "intervals", 4, "number of uniform mesh intervals")
	meshCmd.Flags().BoolVar(&interpCtrls, "interp-controls", false, "interpolate interior controls (legendre schemes)")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list bundled problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range problems.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, meshCmd, problemsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildOptions() transcribe.Options {
	mesh := meshFractions
	if len(mesh) == 0 {
		mesh = transcribe.UniformMesh(meshIntervals)
	}
	return transcribe.Options{
		Scheme:                       scheme,
		Degree:                       degree,
		Mesh:                         mesh,
		ScaleVariables:               scale,
		PathConstraintsAtCollocation: pathAtColloc,
		InterpolateControls:          interpCtrls,
		Parallel:                     parallel,
	}
}

func solveProblem(cmd *cobra.Command, args []string) error {
	name := args[0]

	solverCfg := config.SolverConfig{
		PenaltyStart:    penaltyStart,
		PenaltyGrowth:   config.DefaultPenaltyGrowth,
		OuterIterations: outerIters,
		MajorIterations: majorIters,
		Tolerance:       tolerance,
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		// CLI flags override config values.
		if !cmd.Flags().Changed("scheme") {
			scheme = cfg.Scheme
		}
		if !cmd.Flags().Changed("degree") {
			degree = cfg.Degree
		}
		if !cmd.Flags().Changed("intervals") {
			meshIntervals = cfg.MeshIntervals
		}
		if !cmd.Flags().Changed("scale") {
			scale = cfg.ScaleVariables
		}
		if !cmd.Flags().Changed("path-collocation") {
			pathAtColloc = cfg.PathConstraintsAtCollocation
		}
		if !cmd.Flags().Changed("interp-controls") {
			interpCtrls = cfg.InterpolateControls
		}
		if !cmd.Flags().Changed("enforce-derivatives") {
			enforceDerivs = cfg.EnforceConstraintDerivatives
		}
		if !cmd.Flags().Changed("parallel") {
			parallel = cfg.Parallel
		}
		meshFractions = cfg.Mesh
		if !cmd.Flags().Changed("penalty") {
			solverCfg.PenaltyStart = cfg.Solver.PenaltyStart
		}
		if !cmd.Flags().Changed("outer") {
			solverCfg.OuterIterations = cfg.Solver.OuterIterations
		}
		if !cmd.Flags().Changed("major") {
			solverCfg.MajorIterations = cfg.Solver.MajorIterations
		}
		if !cmd.Flags().Changed("tol") {
			solverCfg.Tolerance = cfg.Solver.Tolerance
		}
		solverCfg.PenaltyGrowth = cfg.Solver.PenaltyGrowth
	}

	prob, err := problems.NewRegistry().Get(name)
	if err != nil {
		return err
	}
	if enforceDerivs {
		prob.EnforceConstraintDerivatives = true
	}

	tr, err := transcribe.New(prob, buildOptions())
	if err != nil {
		return err
	}

	var guess *transcribe.Iterate
	if randomGuess {
		guess = tr.RandomIterateWithinBounds(rand.New(rand.NewSource(seed)))
	}

	solver := nlp.NewPenalty()
	solver.Mu0 = solverCfg.PenaltyStart
	solver.Growth = solverCfg.PenaltyGrowth
	solver.Outer = solverCfg.OuterIterations
	solver.Major = solverCfg.MajorIterations
	solver.Tol = solverCfg.Tolerance

	fmt.Printf("solving %s (%s, %d intervals, %d variables, %d constraints)...\n",
		name, scheme, meshIntervals, tr.NumVariables(), tr.NumConstraints())
	start := time.Now()

	sol, err := tr.Solve(context.Background(), solver, guess)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tVALUE")
	for _, term := range sol.Breakdown {
		fmt.Fprintf(w, "%s\t%.6f\n", term.Name, term.Value)
	}
	fmt.Fprintf(w, "total\t%.6f\n", sol.Objective)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	plotSolution(prob.States, sol)
	return nil
}

func describeMesh(cmd *cobra.Command, args []string) error {
	prob, err := problems.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}
	tr, err := transcribe.New(prob, buildOptions())
	if err != nil {
		return err
	}

	grid := tr.Grid()
	quad := tr.QuadratureCoefficients()
	mesh := tr.MeshIndices()
	ctrl := tr.ControlIndices()

	fmt.Printf("scheme: %s\n", scheme)
	fmt.Printf("grid points: %d\n", tr.NumGridPoints())
	fmt.Printf("variables: %d\n", tr.NumVariables())
	fmt.Printf("constraints: %d\n\n", tr.NumConstraints())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tFRACTION\tQUAD\tMESH\tCONTROL")
	for k, g := range grid {
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.0f\t%.0f\n",
			k, g, quad.AtVec(k), mesh.AtVec(k), ctrl.AtVec(k))
	}
	return w.Flush()
}

func plotSolution(states []ocp.VariableInfo, sol *transcribe.Solution) {
	buf := sol.Kind(transcribe.KindStates)
	if buf == nil {
		return
	}
	rows, cols := buf.Dims()
	maxPlots := 6
	if rows > maxPlots {
		rows = maxPlots
	}
	for r := 0; r < rows; r++ {
		data := make([]float64, cols)
		for k := 0; k < cols; k++ {
			data[k] = buf.At(r, k)
		}
		caption := fmt.Sprintf("x%d vs time", r)
		if r < len(states) && states[r].Name != "" {
			caption = states[r].Name + " vs time"
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
}
