package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScheme          = "trapezoidal"
	DefaultDegree          = 3
	DefaultMeshIntervals   = 25
	DefaultPenaltyStart    = 10.0
	DefaultPenaltyGrowth   = 10.0
	DefaultOuterIterations = 6
	DefaultMajorIterations = 400
	DefaultTolerance       = 1e-6
)

type Config struct {
	Problem                      string       `yaml:"problem"`
	Scheme                       string       `yaml:"scheme"`
	Degree                       int          `yaml:"degree"`
	MeshIntervals                int          `yaml:"mesh_intervals"`
	Mesh                         []float64    `yaml:"mesh,omitempty"`
	ScaleVariables               bool         `yaml:"scale_variables"`
	PathConstraintsAtCollocation bool         `yaml:"path_constraints_at_collocation"`
	InterpolateControls          bool         `yaml:"interpolate_controls"`
	EnforceConstraintDerivatives bool         `yaml:"enforce_constraint_derivatives"`
	Parallel                     bool         `yaml:"parallel"`
	Solver                       SolverConfig `yaml:"solver"`
}

type SolverConfig struct {
	PenaltyStart    float64 `yaml:"penalty_start"`
	PenaltyGrowth   float64 `yaml:"penalty_growth"`
	OuterIterations int     `yaml:"outer_iterations"`
	MajorIterations int     `yaml:"major_iterations"`
	Tolerance       float64 `yaml:"tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:       "double_integrator",
		Scheme:        DefaultScheme,
		Degree:        DefaultDegree,
		MeshIntervals: DefaultMeshIntervals,
		Solver: SolverConfig{
			PenaltyStart:    DefaultPenaltyStart,
			PenaltyGrowth:   DefaultPenaltyGrowth,
			OuterIterations: DefaultOuterIterations,
			MajorIterations: DefaultMajorIterations,
			Tolerance:       DefaultTolerance,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
