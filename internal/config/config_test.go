package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scheme != "trapezoidal" {
		t.Errorf("expected scheme trapezoidal, got %s", cfg.Scheme)
	}
	if cfg.MeshIntervals <= 0 {
		t.Error("mesh intervals should be positive")
	}
	if cfg.Degree <= 0 {
		t.Error("degree should be positive")
	}
	if cfg.Solver.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Problem = "pendulum"
	cfg.Scheme = "legendre-gauss-radau"
	cfg.Degree = 4
	cfg.Mesh = []float64{0, 0.25, 1}
	cfg.ScaleVariables = true
	cfg.Solver.OuterIterations = 9

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Problem != "pendulum" || loaded.Scheme != "legendre-gauss-radau" || loaded.Degree != 4 {
		t.Errorf("loaded %+v", loaded)
	}
	if len(loaded.Mesh) != 3 || loaded.Mesh[1] != 0.25 {
		t.Errorf("loaded mesh %v", loaded.Mesh)
	}
	if !loaded.ScaleVariables || loaded.Solver.OuterIterations != 9 {
		t.Errorf("loaded %+v", loaded)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("scheme: legendre-gauss\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheme != "legendre-gauss" {
		t.Errorf("scheme = %s", cfg.Scheme)
	}
	if cfg.MeshIntervals != DefaultMeshIntervals {
		t.Errorf("mesh intervals = %d, want default %d", cfg.MeshIntervals, DefaultMeshIntervals)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
